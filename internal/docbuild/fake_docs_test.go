package docbuild

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/weeklyreport/internal/gdocs"
)

// fakeDocsService simulates the remote document model with real index
// arithmetic: every GetDocument recomputes absolute offsets from the
// current blocks, so each structural edit shifts everything after it,
// exactly the drift the mutator has to survive.
type fakeDocsService struct {
	blocks []*fakeBlock

	gets    int
	batches int
	// failWhen, when set, injects an error for a matching batch.
	failWhen func(reqs []gdocs.Request) error

	// Resolved style applications, by the text they covered.
	bolded   []string
	headings map[string]string
}

type fakeBlock struct {
	isTable bool
	text    string     // paragraph text, no trailing newline
	cells   [][]string // table cell text
}

func newFakeDocs(initialParagraphs ...string) *fakeDocsService {
	s := &fakeDocsService{headings: map[string]string{}}
	for _, p := range initialParagraphs {
		s.blocks = append(s.blocks, &fakeBlock{text: p})
	}
	// A document always ends with one paragraph that cannot be removed.
	s.blocks = append(s.blocks, &fakeBlock{text: ""})
	return s
}

// textLoc is one addressable text region in the current layout.
// Offsets count UTF-16 units, matching the remote index space.
type textLoc struct {
	blockIdx int
	row, col int // -1 for body paragraphs
	start    int64
	text     string
}

// byteOffset converts a UTF-16 unit offset within s to a byte offset.
func byteOffset(s string, units int64) int {
	var n int64
	for i, r := range s {
		if n >= units {
			return i
		}
		n++
		if r > 0xFFFF {
			n++
		}
	}
	return len(s)
}

// layout computes the flat list of text regions with fresh offsets.
func (s *fakeDocsService) layout() []textLoc {
	var locs []textLoc
	idx := int64(1)
	for bi, b := range s.blocks {
		if !b.isTable {
			locs = append(locs, textLoc{blockIdx: bi, row: -1, col: -1, start: idx, text: b.text})
			idx += gdocs.UTF16Len(b.text) + 1
			continue
		}
		idx++ // table start marker
		for ri, row := range b.cells {
			idx++ // row marker
			for ci, cell := range row {
				idx++ // cell marker
				locs = append(locs, textLoc{blockIdx: bi, row: ri, col: ci, start: idx, text: cell})
				idx += gdocs.UTF16Len(cell) + 1
			}
		}
	}
	return locs
}

func (s *fakeDocsService) GetDocument(ctx context.Context, docID string) (*gdocs.Document, error) {
	s.gets++
	doc := &gdocs.Document{DocumentID: docID}
	idx := int64(1)
	for _, b := range s.blocks {
		if !b.isTable {
			start := idx
			end := start + gdocs.UTF16Len(b.text) + 1
			doc.Body.Content = append(doc.Body.Content, gdocs.StructuralElement{
				StartIndex: start,
				EndIndex:   end,
				Paragraph:  fakeParagraph(b.text, start),
			})
			idx = end
			continue
		}

		tblStart := idx
		idx++
		tbl := &gdocs.Table{Rows: len(b.cells)}
		if len(b.cells) > 0 {
			tbl.Columns = len(b.cells[0])
		}
		for _, row := range b.cells {
			idx++
			var tr gdocs.TableRow
			for _, cell := range row {
				cellStart := idx
				idx++
				paraStart := idx
				paraEnd := paraStart + gdocs.UTF16Len(cell) + 1
				tr.TableCells = append(tr.TableCells, gdocs.TableCell{
					StartIndex: cellStart,
					EndIndex:   paraEnd,
					Content: []gdocs.StructuralElement{{
						StartIndex: paraStart,
						EndIndex:   paraEnd,
						Paragraph:  fakeParagraph(cell, paraStart),
					}},
				})
				idx = paraEnd
			}
			tbl.TableRows = append(tbl.TableRows, tr)
		}
		doc.Body.Content = append(doc.Body.Content, gdocs.StructuralElement{
			StartIndex: tblStart,
			EndIndex:   idx,
			Table:      tbl,
		})
	}
	return doc, nil
}

func fakeParagraph(text string, start int64) *gdocs.Paragraph {
	return &gdocs.Paragraph{Elements: []gdocs.ParagraphElement{{
		StartIndex: start,
		EndIndex:   start + gdocs.UTF16Len(text) + 1,
		TextRun:    &gdocs.TextRun{Content: text + "\n"},
	}}}
}

func (s *fakeDocsService) BatchUpdate(ctx context.Context, docID string, reqs []gdocs.Request) error {
	s.batches++
	if s.failWhen != nil {
		if err := s.failWhen(reqs); err != nil {
			return err
		}
	}
	for _, req := range reqs {
		switch {
		case req.InsertText != nil:
			if err := s.applyInsertText(req.InsertText); err != nil {
				return err
			}
		case req.DeleteContentRange != nil:
			if err := s.applyDelete(req.DeleteContentRange); err != nil {
				return err
			}
		case req.InsertTable != nil:
			if err := s.applyInsertTable(req.InsertTable); err != nil {
				return err
			}
		case req.UpdateTextStyle != nil:
			if err := s.applyTextStyle(req.UpdateTextStyle); err != nil {
				return err
			}
		case req.UpdateParagraphStyle != nil:
			if err := s.applyParagraphStyle(req.UpdateParagraphStyle); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *fakeDocsService) applyInsertText(req *gdocs.InsertTextRequest) error {
	at := req.Location.Index
	for _, loc := range s.layout() {
		if at < loc.start || at > loc.start+gdocs.UTF16Len(loc.text) {
			continue
		}
		off := byteOffset(loc.text, at-loc.start)
		if loc.row >= 0 {
			// Cell text: plain insertion.
			b := s.blocks[loc.blockIdx]
			b.cells[loc.row][loc.col] = loc.text[:off] + req.Text + loc.text[off:]
			return nil
		}
		// Body paragraph: newlines split into multiple paragraphs.
		merged := loc.text[:off] + req.Text + loc.text[off:]
		lines := strings.Split(merged, "\n")
		newBlocks := make([]*fakeBlock, len(lines))
		for i, l := range lines {
			newBlocks[i] = &fakeBlock{text: l}
		}
		s.blocks = append(s.blocks[:loc.blockIdx], append(newBlocks, s.blocks[loc.blockIdx+1:]...)...)
		return nil
	}
	return fmt.Errorf("insertText: index %d out of range", at)
}

func (s *fakeDocsService) applyDelete(req *gdocs.DeleteContentRangeRequest) error {
	start, end := req.Range.StartIndex, req.Range.EndIndex
	if start >= end {
		return fmt.Errorf("deleteContentRange: empty range [%d,%d)", start, end)
	}

	// Within a single text region (placeholder removal).
	for _, loc := range s.layout() {
		if start >= loc.start && end <= loc.start+gdocs.UTF16Len(loc.text) {
			s0, e0 := byteOffset(loc.text, start-loc.start), byteOffset(loc.text, end-loc.start)
			b := s.blocks[loc.blockIdx]
			if loc.row >= 0 {
				b.cells[loc.row][loc.col] = loc.text[:s0] + loc.text[e0:]
			} else {
				b.text = loc.text[:s0] + loc.text[e0:]
			}
			return nil
		}
	}

	// Spanning body paragraphs (document clear). Tables in range are
	// not supported by the fake; the mutator never deletes across one.
	var kept []*fakeBlock
	idx := int64(1)
	for _, b := range s.blocks {
		if b.isTable {
			return fmt.Errorf("deleteContentRange: fake does not support deleting across tables")
		}
		bStart := idx
		bEnd := bStart + gdocs.UTF16Len(b.text) + 1
		idx = bEnd
		switch {
		case bEnd <= start || bStart >= end:
			kept = append(kept, b)
		case bStart >= start && bEnd <= end:
			// fully covered, dropped
		case bStart < start:
			b.text = b.text[:byteOffset(b.text, start-bStart)]
			kept = append(kept, b)
		default:
			// partially deleted from the front; the trailing newline
			// survives when end stops short of bEnd.
			b.text = b.text[byteOffset(b.text, end-bStart):]
			kept = append(kept, b)
		}
	}
	s.blocks = kept
	if len(s.blocks) == 0 {
		s.blocks = []*fakeBlock{{text: ""}}
	}
	return nil
}

func (s *fakeDocsService) applyInsertTable(req *gdocs.InsertTableRequest) error {
	at := req.Location.Index
	for _, loc := range s.layout() {
		if loc.row >= 0 || at != loc.start {
			continue
		}
		cells := make([][]string, req.Rows)
		for i := range cells {
			cells[i] = make([]string, req.Columns)
		}
		tbl := &fakeBlock{isTable: true, cells: cells}
		rest := append([]*fakeBlock{tbl}, s.blocks[loc.blockIdx:]...)
		s.blocks = append(s.blocks[:loc.blockIdx], rest...)
		return nil
	}
	return fmt.Errorf("insertTable: no paragraph starts at index %d", at)
}

func (s *fakeDocsService) applyTextStyle(req *gdocs.UpdateTextStyleRequest) error {
	if !req.TextStyle.Bold {
		return nil
	}
	start, end := req.Range.StartIndex, req.Range.EndIndex
	for _, loc := range s.layout() {
		if start >= loc.start && end <= loc.start+gdocs.UTF16Len(loc.text) {
			s.bolded = append(s.bolded, loc.text[byteOffset(loc.text, start-loc.start):byteOffset(loc.text, end-loc.start)])
			return nil
		}
	}
	return fmt.Errorf("updateTextStyle: range [%d,%d) not within one run", start, end)
}

func (s *fakeDocsService) applyParagraphStyle(req *gdocs.UpdateParagraphStyleRequest) error {
	start, end := req.Range.StartIndex, req.Range.EndIndex
	for _, loc := range s.layout() {
		if start >= loc.start && end <= loc.start+gdocs.UTF16Len(loc.text) {
			s.headings[loc.text[byteOffset(loc.text, start-loc.start):byteOffset(loc.text, end-loc.start)]] = req.ParagraphStyle.NamedStyleType
			return nil
		}
	}
	return fmt.Errorf("updateParagraphStyle: range [%d,%d) not within one paragraph", start, end)
}

// paragraphTexts returns the body paragraph texts in order.
func (s *fakeDocsService) paragraphTexts() []string {
	var out []string
	for _, b := range s.blocks {
		if !b.isTable {
			out = append(out, b.text)
		}
	}
	return out
}

// tables returns the cell grids of all tables in document order.
func (s *fakeDocsService) tables() [][][]string {
	var out [][][]string
	for _, b := range s.blocks {
		if b.isTable {
			out = append(out, b.cells)
		}
	}
	return out
}

func (s *fakeDocsService) fullText() string {
	var sb strings.Builder
	for _, b := range s.blocks {
		if b.isTable {
			for _, row := range b.cells {
				sb.WriteString(strings.Join(row, "|"))
				sb.WriteByte('\n')
			}
			continue
		}
		sb.WriteString(b.text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// fakeDriveService backs the locator tests.
type fakeDriveService struct {
	files   map[string]fakeDriveFile // id -> file
	nextID  int
	creates int
	pdf     []byte
}

type fakeDriveFile struct {
	name    string
	folder  string
	trashed bool
}

func newFakeDrive() *fakeDriveService {
	return &fakeDriveService{files: map[string]fakeDriveFile{}}
}

func (d *fakeDriveService) FindDocument(ctx context.Context, title, folderID string) (string, error) {
	for id, f := range d.files {
		if f.name == title && f.folder == folderID && !f.trashed {
			return id, nil
		}
	}
	return "", nil
}

func (d *fakeDriveService) CreateDocument(ctx context.Context, title, folderID string) (string, error) {
	d.creates++
	d.nextID++
	id := fmt.Sprintf("doc-%d", d.nextID)
	d.files[id] = fakeDriveFile{name: title, folder: folderID}
	return id, nil
}

func (d *fakeDriveService) ExportPDF(ctx context.Context, fileID string) ([]byte, error) {
	return d.pdf, nil
}
