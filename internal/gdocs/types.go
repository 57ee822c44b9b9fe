// Package gdocs is a thin client for the Google Docs and Drive REST
// APIs, covering exactly the surface the report builder needs: fetch
// full document structure, batched edits, find/create by title, and
// PDF export.
package gdocs

import "strings"

// Document is the full structure of a doc as returned by
// GET /v1/documents/{id}. Indexes are absolute character offsets and
// are only valid until the next structural edit.
type Document struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Body       Body   `json:"body"`
}

// Body holds the document content as an ordered element sequence.
type Body struct {
	Content []StructuralElement `json:"content"`
}

// StructuralElement is one block-level element: a paragraph, a table,
// or a section break.
type StructuralElement struct {
	StartIndex   int64         `json:"startIndex"`
	EndIndex     int64         `json:"endIndex"`
	Paragraph    *Paragraph    `json:"paragraph,omitempty"`
	Table        *Table        `json:"table,omitempty"`
	SectionBreak *SectionBreak `json:"sectionBreak,omitempty"`
}

// Paragraph is an ordered run of inline elements.
type Paragraph struct {
	Elements []ParagraphElement `json:"elements"`
}

// ParagraphElement is one inline element; only text runs matter here.
type ParagraphElement struct {
	StartIndex int64    `json:"startIndex"`
	EndIndex   int64    `json:"endIndex"`
	TextRun    *TextRun `json:"textRun,omitempty"`
}

// TextRun is a contiguous stretch of text with uniform styling.
type TextRun struct {
	Content   string     `json:"content"`
	TextStyle *TextStyle `json:"textStyle,omitempty"`
}

// TextStyle carries the one inline attribute we set.
type TextStyle struct {
	Bold bool `json:"bold,omitempty"`
}

// Table is a grid of cells, each cell holding nested structure.
type Table struct {
	Rows      int        `json:"rows"`
	Columns   int        `json:"columns"`
	TableRows []TableRow `json:"tableRows"`
}

// TableRow is one row of cells.
type TableRow struct {
	TableCells []TableCell `json:"tableCells"`
}

// TableCell holds its own structural elements (paragraphs).
type TableCell struct {
	StartIndex int64               `json:"startIndex"`
	EndIndex   int64               `json:"endIndex"`
	Content    []StructuralElement `json:"content"`
}

// SectionBreak is opaque reserved structure; the leading one pins
// index 0 and is never deleted.
type SectionBreak struct{}

// Text concatenates the paragraph's text runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, el := range p.Elements {
		if el.TextRun != nil {
			sb.WriteString(el.TextRun.Content)
		}
	}
	return sb.String()
}

// EndIndex returns the end offset of the last body element, or 0 for
// a document with no content.
func (d *Document) EndIndex() int64 {
	if len(d.Body.Content) == 0 {
		return 0
	}
	return d.Body.Content[len(d.Body.Content)-1].EndIndex
}

// FindParagraph returns the body element whose paragraph text equals
// the given line (trailing newline ignored), or nil.
func (d *Document) FindParagraph(line string) *StructuralElement {
	for i := range d.Body.Content {
		el := &d.Body.Content[i]
		if el.Paragraph == nil {
			continue
		}
		if strings.TrimSuffix(el.Paragraph.Text(), "\n") == line {
			return el
		}
	}
	return nil
}

// Tables returns the body's table elements in document order.
func (d *Document) Tables() []*StructuralElement {
	var tables []*StructuralElement
	for i := range d.Body.Content {
		if d.Body.Content[i].Table != nil {
			tables = append(tables, &d.Body.Content[i])
		}
	}
	return tables
}

// CellInsertionIndex returns the offset at which text should be
// inserted into a cell: the start of the first text run if the cell
// already has one, otherwise just inside the cell's first paragraph.
func CellInsertionIndex(cell *TableCell) int64 {
	for _, el := range cell.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe.TextRun != nil {
				return pe.StartIndex
			}
		}
		return el.StartIndex
	}
	// Defensive: cells always contain at least one paragraph.
	return cell.StartIndex + 1
}
