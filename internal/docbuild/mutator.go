package docbuild

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/weeklyreport/internal/gdocs"
	"github.com/dgallion1/weeklyreport/internal/markdown"
)

// State is the mutator's position in the rebuild sequence. On fatal
// failure the document keeps whatever content the reached state left
// behind: a half-populated report is a human-editable artifact, so
// visible partial content beats no document.
type State string

const (
	StateEmpty          State = "empty"
	StateBulkInserted   State = "bulk_inserted"
	StateTablesResolved State = "tables_resolved"
	StateFormatted      State = "formatted"
	StateDone           State = "done"
)

// bodyStart is the first editable offset; offset 0 holds reserved
// structure that cannot be removed.
const bodyStart int64 = 1

// Mutator rebuilds a document from a planned rendering. All edits are
// strictly sequential: every offset used is derived from a document
// fetch performed after the previous structural change.
type Mutator struct {
	docs  DocsService
	retry *Retry
	log   *slog.Logger

	// Style batches are capped and paced to stay under write quotas.
	styleBatchCap int
	stylePacing   time.Duration

	state State
}

func NewMutator(docs DocsService, retry *Retry, log *slog.Logger) *Mutator {
	return &Mutator{
		docs:          docs,
		retry:         retry,
		log:           log,
		styleBatchCap: 20,
		stylePacing:   time.Second,
		state:         StateEmpty,
	}
}

// State reports the last state the mutator reached.
func (m *Mutator) State() State { return m.state }

// Apply clears the document and rebuilds it from the plan. A missing
// placeholder or a failed row degrades that table and continues; any
// other remote failure aborts and is returned.
func (m *Mutator) Apply(ctx context.Context, docID string, plan *markdown.PlannedDocument) error {
	m.state = StateEmpty

	if err := m.clear(ctx, docID); err != nil {
		return fmt.Errorf("clear document: %w", err)
	}
	if err := m.bulkInsert(ctx, docID, plan); err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}
	m.state = StateBulkInserted

	placed, err := m.resolveTables(ctx, docID, plan.TableJobs)
	if err != nil {
		return fmt.Errorf("resolve tables: %w", err)
	}
	if err := m.populateTables(ctx, docID, placed); err != nil {
		return fmt.Errorf("populate tables: %w", err)
	}
	m.state = StateTablesResolved

	if err := m.formatTables(ctx, docID, len(placed)); err != nil {
		return fmt.Errorf("format tables: %w", err)
	}
	m.state = StateFormatted

	m.state = StateDone
	return nil
}

// clear deletes all existing content, leaving only the reserved
// leading structure. A document that is already empty needs no call.
func (m *Mutator) clear(ctx context.Context, docID string) error {
	doc, err := m.docs.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	end := doc.EndIndex()
	if end <= bodyStart+1 {
		return nil
	}
	return m.retry.Do(ctx, "clear", func() error {
		return m.docs.BatchUpdate(ctx, docID, []gdocs.Request{
			gdocs.DeleteRange(bodyStart, end-1),
		})
	})
}

// bulkInsert writes the whole rendered text in one insertion at the
// body start and applies the planned inline/heading styles, translated
// from plan-relative to absolute offsets, in the same batch. Plan
// offsets are byte offsets into the rendered text; the remote index
// space counts UTF-16 units, so each offset is converted through the
// UTF-16 length of its prefix.
func (m *Mutator) bulkInsert(ctx context.Context, docID string, plan *markdown.PlannedDocument) error {
	if plan.RenderedText == "" {
		return nil
	}
	reqs := []gdocs.Request{gdocs.InsertText(bodyStart, plan.RenderedText)}
	for _, op := range plan.StyleOps {
		start := bodyStart + gdocs.UTF16Len(plan.RenderedText[:op.Start])
		end := bodyStart + gdocs.UTF16Len(plan.RenderedText[:op.End])
		switch op.Kind {
		case markdown.StyleHeading2:
			reqs = append(reqs, gdocs.SetParagraphStyle(start, end, "HEADING_2"))
		case markdown.StyleHeading3:
			reqs = append(reqs, gdocs.SetParagraphStyle(start, end, "HEADING_3"))
		case markdown.StyleBold:
			reqs = append(reqs, gdocs.SetBold(start, end))
		}
	}
	return m.retry.Do(ctx, "bulk_insert", func() error {
		return m.docs.BatchUpdate(ctx, docID, reqs)
	})
}

// resolveTables replaces placeholder lines with empty tables. Jobs run
// in reverse document order: each insertion shifts every later offset
// by an amount only known after the fact, so working back-to-front
// keeps the not-yet-resolved placeholders findable. The live position
// is still re-derived from a fresh fetch before every insertion.
// Returns the successfully placed jobs in forward document order.
func (m *Mutator) resolveTables(ctx context.Context, docID string, jobs []markdown.TableJob) ([]markdown.TableJob, error) {
	var placed []markdown.TableJob
	for i := len(jobs) - 1; i >= 0; i-- {
		job := jobs[i]
		doc, err := m.docs.GetDocument(ctx, docID)
		if err != nil {
			return nil, err
		}

		el := doc.FindParagraph(job.Marker)
		if el == nil {
			m.log.Warn("placeholder not found, skipping table", "marker", job.Marker)
			continue
		}

		cols := 0
		for _, row := range job.Rows {
			if len(row) > cols {
				cols = len(row)
			}
		}
		if cols == 0 {
			m.log.Warn("table job has no columns, skipping", "marker", job.Marker)
			continue
		}

		// Delete the marker text (keeping the paragraph's newline as
		// the insertion anchor), then insert the table in its place.
		reqs := []gdocs.Request{
			gdocs.DeleteRange(el.StartIndex, el.EndIndex-1),
			gdocs.InsertTable(el.StartIndex, len(job.Rows), cols),
		}
		if err := m.retry.Do(ctx, "insert_table", func() error {
			return m.docs.BatchUpdate(ctx, docID, reqs)
		}); err != nil {
			return nil, err
		}
		placed = append([]markdown.TableJob{job}, placed...)
	}
	return placed, nil
}

// populateTables writes cell contents row by row. The document is
// re-fetched before every row because inserting into one cell shifts
// every following offset in the same table; within one row the cells
// are written right-to-left so the offsets from a single snapshot stay
// valid for the whole batch. A failed row is logged and skipped; later
// rows are still attempted.
func (m *Mutator) populateTables(ctx context.Context, docID string, placed []markdown.TableJob) error {
	for ti, job := range placed {
		for ri, row := range job.Rows {
			doc, err := m.docs.GetDocument(ctx, docID)
			if err != nil {
				return err
			}
			tables := doc.Tables()
			if ti >= len(tables) {
				m.log.Warn("table element missing, skipping", "table", ti)
				break
			}
			tbl := tables[ti].Table
			if ri >= len(tbl.TableRows) {
				m.log.Warn("table row missing, skipping", "table", ti, "row", ri)
				continue
			}

			cells := tbl.TableRows[ri].TableCells
			var reqs []gdocs.Request
			for ci := len(cells) - 1; ci >= 0; ci-- {
				if ci >= len(row) || row[ci] == "" {
					continue
				}
				at := gdocs.CellInsertionIndex(&cells[ci])
				reqs = append(reqs, gdocs.InsertText(at, row[ci]))
			}
			if len(reqs) == 0 {
				continue
			}

			if err := m.retry.Do(ctx, "populate_row", func() error {
				return m.docs.BatchUpdate(ctx, docID, reqs)
			}); err != nil {
				m.log.Warn("row insert failed, continuing", "table", ti, "row", ri, "error", err)
			}
		}
	}
	return nil
}

// formatTables bolds the header row of every placed table. Text
// styling is not structural, so one fresh fetch covers the whole
// phase; the ops are applied in capped, paced batches.
func (m *Mutator) formatTables(ctx context.Context, docID string, placedCount int) error {
	if placedCount == 0 {
		return nil
	}
	doc, err := m.docs.GetDocument(ctx, docID)
	if err != nil {
		return err
	}

	var reqs []gdocs.Request
	tables := doc.Tables()
	if placedCount < len(tables) {
		tables = tables[:placedCount]
	}
	for _, el := range tables {
		if len(el.Table.TableRows) == 0 {
			continue
		}
		for _, cell := range el.Table.TableRows[0].TableCells {
			reqs = append(reqs, headerCellBoldOps(&cell)...)
		}
	}

	for start := 0; start < len(reqs); start += m.styleBatchCap {
		end := min(start+m.styleBatchCap, len(reqs))
		if err := m.retry.Do(ctx, "format_batch", func() error {
			return m.docs.BatchUpdate(ctx, docID, reqs[start:end])
		}); err != nil {
			return err
		}
		if end < len(reqs) {
			select {
			case <-time.After(m.stylePacing):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// headerCellBoldOps returns bold requests for the text runs of one
// header cell, excluding each run's trailing newline.
func headerCellBoldOps(cell *gdocs.TableCell) []gdocs.Request {
	var reqs []gdocs.Request
	for _, el := range cell.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe.TextRun == nil || strings.TrimSpace(pe.TextRun.Content) == "" {
				continue
			}
			end := pe.EndIndex
			if strings.HasSuffix(pe.TextRun.Content, "\n") {
				end--
			}
			if end > pe.StartIndex {
				reqs = append(reqs, gdocs.SetBold(pe.StartIndex, end))
			}
		}
	}
	return reqs
}
