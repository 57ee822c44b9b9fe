package docbuild

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/weeklyreport/internal/gdocs"
	"github.com/dgallion1/weeklyreport/internal/markdown"
)

// Builder is the top-level document assembly entry point: narrative
// text in, populated document out.
type Builder struct {
	locator  *Locator
	mutator  *Mutator
	folderID string
	log      *slog.Logger
}

func NewBuilder(docs DocsService, drive DriveService, folderID string, log *slog.Logger) *Builder {
	retry := NewRetry(log)
	return &Builder{
		locator:  NewLocator(drive, log),
		mutator:  NewMutator(docs, retry, log),
		folderID: folderID,
		log:      log,
	}
}

// BuildResult identifies the produced document.
type BuildResult struct {
	DocID   string
	URL     string
	Title   string
	Created bool
}

// Build finds or creates this week's report document and rebuilds its
// content from the narrative. Re-running after a partial failure
// resolves the same document and overwrites it from scratch.
func (b *Builder) Build(ctx context.Context, narrative string, now time.Time) (*BuildResult, error) {
	title := ReportTitle(now)
	docID, created, err := b.locator.ResolveOrCreate(ctx, title, b.folderID)
	if err != nil {
		return nil, err
	}

	plan := markdown.Plan(markdown.Tokenize(narrative))
	b.log.Info("planned document",
		"doc_id", docID,
		"rendered_bytes", len(plan.RenderedText),
		"style_ops", len(plan.StyleOps),
		"tables", len(plan.TableJobs),
	)

	if err := b.mutator.Apply(ctx, docID, plan); err != nil {
		// The document stays in whatever state it reached; the caller
		// decides whether a partial document is worth announcing.
		return &BuildResult{DocID: docID, URL: gdocs.DocumentURL(docID), Title: title, Created: created}, err
	}

	return &BuildResult{DocID: docID, URL: gdocs.DocumentURL(docID), Title: title, Created: created}, nil
}
