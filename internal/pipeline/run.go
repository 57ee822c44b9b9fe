// Package pipeline orchestrates the two weekly report runs: preview
// (collect, generate, build the document, announce the draft) and
// final (export the reviewed document as PDF and distribute it).
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/dgallion1/weeklyreport/internal/collect"
	"github.com/dgallion1/weeklyreport/internal/docbuild"
	"github.com/dgallion1/weeklyreport/internal/gdocs"
	"github.com/dgallion1/weeklyreport/internal/state"
)

// Collector produces the week's data snapshot.
type Collector interface {
	CollectAll(ctx context.Context) *collect.Snapshot
}

// Generator turns a snapshot into the report narrative.
type Generator interface {
	GenerateReport(ctx context.Context, snap *collect.Snapshot) (string, error)
}

// Builder assembles the report document.
type Builder interface {
	Build(ctx context.Context, narrative string, now time.Time) (*docbuild.BuildResult, error)
}

// Resolver finds an existing report document by title.
type Resolver interface {
	Resolve(ctx context.Context, title, folderID string) (string, error)
}

// Exporter downloads a document as PDF.
type Exporter interface {
	ExportPDF(ctx context.Context, docID string) ([]byte, error)
}

// Notifier sends the lifecycle emails.
type Notifier interface {
	SendPreview(ctx context.Context, title, docURL string) error
	SendFinal(ctx context.Context, title, docURL string, pdfBytes []byte) error
	SendError(ctx context.Context, jobType string, runErr error) error
}

// Runner executes report phases and records their outcomes.
type Runner struct {
	collector Collector
	generator Generator
	builder   Builder
	resolver  Resolver
	exporter  Exporter
	notifier  Notifier
	store     *state.Store
	folderID  string
	log       *slog.Logger

	now       func() time.Time
	llmDelay  func(int) time.Duration
	verifyPDF func([]byte) error
}

func NewRunner(collector Collector, generator Generator, builder Builder, resolver Resolver, exporter Exporter, notifier Notifier, store *state.Store, folderID string, log *slog.Logger) *Runner {
	return &Runner{
		collector: collector,
		generator: generator,
		builder:   builder,
		resolver:  resolver,
		exporter:  exporter,
		notifier:  notifier,
		store:     store,
		folderID:  folderID,
		log:       log,
		now:       time.Now,
		llmDelay:  backoff,
		verifyPDF: verifyPDF,
	}
}

// Preview runs the draft phase: collect, generate, build the document
// and announce it for review.
func (r *Runner) Preview(ctx context.Context) error {
	now := r.now()
	runID := newRunID()
	log := r.log.With("run_id", runID, "job_type", "preview", "week", state.WeekID(now))
	log.Info("preview run started")

	err := r.preview(ctx, now, log)
	if err != nil {
		log.Error("preview run failed", "error", err)
		r.record(ctx, now, "preview", state.Execution{Status: "failed", Error: err.Error()}, log)
		if nerr := r.notifier.SendError(ctx, "preview", err); nerr != nil {
			log.Warn("error notification failed", "error", nerr)
		}
		return err
	}
	log.Info("preview run finished")
	return nil
}

func (r *Runner) preview(ctx context.Context, now time.Time, log *slog.Logger) error {
	snap := r.collector.CollectAll(ctx)
	if snap.Empty() {
		return fmt.Errorf("collection produced no data: %v", snap.Errors)
	}

	narrative, err := withLLMRetry(ctx, r.llmDelay, func() (string, error) {
		return r.generator.GenerateReport(ctx, snap)
	})
	if err != nil {
		return fmt.Errorf("generate narrative: %w", err)
	}

	res, err := r.builder.Build(ctx, narrative, now)
	if err != nil {
		// A partially built document still gets recorded so the next
		// attempt resolves the same doc instead of creating another.
		if res != nil {
			r.record(ctx, now, "preview", state.Execution{
				Status: "failed", DocID: res.DocID, DocURL: res.URL, Error: err.Error(),
			}, log)
		}
		return fmt.Errorf("build document: %w", err)
	}

	r.record(ctx, now, "preview", state.Execution{
		Status: "success",
		DocID:  res.DocID,
		DocURL: res.URL,
		Details: map[string]any{
			"boards":           len(snap.Boards),
			"sheets":           len(snap.Sheets),
			"collect_warnings": snap.Errors,
			"doc_created":      res.Created,
		},
	}, log)

	if err := r.notifier.SendPreview(ctx, res.Title, res.URL); err != nil {
		return fmt.Errorf("send preview email: %w", err)
	}
	return nil
}

// Final runs the distribution phase: export this week's reviewed
// document as PDF, verify it, and email it out.
func (r *Runner) Final(ctx context.Context) error {
	now := r.now()
	runID := newRunID()
	log := r.log.With("run_id", runID, "job_type", "final", "week", state.WeekID(now))
	log.Info("final run started")

	err := r.final(ctx, now, log)
	if err != nil {
		log.Error("final run failed", "error", err)
		r.record(ctx, now, "final", state.Execution{Status: "failed", Error: err.Error()}, log)
		if nerr := r.notifier.SendError(ctx, "final", err); nerr != nil {
			log.Warn("error notification failed", "error", nerr)
		}
		return err
	}
	log.Info("final run finished")
	return nil
}

func (r *Runner) final(ctx context.Context, now time.Time, log *slog.Logger) error {
	title := docbuild.ReportTitle(now)

	docID, err := r.store.DocID(ctx, state.WeekID(now))
	if err != nil {
		log.Warn("state lookup failed, falling back to drive search", "error", err)
	}
	if docID == "" {
		docID, err = r.resolver.Resolve(ctx, title, r.folderID)
		if err != nil {
			return fmt.Errorf("resolve document: %w", err)
		}
	}
	if docID == "" {
		return fmt.Errorf("no report document found for %q; run preview first", title)
	}

	pdfBytes, err := r.exporter.ExportPDF(ctx, docID)
	if err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	if err := r.verifyPDF(pdfBytes); err != nil {
		return fmt.Errorf("exported pdf invalid: %w", err)
	}
	log.Info("pdf exported", "doc_id", docID, "bytes", len(pdfBytes))

	docURL := gdocs.DocumentURL(docID)
	if err := r.notifier.SendFinal(ctx, title, docURL, pdfBytes); err != nil {
		return fmt.Errorf("send final email: %w", err)
	}

	r.record(ctx, now, "final", state.Execution{
		Status: "success",
		DocID:  docID,
		DocURL: docURL,
		Details: map[string]any{
			"pdf_bytes": len(pdfBytes),
		},
	}, log)
	return nil
}

func (r *Runner) record(ctx context.Context, now time.Time, jobType string, exec state.Execution, log *slog.Logger) {
	exec.WeekID = state.WeekID(now)
	exec.JobType = jobType
	exec.ExecutedAt = now.UTC()
	if err := r.store.LogExecution(ctx, exec); err != nil {
		log.Warn("execution not recorded", "error", err)
	}
}

// verifyPDF rejects exports that are not parseable PDFs with at least
// one page. Drive occasionally returns an HTML error page with a 200.
func verifyPDF(data []byte) error {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if reader.NumPage() < 1 {
		return fmt.Errorf("document has no pages")
	}
	return nil
}
