// Package docbuild assembles the weekly report into a remote rich
// document: it finds or creates the target doc, clears it, bulk-inserts
// the planned text, then resolves table placeholders into real tables
// and applies formatting, re-reading live offsets between every
// structural step.
package docbuild

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/weeklyreport/internal/gdocs"
)

// DocsService is the document-structure surface the mutator needs.
type DocsService interface {
	GetDocument(ctx context.Context, docID string) (*gdocs.Document, error)
	BatchUpdate(ctx context.Context, docID string, reqs []gdocs.Request) error
}

// DriveService is the file surface the locator and exporter need.
type DriveService interface {
	FindDocument(ctx context.Context, title, folderID string) (string, error)
	CreateDocument(ctx context.Context, title, folderID string) (string, error)
	ExportPDF(ctx context.Context, fileID string) ([]byte, error)
}

// Locator finds or creates the report document by deterministic title.
// Repeated calls within the same report cycle return the same document
// and never create a duplicate, which is what makes partial-failure
// re-runs safe.
type Locator struct {
	drive DriveService
	log   *slog.Logger
}

func NewLocator(drive DriveService, log *slog.Logger) *Locator {
	return &Locator{drive: drive, log: log}
}

// Resolve returns the ID of the live document with the given title
// under folderID, or "" when none exists. Trashed documents never
// match.
func (l *Locator) Resolve(ctx context.Context, title, folderID string) (string, error) {
	id, err := l.drive.FindDocument(ctx, title, folderID)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", title, err)
	}
	return id, nil
}

// ResolveOrCreate resolves the titled document, creating it when
// absent. The second return reports whether a document was created.
func (l *Locator) ResolveOrCreate(ctx context.Context, title, folderID string) (string, bool, error) {
	id, err := l.Resolve(ctx, title, folderID)
	if err != nil {
		return "", false, err
	}
	if id != "" {
		l.log.Info("found existing document", "title", title, "doc_id", id)
		return id, false, nil
	}

	id, err = l.drive.CreateDocument(ctx, title, folderID)
	if err != nil {
		return "", false, fmt.Errorf("create %q: %w", title, err)
	}
	l.log.Info("created document", "title", title, "doc_id", id)
	return id, true, nil
}

// ReportTitle derives the deterministic document title from the
// reference Wednesday of now's week: today when today is Wednesday,
// otherwise the next Wednesday. Date formatted M/D/YY without leading
// zeros.
func ReportTitle(now time.Time) string {
	days := (int(time.Wednesday) - int(now.Weekday()) + 7) % 7
	wed := now.AddDate(0, 0, days)
	return fmt.Sprintf("Weekly Product Team Report %d/%d/%02d", int(wed.Month()), wed.Day(), wed.Year()%100)
}
