package state

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWeekID(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2026-08-25", "2026-W35"},
		{"2026-01-01", "2026-W01"},
		// Jan 1 2027 falls in ISO week 53 of 2026.
		{"2027-01-01", "2026-W53"},
	}
	for _, tt := range tests {
		now, err := time.Parse("2006-01-02", tt.day)
		if err != nil {
			t.Fatalf("bad test date %q: %v", tt.day, err)
		}
		if got := WeekID(now); got != tt.want {
			t.Errorf("WeekID(%s) = %q, want %q", tt.day, got, tt.want)
		}
	}
}

func TestLogExecution_UpsertsByWeekAndJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.LogExecution(ctx, Execution{
		WeekID: "2026-W35", JobType: "preview", Status: "failed",
		Error: "jira down",
	}); err != nil {
		t.Fatalf("first log: %v", err)
	}
	if err := s.LogExecution(ctx, Execution{
		WeekID: "2026-W35", JobType: "preview", Status: "success",
		DocID: "doc-1", DocURL: "https://docs.google.com/document/d/doc-1/edit",
		Details: map[string]any{"boards": 2},
	}); err != nil {
		t.Fatalf("second log: %v", err)
	}

	hist, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", len(hist))
	}
	e := hist[0]
	if e.Status != "success" || e.DocID != "doc-1" || e.Error != "" {
		t.Errorf("row = %+v", e)
	}
	if e.Details["boards"] != float64(2) {
		t.Errorf("details = %v", e.Details)
	}
}

func TestDocID_PrefersPreviewRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.LogExecution(ctx, Execution{WeekID: "2026-W35", JobType: "final", Status: "success", DocID: "doc-final"}); err != nil {
		t.Fatal(err)
	}
	if err := s.LogExecution(ctx, Execution{WeekID: "2026-W35", JobType: "preview", Status: "success", DocID: "doc-preview"}); err != nil {
		t.Fatal(err)
	}

	id, err := s.DocID(ctx, "2026-W35")
	if err != nil {
		t.Fatalf("DocID: %v", err)
	}
	if id != "doc-preview" {
		t.Errorf("doc id = %q, want doc-preview", id)
	}

	id, err = s.DocID(ctx, "2026-W01")
	if err != nil {
		t.Fatalf("DocID other week: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty id for unknown week, got %q", id)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.LogExecution(ctx, Execution{WeekID: "2025-W01", JobType: "final", Status: "success", ExecutedAt: now.Add(-120 * 24 * time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := s.LogExecution(ctx, Execution{WeekID: "2026-W35", JobType: "preview", Status: "success", ExecutedAt: now}); err != nil {
		t.Fatal(err)
	}

	n, err := s.CleanupOlderThan(ctx, now.Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
	hist, _ := s.History(ctx, 10)
	if len(hist) != 1 || hist[0].WeekID != "2026-W35" {
		t.Errorf("history after cleanup = %+v", hist)
	}
}

func TestNilStoreIsNoOp(t *testing.T) {
	var s *Store
	ctx := context.Background()
	if err := s.LogExecution(ctx, Execution{WeekID: "2026-W35", JobType: "preview", Status: "success"}); err != nil {
		t.Errorf("nil LogExecution: %v", err)
	}
	if id, err := s.DocID(ctx, "2026-W35"); err != nil || id != "" {
		t.Errorf("nil DocID = %q, %v", id, err)
	}
	if hist, err := s.History(ctx, 5); err != nil || hist != nil {
		t.Errorf("nil History = %v, %v", hist, err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
