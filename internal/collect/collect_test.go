package collect

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status string
		want   StatusClass
	}{
		{"Done", StatusCompleted},
		{"Closed", StatusCompleted},
		{"Resolved", StatusCompleted},
		{"Completed", StatusCompleted},
		{"In Progress", StatusInProgress},
		{"In Review", StatusInProgress},
		{"Code Review", StatusInProgress},
		{"Blocked", StatusBlocked},
		{"Blocked - waiting on vendor", StatusBlocked},
		{"To Do", StatusOther},
		{"Backlog", StatusOther},
		// Blocked wins even when the name also mentions progress.
		{"Blocked in progress", StatusBlocked},
	}
	for _, tt := range tests {
		if got := ClassifyStatus(tt.status); got != tt.want {
			t.Errorf("ClassifyStatus(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestJiraClient_CollectBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if user, _, ok := r.BasicAuth(); !ok || user != "bot@example.com" {
			t.Error("missing basic auth")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"issues": []map[string]any{
				{"key": "PROD-1", "fields": map[string]any{"summary": "Ship it", "status": map[string]any{"name": "Done"}}},
				{"key": "PROD-2", "fields": map[string]any{"summary": "Fix it", "status": map[string]any{"name": "In Progress"}}},
				{"key": "PROD-3", "fields": map[string]any{"summary": "Wait", "status": map[string]any{"name": "Blocked"}}},
				{"key": "PROD-4", "fields": map[string]any{"summary": "Later", "status": map[string]any{"name": "Backlog"}}},
			},
		})
	}))
	defer srv.Close()

	client := NewJiraClient(srv.URL, "bot@example.com", "token")
	data, err := client.CollectBoard(context.Background(), "PROD")
	if err != nil {
		t.Fatalf("CollectBoard: %v", err)
	}
	if data.Stats.Total != 4 {
		t.Errorf("total = %d, want 4", data.Stats.Total)
	}
	if data.Stats.Completed != 1 || data.Stats.InProgress != 1 || data.Stats.Blocked != 1 {
		t.Errorf("stats = %+v", data.Stats)
	}
	if len(data.Issues) != 4 || data.Issues[0].Key != "PROD-1" {
		t.Errorf("issues = %+v", data.Issues)
	}
}

func TestCollectAll_PartialFailure(t *testing.T) {
	jiraSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer jiraSrv.Close()

	sheetsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v4/spreadsheets/sheet-1":
			json.NewEncoder(w).Encode(map[string]any{
				"properties": map[string]any{"title": "Launch Tracker"},
				"sheets": []map[string]any{
					{"properties": map[string]any{"title": "Q4"}},
				},
			})
		case "/v4/spreadsheets/sheet-1/values/'Q4'!A1:Z50":
			json.NewEncoder(w).Encode(map[string]any{
				"values": [][]any{
					{"Product", "Status"},
					{"Widget", "On track"},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer sheetsSrv.Close()

	c := NewCollector(
		NewJiraClient(jiraSrv.URL, "bot@example.com", "token"),
		NewSheetsClient(sheetsSrv.Client(), sheetsSrv.URL),
		[]string{"PROD"},
		[]string{"sheet-1"},
		discardLogger(),
	)
	snap := c.CollectAll(context.Background())

	if len(snap.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %v", snap.Errors)
	}
	if len(snap.Boards) != 0 {
		t.Errorf("failed board should not appear, got %d", len(snap.Boards))
	}
	if len(snap.Sheets) != 1 {
		t.Fatalf("expected 1 sheet, got %d", len(snap.Sheets))
	}
	tab := snap.Sheets[0].Tabs[0]
	if tab.Title != "Q4" || tab.RowCount != 2 || tab.ColumnCount != 2 {
		t.Errorf("tab = %+v", tab)
	}
	if len(tab.SampleRows) != 1 || tab.SampleRows[0][0] != "Widget" {
		t.Errorf("sample rows = %+v", tab.SampleRows)
	}
	if snap.Empty() {
		t.Error("snapshot with sheet data reported empty")
	}
}
