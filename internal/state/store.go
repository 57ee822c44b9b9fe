// Package state tracks report executions in a local SQLite database so
// the final run can find the doc the preview run created, and so the
// ops endpoints can show recent history.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Schema defines the execution history table. One row per (week, job
// type); re-runs of the same job in the same week overwrite the row.
const Schema = `
CREATE TABLE IF NOT EXISTS report_executions (
    week_identifier TEXT NOT NULL,
    job_type        TEXT NOT NULL CHECK(job_type IN ('preview','final')),
    status          TEXT NOT NULL,
    doc_id          TEXT DEFAULT '',
    doc_url         TEXT DEFAULT '',
    error_message   TEXT DEFAULT '',
    details         TEXT DEFAULT '{}',
    executed_at     INTEGER NOT NULL,
    PRIMARY KEY (week_identifier, job_type)
);
`

// Store is the execution history database. A nil *Store is valid and
// turns every method into a no-op, so a missing database only disables
// tracking.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and applies the
// schema. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Execution is one recorded run.
type Execution struct {
	WeekID     string         `json:"week_identifier"`
	JobType    string         `json:"job_type"`
	Status     string         `json:"status"`
	DocID      string         `json:"doc_id,omitempty"`
	DocURL     string         `json:"doc_url,omitempty"`
	Error      string         `json:"error,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	ExecutedAt time.Time      `json:"executed_at"`
}

// LogExecution records the outcome of a run, replacing any earlier run
// of the same job in the same week.
func (s *Store) LogExecution(ctx context.Context, exec Execution) error {
	if s == nil {
		return nil
	}
	details := exec.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	at := exec.ExecutedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO report_executions
			(week_identifier, job_type, status, doc_id, doc_url, error_message, details, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(week_identifier, job_type) DO UPDATE SET
			status = excluded.status,
			doc_id = excluded.doc_id,
			doc_url = excluded.doc_url,
			error_message = excluded.error_message,
			details = excluded.details,
			executed_at = excluded.executed_at`,
		exec.WeekID, exec.JobType, exec.Status, exec.DocID, exec.DocURL, exec.Error, string(detailsJSON), at.Unix())
	if err != nil {
		return fmt.Errorf("log execution: %w", err)
	}
	return nil
}

// DocID returns the document id recorded for a week, preferring the
// preview run's record. Empty when nothing is recorded.
func (s *Store) DocID(ctx context.Context, weekID string) (string, error) {
	if s == nil {
		return "", nil
	}
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT doc_id FROM report_executions
		WHERE week_identifier = ? AND doc_id != ''
		ORDER BY CASE job_type WHEN 'preview' THEN 0 ELSE 1 END
		LIMIT 1`, weekID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query doc id: %w", err)
	}
	return id, nil
}

// History returns the most recent executions, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]Execution, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT week_identifier, job_type, status, doc_id, doc_url, error_message, details, executed_at
		FROM report_executions
		ORDER BY executed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		var e Execution
		var details string
		var at int64
		if err := rows.Scan(&e.WeekID, &e.JobType, &e.Status, &e.DocID, &e.DocURL, &e.Error, &details, &at); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		if details != "" && details != "{}" {
			_ = json.Unmarshal([]byte(details), &e.Details)
		}
		e.ExecutedAt = time.Unix(at, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// CleanupOlderThan removes executions older than the cutoff and returns
// the number deleted.
func (s *Store) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM report_executions WHERE executed_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	return res.RowsAffected()
}

// WeekID is the ISO week identifier used to key execution rows, e.g.
// "2026-W35".
func WeekID(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
