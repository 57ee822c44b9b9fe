package collect

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Snapshot is everything collected for one report cycle. Errors holds
// per-source failure notes; callers decide whether partial data is
// enough to proceed.
type Snapshot struct {
	CollectedAt time.Time    `json:"collected_at"`
	Boards      []*BoardData `json:"boards"`
	Sheets      []*SheetData `json:"sheets"`
	Errors      []string     `json:"errors,omitempty"`
}

// Empty reports whether no source produced any data at all.
func (s *Snapshot) Empty() bool {
	return len(s.Boards) == 0 && len(s.Sheets) == 0
}

// Collector aggregates all configured sources into a Snapshot.
type Collector struct {
	jira     *JiraClient
	sheets   *SheetsClient
	boards   []string
	sheetIDs []string
	log      *slog.Logger
}

func NewCollector(jira *JiraClient, sheets *SheetsClient, boards, sheetIDs []string, log *slog.Logger) *Collector {
	return &Collector{
		jira:     jira,
		sheets:   sheets,
		boards:   boards,
		sheetIDs: sheetIDs,
		log:      log,
	}
}

// CollectAll fetches every configured board and spreadsheet. Failures
// are recorded in the snapshot and logged; collection keeps going so a
// single bad source does not empty the report.
func (c *Collector) CollectAll(ctx context.Context) *Snapshot {
	snap := &Snapshot{CollectedAt: time.Now().UTC()}

	for _, board := range c.boards {
		data, err := c.jira.CollectBoard(ctx, board)
		if err != nil {
			c.log.Warn("board collection failed", "board", board, "error", err)
			snap.Errors = append(snap.Errors, fmt.Sprintf("jira board %s: %v", board, err))
			continue
		}
		snap.Boards = append(snap.Boards, data)
		c.log.Info("board collected", "board", board, "issues", data.Stats.Total)
	}

	for _, id := range c.sheetIDs {
		data, err := c.sheets.CollectSheet(ctx, id)
		if err != nil {
			c.log.Warn("sheet collection failed", "sheet_id", id, "error", err)
			snap.Errors = append(snap.Errors, fmt.Sprintf("sheet %s: %v", id, err))
			continue
		}
		snap.Sheets = append(snap.Sheets, data)
		c.log.Info("sheet collected", "sheet", data.Title, "tabs", len(data.Tabs))
	}

	return snap
}
