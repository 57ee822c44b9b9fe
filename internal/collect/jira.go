// Package collect gathers the raw inputs for the weekly report: issue
// activity from Jira boards and tracker tabs from Google Sheets. Each
// source degrades independently; a collection error is recorded, not
// fatal, because a report built from partial data still beats no
// report.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// JiraClient talks to the Jira Cloud REST API with basic auth.
type JiraClient struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
}

func NewJiraClient(baseURL, email, apiToken string) *JiraClient {
	return &JiraClient{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		email:    email,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Issue is the slice of an issue the report cares about.
type Issue struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
}

// BoardStats summarizes one board's week.
type BoardStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Blocked    int `json:"blocked"`
}

// BoardData is the collected state of one board.
type BoardData struct {
	Board  string     `json:"board"`
	Stats  BoardStats `json:"stats"`
	Issues []Issue    `json:"issues"`
}

// CollectBoard fetches issues updated in the trailing week for one
// board (project key) and derives status counts.
func (c *JiraClient) CollectBoard(ctx context.Context, board string) (*BoardData, error) {
	jql := fmt.Sprintf("project = %q AND updated >= -7d ORDER BY updated DESC", board)
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("maxResults", "50")
	q.Set("fields", "summary,status")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/api/3/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.SetBasicAuth(c.email, c.apiToken)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("jira search %s: status %d: %s", board, resp.StatusCode, respBody)
	}

	var result struct {
		Issues []struct {
			Key    string `json:"key"`
			Fields struct {
				Summary string `json:"summary"`
				Status  struct {
					Name string `json:"name"`
				} `json:"status"`
			} `json:"fields"`
		} `json:"issues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode jira search: %w", err)
	}

	data := &BoardData{Board: board}
	for _, raw := range result.Issues {
		issue := Issue{Key: raw.Key, Summary: raw.Fields.Summary, Status: raw.Fields.Status.Name}
		data.Issues = append(data.Issues, issue)
		data.Stats.Total++
		switch ClassifyStatus(issue.Status) {
		case StatusCompleted:
			data.Stats.Completed++
		case StatusBlocked:
			data.Stats.Blocked++
		case StatusInProgress:
			data.Stats.InProgress++
		}
	}
	return data, nil
}

// Close releases resources.
func (c *JiraClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// StatusClass buckets raw Jira status names for the weekly stats.
type StatusClass int

const (
	StatusOther StatusClass = iota
	StatusCompleted
	StatusInProgress
	StatusBlocked
)

// ClassifyStatus maps a Jira status name to its report bucket. Matching
// is substring-based because boards rename statuses freely.
func ClassifyStatus(status string) StatusClass {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "block"):
		return StatusBlocked
	case s == "done" || s == "closed" || s == "resolved" || strings.Contains(s, "complete"):
		return StatusCompleted
	case strings.Contains(s, "progress") || strings.Contains(s, "review"):
		return StatusInProgress
	default:
		return StatusOther
	}
}
