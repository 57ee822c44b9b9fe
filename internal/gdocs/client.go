package gdocs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultDocsBaseURL = "https://docs.googleapis.com"

// Client communicates with the Google Docs API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Docs client over an authenticated HTTP client
// (normally oauth2.NewClient output). baseURL overrides the API host
// for tests; empty means production.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultDocsBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// GetDocument fetches the full document structure. The returned
// offsets are invalidated by any subsequent structural edit.
func (c *Client) GetDocument(ctx context.Context, docID string) (*Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/documents/"+docID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "get document "+docID); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// BatchUpdate applies an ordered batch of edit requests atomically.
func (c *Client) BatchUpdate(ctx context.Context, docID string, reqs []Request) error {
	if len(reqs) == 0 {
		return nil
	}
	body, err := json.Marshal(struct {
		Requests []Request `json:"requests"`
	}{Requests: reqs})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/documents/"+docID+":batchUpdate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "batch update "+docID); err != nil {
		return err
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// DocumentURL returns the human-editable link for a document.
func DocumentURL(docID string) string {
	return "https://docs.google.com/document/d/" + docID + "/edit"
}

// checkStatus converts non-2xx responses into errors, classifying
// rate-limit and server-side failures as retryable.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RateLimitError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s: %s", op, respBody),
		}
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, respBody)
}

// RateLimitError indicates a transient remote failure worth retrying
// with backoff.
type RateLimitError struct {
	StatusCode int
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
