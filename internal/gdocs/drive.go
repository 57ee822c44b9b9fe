package gdocs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultDriveBaseURL = "https://www.googleapis.com"
	docMimeType         = "application/vnd.google-apps.document"
)

// DriveClient communicates with the Google Drive API for file search,
// creation, and export.
type DriveClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDriveClient builds a Drive client over an authenticated HTTP
// client. baseURL overrides the API host for tests; empty means
// production.
func NewDriveClient(httpClient *http.Client, baseURL string) *DriveClient {
	if baseURL == "" {
		baseURL = defaultDriveBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &DriveClient{baseURL: baseURL, httpClient: httpClient}
}

// FindDocument returns the ID of the first non-trashed document with
// exactly the given title under the parent folder, or "" if none
// exists. Trashed files are excluded in the query itself: a previously
// deleted same-titled report must never be treated as live.
func (c *DriveClient) FindDocument(ctx context.Context, title, folderID string) (string, error) {
	terms := []string{
		fmt.Sprintf("name=%s", quoteQueryString(title)),
		fmt.Sprintf("mimeType='%s'", docMimeType),
		"trashed=false",
	}
	if folderID != "" {
		terms = append(terms, fmt.Sprintf("%s in parents", quoteQueryString(folderID)))
	}

	q := url.Values{}
	q.Set("q", strings.Join(terms, " and "))
	q.Set("fields", "files(id,name)")
	q.Set("supportsAllDrives", "true")
	q.Set("includeItemsFromAllDrives", "true")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drive/v3/files?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("find document: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "find document"); err != nil {
		return "", err
	}

	var result struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode file list: %w", err)
	}
	if len(result.Files) == 0 {
		return "", nil
	}
	return result.Files[0].ID, nil
}

// CreateDocument creates an empty document titled title directly under
// the parent folder, or in the Drive root when folderID is empty.
func (c *DriveClient) CreateDocument(ctx context.Context, title, folderID string) (string, error) {
	meta := map[string]any{
		"name":     title,
		"mimeType": docMimeType,
	}
	if folderID != "" {
		meta["parents"] = []string{folderID}
	}
	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal file metadata: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/drive/v3/files?supportsAllDrives=true", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "create document"); err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode created file: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create document: response missing file id")
	}
	return created.ID, nil
}

// ExportPDF downloads the document rendered as PDF.
func (c *DriveClient) ExportPDF(ctx context.Context, fileID string) ([]byte, error) {
	q := url.Values{}
	q.Set("mimeType", "application/pdf")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drive/v3/files/"+fileID+"/export?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "export pdf "+fileID); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read pdf export: %w", err)
	}
	return data, nil
}

// Close releases resources.
func (c *DriveClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// quoteQueryString wraps a value in single quotes for a Drive search
// query, escaping embedded quotes and backslashes.
func quoteQueryString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
