package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultSheetsBaseURL = "https://sheets.googleapis.com"

// SheetsClient reads spreadsheet structure and values from the Google
// Sheets API over an authenticated HTTP client.
type SheetsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSheetsClient builds a Sheets client. baseURL overrides the API
// host for tests; empty means production.
func NewSheetsClient(httpClient *http.Client, baseURL string) *SheetsClient {
	if baseURL == "" {
		baseURL = defaultSheetsBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SheetsClient{baseURL: baseURL, httpClient: httpClient}
}

// TabData is the sampled content of one spreadsheet tab.
type TabData struct {
	Title       string     `json:"title"`
	Headers     []string   `json:"headers"`
	RowCount    int        `json:"row_count"`
	ColumnCount int        `json:"column_count"`
	SampleRows  [][]string `json:"sample_rows"`
}

// SheetData is the collected state of one spreadsheet.
type SheetData struct {
	Title string    `json:"title"`
	Tabs  []TabData `json:"tabs"`
}

// CollectSheet fetches a spreadsheet's tab list and samples each tab's
// leading rows.
func (c *SheetsClient) CollectSheet(ctx context.Context, sheetID string) (*SheetData, error) {
	title, tabs, err := c.fetchMetadata(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	data := &SheetData{Title: title}
	for _, tab := range tabs {
		values, err := c.fetchValues(ctx, sheetID, tab)
		if err != nil {
			// One unreadable tab should not sink the spreadsheet.
			continue
		}
		td := TabData{Title: tab, RowCount: len(values)}
		if len(values) > 0 {
			td.Headers = values[0]
			td.ColumnCount = len(values[0])
		}
		if len(values) > 1 {
			end := min(len(values), 3)
			td.SampleRows = values[1:end]
		}
		data.Tabs = append(data.Tabs, td)
	}
	return data, nil
}

func (c *SheetsClient) fetchMetadata(ctx context.Context, sheetID string) (string, []string, error) {
	q := url.Values{}
	q.Set("fields", "properties.title,sheets.properties.title")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v4/spreadsheets/"+sheetID+"?"+q.Encode(), nil)
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", nil, fmt.Errorf("get spreadsheet %s: status %d: %s", sheetID, resp.StatusCode, respBody)
	}

	var meta struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", nil, fmt.Errorf("decode spreadsheet: %w", err)
	}

	tabs := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		tabs = append(tabs, s.Properties.Title)
	}
	return meta.Properties.Title, tabs, nil
}

func (c *SheetsClient) fetchValues(ctx context.Context, sheetID, tab string) ([][]string, error) {
	rangeRef := url.PathEscape(fmt.Sprintf("'%s'!A1:Z50", tab))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v4/spreadsheets/"+sheetID+"/values/"+rangeRef, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get values: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("get values %s/%s: status %d: %s", sheetID, tab, resp.StatusCode, respBody)
	}

	var result struct {
		Values [][]any `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}

	rows := make([][]string, 0, len(result.Values))
	for _, raw := range result.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close releases resources.
func (c *SheetsClient) Close() {
	c.httpClient.CloseIdleConnections()
}
