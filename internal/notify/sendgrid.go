// Package notify delivers report emails through the SendGrid v3 API.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

// SendGridClient sends mail through the SendGrid v3 REST API.
type SendGridClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewSendGridClient(apiKey string) *SendGridClient {
	return &SendGridClient{
		apiKey:  apiKey,
		baseURL: defaultSendGridBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgAttachment struct {
	Content     string `json:"content"`
	Type        string `json:"type"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
	Attachments      []sgAttachment      `json:"attachments,omitempty"`
}

// Message is one outgoing email.
type Message struct {
	Recipients []string
	Subject    string
	Markdown   string

	// Optional PDF attachment.
	PDFName string
	PDF     []byte
}

// Send renders the message body and posts it to SendGrid. The markdown
// body is sent both as plain text and as rendered HTML.
func (c *SendGridClient) Send(ctx context.Context, from sgAddress, msg Message) error {
	if len(msg.Recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	html, err := RenderHTML(msg.Markdown)
	if err != nil {
		return fmt.Errorf("render html body: %w", err)
	}

	to := make([]sgAddress, 0, len(msg.Recipients))
	for _, r := range msg.Recipients {
		to = append(to, sgAddress{Email: r})
	}
	req := sgRequest{
		Personalizations: []sgPersonalization{{To: to}},
		From:             from,
		Subject:          msg.Subject,
		Content: []sgContent{
			{Type: "text/plain", Value: msg.Markdown},
			{Type: "text/html", Value: html},
		},
	}
	if len(msg.PDF) > 0 {
		req.Attachments = []sgAttachment{{
			Content:     base64.StdEncoding.EncodeToString(msg.PDF),
			Type:        "application/pdf",
			Filename:    msg.PDFName,
			Disposition: "attachment",
		}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sendgrid api: %w", err)
	}
	defer resp.Body.Close()

	// SendGrid answers 202 Accepted on success.
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// Close releases resources.
func (c *SendGridClient) Close() {
	c.httpClient.CloseIdleConnections()
}
