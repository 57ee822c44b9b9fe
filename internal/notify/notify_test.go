package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeMailer struct {
	sent []Message
	from sgAddress
	err  error
}

func (f *fakeMailer) Send(_ context.Context, from sgAddress, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.from = from
	f.sent = append(f.sent, msg)
	return nil
}

func testNotifier(m Mailer) *Notifier {
	return NewNotifier(m, "reports@example.com", "Weekly Reports",
		[]string{"lead@example.com"},
		[]string{"team@example.com", "exec@example.com"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("## Title\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(html, "<h2") || !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("unexpected html: %q", html)
	}
}

func TestSendPreview(t *testing.T) {
	m := &fakeMailer{}
	n := testNotifier(m)
	err := n.SendPreview(context.Background(), "Weekly Product Team Report 10/29/25", "https://docs.google.com/document/d/abc/edit")
	if err != nil {
		t.Fatalf("SendPreview: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(m.sent))
	}
	msg := m.sent[0]
	if msg.Subject != "[Draft] Weekly Product Team Report 10/29/25" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if len(msg.Recipients) != 1 || msg.Recipients[0] != "lead@example.com" {
		t.Errorf("recipients = %v", msg.Recipients)
	}
	if !strings.Contains(msg.Markdown, "https://docs.google.com/document/d/abc/edit") {
		t.Error("body missing doc link")
	}
	if len(msg.PDF) != 0 {
		t.Error("preview must not carry an attachment")
	}
	if m.from.Email != "reports@example.com" {
		t.Errorf("from = %+v", m.from)
	}
}

func TestSendFinal_AttachesPDF(t *testing.T) {
	m := &fakeMailer{}
	n := testNotifier(m)
	pdf := []byte("%PDF-1.4 fake")
	err := n.SendFinal(context.Background(), "Weekly Product Team Report 10/29/25", "https://docs.google.com/document/d/abc/edit", pdf)
	if err != nil {
		t.Fatalf("SendFinal: %v", err)
	}
	msg := m.sent[0]
	if len(msg.Recipients) != 2 {
		t.Errorf("recipients = %v", msg.Recipients)
	}
	if msg.PDFName != "Weekly Product Team Report 10/29/25.pdf" {
		t.Errorf("pdf name = %q", msg.PDFName)
	}
	if string(msg.PDF) != "%PDF-1.4 fake" {
		t.Error("attachment bytes altered")
	}
}

func TestSendError(t *testing.T) {
	m := &fakeMailer{}
	n := testNotifier(m)
	if err := n.SendError(context.Background(), "final", errors.New("pdf export failed")); err != nil {
		t.Fatalf("SendError: %v", err)
	}
	msg := m.sent[0]
	if !strings.Contains(msg.Subject, "[Failed]") {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Markdown, "pdf export failed") {
		t.Error("body missing failure reason")
	}
}
