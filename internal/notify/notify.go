package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/yuin/goldmark"
)

// Mailer is the slice of the SendGrid client the notifier needs.
type Mailer interface {
	Send(ctx context.Context, from sgAddress, msg Message) error
}

// Notifier composes and sends the report lifecycle emails.
type Notifier struct {
	mailer            Mailer
	from              sgAddress
	previewRecipients []string
	finalRecipients   []string
	log               *slog.Logger
}

func NewNotifier(mailer Mailer, fromEmail, fromName string, preview, final []string, log *slog.Logger) *Notifier {
	return &Notifier{
		mailer:            mailer,
		from:              sgAddress{Email: fromEmail, Name: fromName},
		previewRecipients: preview,
		finalRecipients:   final,
		log:               log,
	}
}

// SendPreview announces a draft report with a link to the document.
func (n *Notifier) SendPreview(ctx context.Context, title, docURL string) error {
	body := fmt.Sprintf(
		"## Draft ready for review\n\nThe draft of **%s** is ready.\n\nReview and edit it here: %s\n\nThe final version goes out after the review window closes.\n",
		title, docURL)
	return n.send(ctx, Message{
		Recipients: n.previewRecipients,
		Subject:    "[Draft] " + title,
		Markdown:   body,
	})
}

// SendFinal delivers the finished report with the PDF attached.
func (n *Notifier) SendFinal(ctx context.Context, title, docURL string, pdf []byte) error {
	body := fmt.Sprintf(
		"## %s\n\nThe final report is attached as a PDF.\n\nThe live document remains available here: %s\n",
		title, docURL)
	return n.send(ctx, Message{
		Recipients: n.finalRecipients,
		Subject:    title,
		Markdown:   body,
		PDFName:    title + ".pdf",
		PDF:        pdf,
	})
}

// SendError alerts the preview list that a run failed.
func (n *Notifier) SendError(ctx context.Context, jobType string, runErr error) error {
	body := fmt.Sprintf(
		"## Report run failed\n\nThe **%s** run did not complete:\n\n```\n%v\n```\n\nCheck the service logs and re-trigger the run once the cause is fixed.\n",
		jobType, runErr)
	return n.send(ctx, Message{
		Recipients: n.previewRecipients,
		Subject:    fmt.Sprintf("[Failed] weekly report %s run", jobType),
		Markdown:   body,
	})
}

func (n *Notifier) send(ctx context.Context, msg Message) error {
	if err := n.mailer.Send(ctx, n.from, msg); err != nil {
		return err
	}
	n.log.Info("email sent", "subject", msg.Subject, "recipients", len(msg.Recipients), "attachment", len(msg.PDF) > 0)
	return nil
}

// RenderHTML converts a markdown body to HTML for the email's rich
// part.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
