package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/weeklyreport/internal/collect"
)

const systemPrompt = "You are a precise technical writer producing weekly status reports. You write clean markdown and never fabricate data."

// Completer is the slice of the OpenAI client the generator needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator produces the report narrative from a snapshot.
type Generator struct {
	client Completer
	log    *slog.Logger
}

func NewGenerator(client Completer, log *slog.Logger) *Generator {
	return &Generator{client: client, log: log}
}

// GenerateReport builds the summary and insights sections and joins
// them into one markdown narrative.
func (g *Generator) GenerateReport(ctx context.Context, snap *collect.Snapshot) (string, error) {
	if snap == nil || snap.Empty() {
		return "", fmt.Errorf("no collected data to report on")
	}

	summary, err := g.section(ctx, "summary.txt", snap)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	insights, err := g.section(ctx, "insights.txt", snap)
	if err != nil {
		return "", fmt.Errorf("generate insights: %w", err)
	}

	return summary + "\n\n---\n\n" + insights + "\n", nil
}

func (g *Generator) section(ctx context.Context, template string, snap *collect.Snapshot) (string, error) {
	prompt, err := buildPrompt(template, snap)
	if err != nil {
		return "", err
	}
	g.log.Info("requesting narrative section", "template", template, "prompt_bytes", len(prompt))
	text, err := g.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
