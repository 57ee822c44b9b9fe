package generate

import (
	"embed"
	"fmt"
	"strings"

	"github.com/dgallion1/weeklyreport/internal/collect"
)

//go:embed prompts/*.txt
var promptFS embed.FS

const issuesPerBoard = 5

// loadPrompt reads an embedded template and drops its # comment lines.
func loadPrompt(name string) (string, error) {
	raw, err := promptFS.ReadFile("prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n")), nil
}

// buildPrompt substitutes the formatted snapshot into a template.
func buildPrompt(name string, snap *collect.Snapshot) (string, error) {
	tmpl, err := loadPrompt(name)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(tmpl, "{{DATA}}", formatSnapshot(snap)), nil
}

// formatSnapshot renders the collected data as plain text for the
// model. Issue lists are capped so a busy board cannot blow the token
// budget.
func formatSnapshot(snap *collect.Snapshot) string {
	var b strings.Builder
	b.WriteString("=== COLLECTED DATA ===\n")

	for _, board := range snap.Boards {
		fmt.Fprintf(&b, "\nJira board %s: %d issues updated this week (%d completed, %d in progress, %d blocked)\n",
			board.Board, board.Stats.Total, board.Stats.Completed, board.Stats.InProgress, board.Stats.Blocked)
		issues := board.Issues
		if len(issues) > issuesPerBoard {
			issues = issues[:issuesPerBoard]
		}
		for _, issue := range issues {
			fmt.Fprintf(&b, "  %s [%s] %s\n", issue.Key, issue.Status, issue.Summary)
		}
	}

	for _, sheet := range snap.Sheets {
		fmt.Fprintf(&b, "\nSpreadsheet %q:\n", sheet.Title)
		for _, tab := range sheet.Tabs {
			fmt.Fprintf(&b, "  tab %q: %d rows x %d columns", tab.Title, tab.RowCount, tab.ColumnCount)
			if len(tab.Headers) > 0 {
				fmt.Fprintf(&b, ", headers: %s", strings.Join(tab.Headers, " | "))
			}
			b.WriteString("\n")
			for _, row := range tab.SampleRows {
				fmt.Fprintf(&b, "    %s\n", strings.Join(row, " | "))
			}
		}
	}

	if len(snap.Errors) > 0 {
		b.WriteString("\nCollection warnings (some sources unavailable):\n")
		for _, e := range snap.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	return b.String()
}
