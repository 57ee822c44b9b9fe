package markdown

import (
	"regexp"
	"strings"
)

var (
	headerRe    = regexp.MustCompile(`^(#{2,3})\s+(.+)`)
	ruleRe      = regexp.MustCompile(`^-{3,}\s*$`)
	separatorRe = regexp.MustCompile(`^\|[\s\-:|]+\|`)
	boldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Tokenize splits narrative text into an ordered sequence of segments.
// It never fails: anything that doesn't match a known shape degrades to
// a plain line, which renders slightly wrong formatting instead of
// aborting the report.
func Tokenize(text string) []Segment {
	lines := strings.Split(text, "\n")
	var segs []Segment

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		// Horizontal rules are dropped entirely, never rendered.
		if ruleRe.MatchString(strings.TrimSpace(line)) {
			segs = append(segs, Segment{Kind: KindRule})
			continue
		}

		if m := headerRe.FindStringSubmatch(line); m != nil {
			segs = append(segs, Segment{
				Kind:  KindHeader,
				Level: len(m[1]),
				Text:  m[2],
			})
			continue
		}

		// A table starts at a pipe-bearing line whose immediate
		// successor is a separator row.
		if strings.Contains(line, "|") && i+1 < len(lines) && separatorRe.MatchString(lines[i+1]) {
			rows := [][]string{parseTableRow(line)}
			j := i + 2 // separator consumed, not stored
			for ; j < len(lines); j++ {
				next := lines[j]
				if strings.TrimSpace(next) == "" || !strings.Contains(next, "|") {
					break
				}
				rows = append(rows, parseTableRow(next))
			}
			segs = append(segs, Segment{Kind: KindTableBlock, Rows: rows})
			i = j - 1
			continue
		}

		segs = append(segs, tokenizeInline(line))
	}

	return segs
}

// tokenizeInline scans one line for **bold** spans.
func tokenizeInline(line string) Segment {
	matches := boldRe.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return Segment{Kind: KindPlainLine, Text: line}
	}

	var spans []Span
	last := 0
	for _, m := range matches {
		if m[0] > last {
			spans = append(spans, Span{Text: line[last:m[0]]})
		}
		spans = append(spans, Span{Text: line[m[2]:m[3]], Bold: true})
		last = m[1]
	}
	if last < len(line) {
		spans = append(spans, Span{Text: line[last:]})
	}
	return Segment{Kind: KindBoldRun, Spans: spans}
}

// parseTableRow splits a pipe-delimited row into trimmed cells,
// dropping the empty boundary cells produced by leading/trailing pipes.
func parseTableRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
