package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// StyleKind is the formatting applied by a StyleOp.
type StyleKind int

const (
	StyleHeading2 StyleKind = iota
	StyleHeading3
	StyleBold
)

func (k StyleKind) String() string {
	switch k {
	case StyleHeading2:
		return "heading2"
	case StyleHeading3:
		return "heading3"
	case StyleBold:
		return "bold"
	}
	return "unknown"
}

// StyleOp is a formatting range relative to the start of the planned
// rendered text, in byte offsets. End is exclusive. Consumers
// addressing a UTF-16 index space convert at translation time.
type StyleOp struct {
	Start int
	End   int
	Kind  StyleKind
}

// TableJob is a deferred table insertion. Marker appears exactly once,
// on its own line, in the rendered text; the mutator later replaces
// that line with a real table holding Rows.
type TableJob struct {
	Marker string
	Rows   [][]string
}

// PlannedDocument is the pure output of planning: one flat text blob
// plus formatting ranges and table jobs, all relative to RenderedText.
// The caller translates to absolute document offsets at insertion time.
type PlannedDocument struct {
	RenderedText string
	StyleOps     []StyleOp
	TableJobs    []TableJob
}

// teamLineRe is a secondary heading convention: bare "Team: X" lines
// are styled as level-2 headings even when they arrive without '#'
// markers. Detected over the final rendered text, not per segment.
var teamLineRe = regexp.MustCompile(`^Team:\s+\S`)

// Plan walks the segment sequence and produces the rendered text,
// relative style ops, and ordered table jobs.
func Plan(segments []Segment) *PlannedDocument {
	var (
		sb       strings.Builder
		ops      []StyleOp
		jobs     []TableJob
		tableSeq int
	)

	for _, seg := range segments {
		switch seg.Kind {
		case KindHeader:
			start := sb.Len()
			sb.WriteString(seg.Text)
			kind := StyleHeading2
			if seg.Level == 3 {
				kind = StyleHeading3
			}
			ops = append(ops, StyleOp{Start: start, End: sb.Len(), Kind: kind})
			sb.WriteByte('\n')

		case KindBoldRun:
			for _, span := range seg.Spans {
				start := sb.Len()
				sb.WriteString(span.Text)
				if span.Bold {
					ops = append(ops, StyleOp{Start: start, End: sb.Len(), Kind: StyleBold})
				}
			}
			sb.WriteByte('\n')

		case KindPlainLine:
			sb.WriteString(seg.Text)
			sb.WriteByte('\n')

		case KindRule:
			// Filtered upstream; kept as a no-op in case a caller
			// hands us unfiltered segments.

		case KindTableBlock:
			if len(seg.Rows) == 0 {
				continue
			}
			tableSeq++
			marker := fmt.Sprintf("[[table:%d]]", tableSeq)
			sb.WriteString(marker)
			sb.WriteByte('\n')
			jobs = append(jobs, TableJob{Marker: marker, Rows: seg.Rows})
		}
	}

	doc := &PlannedDocument{
		RenderedText: sb.String(),
		StyleOps:     ops,
		TableJobs:    jobs,
	}
	doc.StyleOps = append(doc.StyleOps, teamHeadingOps(doc.RenderedText, doc.StyleOps)...)
	return doc
}

// teamHeadingOps scans the assembled text for bare "Team:" lines and
// returns Heading2 ops for any that aren't already heading-styled.
func teamHeadingOps(text string, existing []StyleOp) []StyleOp {
	styled := make(map[int]bool, len(existing))
	for _, op := range existing {
		if op.Kind == StyleHeading2 || op.Kind == StyleHeading3 {
			styled[op.Start] = true
		}
	}

	var ops []StyleOp
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		if teamLineRe.MatchString(line) && !styled[offset] {
			ops = append(ops, StyleOp{Start: offset, End: offset + len(line), Kind: StyleHeading2})
		}
		offset += len(line) + 1
	}
	return ops
}
