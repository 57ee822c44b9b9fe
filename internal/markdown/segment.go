// Package markdown tokenizes the narrative subset emitted by the report
// generator and plans its conversion into rich-document edits.
//
// This is deliberately not a CommonMark parser: the generator is known
// to emit only level-2/3 headers, **bold** spans, pipe tables and
// horizontal rules, and the conversion contract is defined in terms of
// those exact line shapes.
package markdown

// SegmentKind identifies the variant held by a Segment.
type SegmentKind int

const (
	KindPlainLine SegmentKind = iota
	KindHeader
	KindBoldRun
	KindRule
	KindTableBlock
)

// Span is one literal or bold stretch of a BoldRun line, in order.
type Span struct {
	Text string
	Bold bool
}

// Segment is a single tokenized unit of narrative text. Exactly the
// fields for its Kind are populated; order of segments is document
// reading order.
type Segment struct {
	Kind SegmentKind

	// Header
	Level int
	// Header, PlainLine
	Text string
	// BoldRun
	Spans []Span
	// TableBlock
	Rows [][]string
}
