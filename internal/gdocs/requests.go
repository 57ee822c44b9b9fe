package gdocs

// Request is one edit operation in a batchUpdate call. Exactly one
// field is set.
type Request struct {
	InsertText           *InsertTextRequest           `json:"insertText,omitempty"`
	DeleteContentRange   *DeleteContentRangeRequest   `json:"deleteContentRange,omitempty"`
	InsertTable          *InsertTableRequest          `json:"insertTable,omitempty"`
	UpdateParagraphStyle *UpdateParagraphStyleRequest `json:"updateParagraphStyle,omitempty"`
	UpdateTextStyle      *UpdateTextStyleRequest      `json:"updateTextStyle,omitempty"`
}

// Location is an absolute insertion point.
type Location struct {
	Index int64 `json:"index"`
}

// Range is a half-open [start, end) span of absolute offsets.
type Range struct {
	StartIndex int64 `json:"startIndex"`
	EndIndex   int64 `json:"endIndex"`
}

type InsertTextRequest struct {
	Location Location `json:"location"`
	Text     string   `json:"text"`
}

type DeleteContentRangeRequest struct {
	Range Range `json:"range"`
}

type InsertTableRequest struct {
	Location Location `json:"location"`
	Rows     int      `json:"rows"`
	Columns  int      `json:"columns"`
}

type ParagraphStyle struct {
	NamedStyleType string `json:"namedStyleType"`
}

type UpdateParagraphStyleRequest struct {
	Range          Range          `json:"range"`
	ParagraphStyle ParagraphStyle `json:"paragraphStyle"`
	Fields         string         `json:"fields"`
}

type UpdateTextStyleRequest struct {
	Range     Range     `json:"range"`
	TextStyle TextStyle `json:"textStyle"`
	Fields    string    `json:"fields"`
}

// InsertText builds a text insertion at an absolute offset.
func InsertText(at int64, text string) Request {
	return Request{InsertText: &InsertTextRequest{Location: Location{Index: at}, Text: text}}
}

// DeleteRange builds a content deletion over [start, end).
func DeleteRange(start, end int64) Request {
	return Request{DeleteContentRange: &DeleteContentRangeRequest{Range: Range{StartIndex: start, EndIndex: end}}}
}

// InsertTable builds an empty rows x cols table insertion.
func InsertTable(at int64, rows, cols int) Request {
	return Request{InsertTable: &InsertTableRequest{Location: Location{Index: at}, Rows: rows, Columns: cols}}
}

// SetParagraphStyle builds a named-style application over [start, end).
func SetParagraphStyle(start, end int64, namedStyle string) Request {
	return Request{UpdateParagraphStyle: &UpdateParagraphStyleRequest{
		Range:          Range{StartIndex: start, EndIndex: end},
		ParagraphStyle: ParagraphStyle{NamedStyleType: namedStyle},
		Fields:         "namedStyleType",
	}}
}

// SetBold builds a bold text-style application over [start, end).
func SetBold(start, end int64) Request {
	return Request{UpdateTextStyle: &UpdateTextStyleRequest{
		Range:     Range{StartIndex: start, EndIndex: end},
		TextStyle: TextStyle{Bold: true},
		Fields:    "bold",
	}}
}
