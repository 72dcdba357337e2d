package tags

import (
	"fmt"
	"strings"
)

// Kind classifies a tag.
type Kind int

const (
	Function Kind = iota + 1
	Method
	Class
	Module
	Interface
	Call
)

var kindNames = map[Kind]string{
	Function:  "Function",
	Method:    "Method",
	Class:     "Class",
	Module:    "Module",
	Interface: "Interface",
	Call:      "Call",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name so JSON output stays readable.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("tags: invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// ParseKind returns the kind named s, ignoring case.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, true
		}
	}
	return 0, false
}

// captureKind maps a kind capture name to its tag kind. Names may carry a
// "definition." or "reference." prefix; without one, every kind except Call
// is a definition.
func captureKind(name string) (kind Kind, definition bool, ok bool) {
	switch {
	case strings.HasPrefix(name, "definition."):
		name, definition = strings.TrimPrefix(name, "definition."), true
	case strings.HasPrefix(name, "reference."):
		name = strings.TrimPrefix(name, "reference.")
	default:
		definition = name != "call"
	}
	if name == "" || strings.ToLower(name) != name {
		return 0, false, false
	}
	kind, ok = ParseKind(name)
	return kind, definition, ok
}

// IsKindCapture reports whether a capture name classifies a match.
func IsKindCapture(name string) bool {
	_, _, ok := captureKind(name)
	return ok
}

// Range is a half-open byte range into the source.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Point is a zero-based row and byte column.
type Point struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Tag is one symbol occurrence.
type Tag struct {
	Kind         Kind
	IsDefinition bool

	// NameRange covers the name, LineRange the source line containing the
	// start of the name (without its newline) and Span the whole construct.
	NameRange Range
	LineRange Range
	Span      Range

	// StartPoint is the position of the name.
	StartPoint Point

	// Docs is nil when the construct has no documentation.
	Docs *string
}

// Name returns the tag's name text.
func (t Tag) Name(source []byte) string {
	return string(source[t.NameRange.Start:t.NameRange.End])
}

// Line returns the text of the line containing the tag's name.
func (t Tag) Line(source []byte) string {
	return string(source[t.LineRange.Start:t.LineRange.End])
}

// DocText returns the tag's docs, or "" when there are none.
func (t Tag) DocText() string {
	if t.Docs == nil {
		return ""
	}
	return *t.Docs
}
