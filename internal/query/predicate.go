package query

import (
	"regexp"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"
)

// PredicateKind enumerates the predicate directives a query may use.
type PredicateKind int

const (
	// PredicateStrip removes every match of a regular expression from the
	// text of each segment bound to a capture.
	PredicateStrip PredicateKind = iota
	// PredicateSelectAdjacent keeps only the trailing run of a multi-capture
	// whose nodes sit on adjacent rows before the anchor capture.
	PredicateSelectAdjacent
	PredicateEq
	PredicateNotEq
	PredicateMatch
	PredicateNotMatch
)

func (k PredicateKind) String() string {
	switch k {
	case PredicateStrip:
		return "strip!"
	case PredicateSelectAdjacent:
		return "select-adjacent!"
	case PredicateEq:
		return "eq?"
	case PredicateNotEq:
		return "not-eq?"
	case PredicateMatch:
		return "match?"
	case PredicateNotMatch:
		return "not-match?"
	}
	return "unknown"
}

// Predicate is a compiled predicate directive. Other is the second capture
// argument, or -1 when the second argument is the string Text.
type Predicate struct {
	Kind    PredicateKind
	Capture int
	Other   int
	Text    string

	re *regexp.Regexp
}

// Evaluate applies the predicates of m's pattern in declaration order,
// rewriting m in place. It returns false when a filter predicate rejects the
// match; directives never reject.
func (q *Query) Evaluate(m *Match, source []byte) bool {
	for _, pred := range q.patterns[m.Pattern].predicates {
		switch pred.Kind {
		case PredicateStrip:
			for i := range m.Captures {
				c := &m.Captures[i]
				if c.Index != pred.Capture {
					continue
				}
				c.text = pred.re.ReplaceAllString(c.Text(source), "")
				c.stripped = true
			}
		case PredicateSelectAdjacent:
			m.Captures = selectAdjacent(m.Captures, pred.Capture, pred.Other)
		case PredicateEq, PredicateNotEq:
			want := pred.Text
			if pred.Other >= 0 {
				other, ok := m.First(pred.Other)
				if !ok {
					continue
				}
				want = other.Node.Content(source)
			}
			if !m.all(pred.Capture, func(c Capture) bool {
				return (c.Node.Content(source) == want) == (pred.Kind == PredicateEq)
			}) {
				return false
			}
		case PredicateMatch, PredicateNotMatch:
			if !m.all(pred.Capture, func(c Capture) bool {
				return pred.re.MatchString(c.Node.Content(source)) == (pred.Kind == PredicateMatch)
			}) {
				return false
			}
		}
	}
	return true
}

// selectAdjacent drops the captures of id that are not part of the run of
// row-adjacent nodes ending right before the first node of anchor. Captures
// of id that follow the anchor are dropped too.
func selectAdjacent(caps []Capture, id, anchor int) []Capture {
	var anchorNode *sitter.Node
	for _, c := range caps {
		if c.Index == anchor {
			anchorNode = c.Node
			break
		}
	}
	if anchorNode == nil {
		return slices.DeleteFunc(caps, func(c Capture) bool { return c.Index == id })
	}

	keep := make(map[int]bool)
	startRow := anchorNode.StartPoint().Row
	for i := len(caps) - 1; i >= 0; i-- {
		c := caps[i]
		if c.Index != id {
			continue
		}
		if c.Node.EndByte() > anchorNode.StartByte() {
			continue
		}
		if c.Node.EndPoint().Row+1 < startRow {
			break
		}
		keep[i] = true
		startRow = c.Node.StartPoint().Row
	}

	out := caps[:0]
	for i, c := range caps {
		if c.Index == id && !keep[i] {
			continue
		}
		out = append(out, c)
	}
	return out
}
