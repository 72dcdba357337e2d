package query

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Capture binds a capture id to a matched node. A strip! directive replaces
// the capture's text while the node keeps its original range.
type Capture struct {
	Index int
	Node  *sitter.Node

	text     string
	stripped bool
}

// Text returns the capture's text: the stripped text when a strip! directive
// applied to it, the node's source text otherwise.
func (c Capture) Text(source []byte) string {
	if c.stripped {
		return c.text
	}
	return c.Node.Content(source)
}

// Match is one successful structural match. Anchor is the node bound by the
// pattern's kind capture.
type Match struct {
	Pattern  int
	Anchor   *sitter.Node
	Captures []Capture
}

// First returns the first capture bound to id.
func (m *Match) First(id int) (Capture, bool) {
	for _, c := range m.Captures {
		if c.Index == id {
			return c, true
		}
	}
	return Capture{}, false
}

func (m *Match) all(id int, fn func(Capture) bool) bool {
	for _, c := range m.Captures {
		if c.Index == id && !fn(c) {
			return false
		}
	}
	return true
}

type frame struct {
	node  *sitter.Node
	index int
}

// Cursor executes a Query over a syntax tree, producing matches in pre-order
// of their anchoring node. For a single node, candidate patterns are tried in
// declaration order and each (pattern, node) pair is tried at most once.
//
// A Cursor is not safe for concurrent use. Exec may be called any number of
// times; each call discards all state from the previous run.
type Cursor struct {
	q    *Query
	root *sitter.Node

	frames  []frame
	started bool
	cands   []int
	candPos int

	// matching scratch, reused across attempts
	caps    []Capture
	arena   []*sitter.Node
	pinPath []int
	pinKids []int

	match Match
}

// NewCursor returns an idle Cursor.
func NewCursor() *Cursor {
	return &Cursor{}
}

// Exec starts matching q against the tree below root.
func (c *Cursor) Exec(q *Query, root *sitter.Node) {
	c.q = q
	c.root = root
	c.frames = c.frames[:0]
	c.started = false
	c.cands = c.cands[:0]
	c.candPos = 0
	c.caps = c.caps[:0]
	c.arena = c.arena[:0]
	c.match = Match{Captures: c.match.Captures[:0]}
}

// NextMatch returns the next match. The returned Match and its captures are
// only valid until the next call to NextMatch or Exec.
func (c *Cursor) NextMatch() (*Match, bool) {
	if c.q == nil || c.root == nil {
		return nil, false
	}
	if !c.started {
		c.started = true
		c.push(c.root, 0)
	}
	for len(c.frames) > 0 {
		for c.candPos < len(c.cands) {
			pi := c.cands[c.candPos]
			c.candPos++
			if c.try(pi) {
				return &c.match, true
			}
		}
		c.advance()
	}
	return nil, false
}

// SkipAnchor discards the patterns not yet tried on the anchoring node of the
// last match. Traversal continues with the node's descendants.
func (c *Cursor) SkipAnchor() {
	c.candPos = len(c.cands)
}

func (c *Cursor) push(n *sitter.Node, index int) {
	c.frames = append(c.frames, frame{node: n, index: index})
	c.cands = c.q.candidates(n.Type(), c.cands[:0])
	c.candPos = 0
}

// advance moves to the next node in pre-order, or empties the frame stack
// when the traversal is over.
func (c *Cursor) advance() {
	top := c.frames[len(c.frames)-1]
	if top.node.ChildCount() > 0 {
		c.push(top.node.Child(0), 0)
		return
	}
	for len(c.frames) > 1 {
		f := c.frames[len(c.frames)-1]
		c.frames = c.frames[:len(c.frames)-1]
		parent := c.frames[len(c.frames)-1].node
		if next := f.index + 1; next < int(parent.ChildCount()) {
			c.push(parent.Child(next), next)
			return
		}
	}
	c.frames = c.frames[:0]
	c.cands = c.cands[:0]
	c.candPos = 0
}

// try matches pattern pi rooted at the ancestor of the current node that
// makes the current node the pattern's anchor.
func (c *Cursor) try(pi int) bool {
	pat := c.q.patterns[pi]
	depth := len(pat.anchorPath)
	base := len(c.frames) - 1 - depth
	if base < 0 {
		return false
	}

	c.pinPath = pat.anchorPath
	c.pinKids = c.pinKids[:0]
	for k := 0; k < depth; k++ {
		c.pinKids = append(c.pinKids, c.frames[base+k+1].index)
	}
	c.caps = c.caps[:0]
	c.arena = c.arena[:0]

	if !c.matchNode(pat.root, c.frames[base].node, 0) {
		return false
	}
	c.match.Pattern = pi
	c.match.Anchor = c.frames[len(c.frames)-1].node
	c.match.Captures = append(c.match.Captures[:0], c.caps...)
	return true
}
