package query

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// offPath marks a node pattern that is not on the path from the pattern root
// to the anchor.
const offPath = -1

// seq is the state of matching a parent's child patterns against its
// children.
type seq struct {
	parent   *sitter.Node
	kids     []*sitter.Node
	children []childPattern
	last     bool

	// pinned child pattern and the child index it must bind, or -1
	pinCI, pinKid int
	childLevel    int
}

// matchNode reports whether n satisfies np, recording captures on success.
// level is np's position on the anchor path, or offPath. On failure c.caps is
// left as it was.
func (c *Cursor) matchNode(np *nodePattern, n *sitter.Node, level int) bool {
	mark := len(c.caps)
	switch np.kind {
	case kindNamed:
		if !n.IsNamed() || n.Type() != np.typ {
			return false
		}
	case kindAnyNamed:
		if !n.IsNamed() {
			return false
		}
	case kindLiteral:
		if n.IsNamed() || n.Type() != np.typ {
			return false
		}
	case kindAlternation:
		matched := false
		for _, alt := range np.alts {
			if c.matchNode(alt, n, offPath) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, f := range np.negated {
		if n.ChildByFieldName(f) != nil {
			c.caps = c.caps[:mark]
			return false
		}
	}

	for _, id := range np.captures {
		c.caps = append(c.caps, Capture{Index: id, Node: n})
	}
	if len(np.children) == 0 {
		return true
	}

	base := len(c.arena)
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c.arena = append(c.arena, n.Child(i))
	}
	s := &seq{
		parent:     n,
		kids:       c.arena[base : base+count],
		children:   np.children,
		last:       np.anchorLast,
		pinCI:      -1,
		pinKid:     -1,
		childLevel: offPath,
	}
	if level != offPath && level < len(c.pinPath) {
		s.pinCI = c.pinPath[level]
		s.pinKid = c.pinKids[level]
		s.childLevel = level + 1
	}
	ok := c.seq(s, 0, 0, -1, np.children[0].anchored)
	c.arena = c.arena[:base]
	if !ok {
		c.caps = c.caps[:mark]
	}
	return ok
}

// seq matches child patterns ci.. against kids from index from on. last is
// the index of the most recently bound kid or -1; anch requires child
// pattern ci to bind the next eligible kid.
func (c *Cursor) seq(s *seq, ci, from, last int, anch bool) bool {
	if ci == len(s.children) {
		return !s.last || nextNamed(s.kids, from) == len(s.kids)
	}
	cp := s.children[ci]

	lo, hi := from, len(s.kids)
	if anch {
		lo = nextEligible(s.kids, from, cp.node.named())
		hi = min(lo+1, len(s.kids))
	}
	level := offPath
	switch {
	case ci == s.pinCI:
		if s.pinKid < lo || s.pinKid >= hi {
			return false
		}
		lo, hi = s.pinKid, s.pinKid+1
		level = s.childLevel
	case ci < s.pinCI:
		hi = min(hi, s.pinKid)
	}

	for i := lo; i < hi; i++ {
		mark := len(c.caps)
		if !c.bind(s, cp, i, level) {
			continue
		}
		var ok bool
		if cp.node.quant.repeats() {
			ok = c.repeat(s, ci, i)
		} else {
			ok = c.next(s, ci, i)
		}
		if ok {
			return true
		}
		c.caps = c.caps[:mark]
	}

	if cp.node.quant.allowsZero() {
		nextAnch := anch
		if ci+1 < len(s.children) {
			nextAnch = anch || (s.children[ci+1].anchored && last >= 0)
		}
		return c.seq(s, ci+1, from, last, nextAnch)
	}
	return false
}

// repeat extends a repetition whose latest binding is kid i over the
// following consecutive siblings, longest first.
func (c *Cursor) repeat(s *seq, ci, i int) bool {
	cp := s.children[ci]
	if j := nextEligible(s.kids, i+1, cp.node.named()); j < len(s.kids) {
		if s.pinCI < 0 || ci > s.pinCI || j < s.pinKid {
			mark := len(c.caps)
			if c.bind(s, cp, j, offPath) {
				if c.repeat(s, ci, j) {
					return true
				}
				c.caps = c.caps[:mark]
			}
		}
	}
	return c.next(s, ci, i)
}

func (c *Cursor) next(s *seq, ci, i int) bool {
	nextAnch := ci+1 < len(s.children) && s.children[ci+1].anchored
	return c.seq(s, ci+1, i+1, i, nextAnch)
}

// bind matches child pattern cp against kid i.
func (c *Cursor) bind(s *seq, cp childPattern, i, level int) bool {
	if cp.field != "" && s.parent.FieldNameForChild(i) != cp.field {
		return false
	}
	return c.matchNode(cp.node, s.kids[i], level)
}

// nextEligible returns the first kid at or after from that an anchored child
// pattern may bind: the next named kid for named patterns, the next kid
// otherwise.
func nextEligible(kids []*sitter.Node, from int, named bool) int {
	if !named {
		return from
	}
	return nextNamed(kids, from)
}

func nextNamed(kids []*sitter.Node, from int) int {
	for from < len(kids) && !kids[from].IsNamed() {
		from++
	}
	return from
}
