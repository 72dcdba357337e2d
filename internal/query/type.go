package query

// Quantifier controls how many consecutive siblings a child pattern may bind.
type Quantifier int

const (
	QuantOne Quantifier = iota
	QuantZeroOrOne
	QuantZeroOrMore
	QuantOneOrMore
)

func (q Quantifier) allowsZero() bool {
	return q == QuantZeroOrOne || q == QuantZeroOrMore
}

func (q Quantifier) repeats() bool {
	return q == QuantZeroOrMore || q == QuantOneOrMore
}

type nodeKind int

const (
	// (type ...)
	kindNamed nodeKind = iota
	// (_ ...) or (* ...): any named node
	kindAnyNamed
	// _: any node, named or anonymous
	kindAny
	// "text": anonymous node with that type
	kindLiteral
	// [ ... ]
	kindAlternation
)

// nodePattern is one node-shape constraint of a compiled pattern.
type nodePattern struct {
	kind     nodeKind
	typ      string
	quant    Quantifier
	captures []int
	children []childPattern
	negated  []string
	alts     []*nodePattern
	offset   int

	// anchorLast requires the last child pattern to bind the last named
	// child of the node.
	anchorLast bool
}

// childPattern is a child constraint within a parent node pattern.
type childPattern struct {
	field string
	// anchored is set when a '.' precedes the child: the first child binds the
	// first named child, later children bind the named sibling immediately
	// after the previous binding.
	anchored bool
	node     *nodePattern
}

// named reports whether the pattern can only bind named nodes. Anchors skip
// anonymous siblings for such patterns.
func (n *nodePattern) named() bool {
	switch n.kind {
	case kindNamed, kindAnyNamed:
		return true
	case kindAlternation:
		for _, a := range n.alts {
			if !a.named() {
				return false
			}
		}
		return true
	}
	return false
}

// Pattern is a compiled top-level query pattern.
type Pattern struct {
	index      int
	root       *nodePattern
	predicates []Predicate

	// anchorPath holds the child-pattern indices leading from the root to the
	// node pattern carrying the kind capture. An empty path anchors the root.
	anchorPath  []int
	anchorTypes []string
	kindCapture int

	start, end int
}

// KindCapture returns the id of the capture whose name classifies the match,
// or -1 when the pattern has none and never matches.
func (p *Pattern) KindCapture() int { return p.kindCapture }

// Predicates returns the compiled predicates in declaration order.
func (p *Pattern) Predicates() []Predicate { return p.predicates }
