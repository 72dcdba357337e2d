package query

import (
	"regexp"
	"slices"
	"strings"
)

// Query is a compiled set of patterns. A Query is immutable after Compile and
// may be shared by any number of Cursors on different goroutines.
type Query struct {
	source       string
	captureNames []string
	captureIDs   map[string]int
	patterns     []*Pattern

	// byType lists, per anchoring node type, the patterns that may anchor on
	// it in declaration order. wildcard lists patterns whose anchoring node
	// has no fixed type.
	byType   map[string][]int
	wildcard []int
}

// Compile parses and validates a query source. isKind reports whether a
// capture name classifies a match (for example "function" or
// "definition.class"). A pattern carries at most one such capture; a pattern
// without one (say @definition.constant) compiles but never matches.
//
// Compile either returns the complete pattern set or an *Error describing
// the first failure.
func Compile(source string, isKind func(name string) bool) (*Query, error) {
	q := &Query{
		source:     source,
		captureIDs: make(map[string]int),
		byType:     make(map[string][]int),
	}
	p := newParser(source, q, isKind)
	if err := p.parsePatterns(); err != nil {
		return nil, err
	}
	for _, pat := range q.patterns {
		if pat.kindCapture < 0 {
			continue
		}
		if pat.anchorTypes == nil {
			q.wildcard = append(q.wildcard, pat.index)
			continue
		}
		for _, t := range pat.anchorTypes {
			q.byType[t] = append(q.byType[t], pat.index)
		}
	}
	return q, nil
}

func (q *Query) intern(name string) int {
	if id, ok := q.captureIDs[name]; ok {
		return id
	}
	id := len(q.captureNames)
	q.captureNames = append(q.captureNames, name)
	q.captureIDs[name] = id
	return id
}

// PatternCount returns the number of top-level patterns.
func (q *Query) PatternCount() int { return len(q.patterns) }

// Pattern returns the i-th pattern in declaration order.
func (q *Query) Pattern(i int) *Pattern { return q.patterns[i] }

// PatternText returns the source text of the i-th pattern.
func (q *Query) PatternText(i int) string {
	p := q.patterns[i]
	return q.source[p.start:p.end]
}

// CaptureCount returns the number of distinct capture names.
func (q *Query) CaptureCount() int { return len(q.captureNames) }

// CaptureName returns the name of capture id.
func (q *Query) CaptureName(id int) string { return q.captureNames[id] }

// CaptureIndex returns the id of a capture name.
func (q *Query) CaptureIndex(name string) (int, bool) {
	id, ok := q.captureIDs[name]
	return id, ok
}

// candidates appends to buf the patterns that may anchor on a node of type
// typ, in declaration order.
func (q *Query) candidates(typ string, buf []int) []int {
	typed := q.byType[typ]
	i, j := 0, 0
	for i < len(typed) || j < len(q.wildcard) {
		switch {
		case j == len(q.wildcard) || (i < len(typed) && typed[i] < q.wildcard[j]):
			buf = append(buf, typed[i])
			i++
		default:
			buf = append(buf, q.wildcard[j])
			j++
		}
	}
	return buf
}

type kindSite struct {
	id         int
	node       *nodePattern
	path       []int
	quantified bool
	inAlt      bool
}

// finishPattern validates a parsed pattern and fills in its predicates and
// anchor path.
func (p *parser) finishPattern(pat *Pattern) error {
	var sites []kindSite
	p.findKindSites(pat.root, nil, false, false, &sites)
	switch {
	case len(sites) == 0:
		pat.kindCapture = -1
		return p.compilePredicates(pat)
	case len(sites) > 1:
		names := make([]string, len(sites))
		for i, s := range sites {
			names[i] = "@" + p.q.captureNames[s.id]
		}
		return p.errorf(ErrorCapture, sites[1].node.offset,
			"pattern has more than one tag kind capture (%s)", strings.Join(names, ", "))
	}
	site := sites[0]
	if site.inAlt {
		return p.errorf(ErrorStructure, site.node.offset,
			"tag kind capture @%s cannot be inside an alternation", p.q.captureNames[site.id])
	}
	if site.quantified {
		return p.errorf(ErrorStructure, site.node.offset,
			"tag kind capture @%s cannot be quantified", p.q.captureNames[site.id])
	}
	pat.kindCapture = site.id
	pat.anchorPath = site.path
	pat.anchorTypes = anchorTypes(site.node)
	return p.compilePredicates(pat)
}

func (p *parser) compilePredicates(pat *Pattern) error {
	for _, raw := range p.preds {
		pred, err := p.compilePredicate(raw)
		if err != nil {
			return err
		}
		pat.predicates = append(pat.predicates, pred)
	}
	return nil
}

func (p *parser) findKindSites(n *nodePattern, path []int, quantified, inAlt bool, sites *[]kindSite) {
	for _, c := range n.captures {
		if p.isKind(p.q.captureNames[c]) {
			*sites = append(*sites, kindSite{
				id:         c,
				node:       n,
				path:       slices.Clone(path),
				quantified: quantified,
				inAlt:      inAlt,
			})
		}
	}
	for _, a := range n.alts {
		p.findKindSites(a, path, quantified, true, sites)
	}
	for i, ch := range n.children {
		p.findKindSites(ch.node, append(path, i), quantified || ch.node.quant != QuantOne, inAlt, sites)
	}
}

// anchorTypes returns the node types the anchoring pattern can bind, or nil
// when it can bind any node.
func anchorTypes(n *nodePattern) []string {
	switch n.kind {
	case kindNamed, kindLiteral:
		return []string{n.typ}
	case kindAlternation:
		var types []string
		for _, a := range n.alts {
			sub := anchorTypes(a)
			if sub == nil {
				return nil
			}
			for _, t := range sub {
				if !slices.Contains(types, t) {
					types = append(types, t)
				}
			}
		}
		return types
	}
	return nil
}

type predicateSpec struct {
	kind PredicateKind
	// second argument: capture, string, or either
	other argType
}

type argType int

const (
	argCapture argType = iota
	argString
	argEither
)

var predicateSpecs = map[string]predicateSpec{
	"strip!":           {PredicateStrip, argString},
	"select-adjacent!": {PredicateSelectAdjacent, argCapture},
	"eq?":              {PredicateEq, argEither},
	"not-eq?":          {PredicateNotEq, argEither},
	"match?":           {PredicateMatch, argString},
	"not-match?":       {PredicateNotMatch, argString},
}

func (p *parser) compilePredicate(raw rawPredicate) (Predicate, error) {
	spec, ok := predicateSpecs[raw.name]
	if !ok {
		return Predicate{}, p.errorf(ErrorPredicate, raw.offset, "unknown predicate %q", raw.name)
	}
	if len(raw.args) != 2 {
		return Predicate{}, p.errorf(ErrorPredicate, raw.offset,
			"predicate %q takes 2 arguments, got %d", raw.name, len(raw.args))
	}

	first := raw.args[0]
	if !first.capture {
		return Predicate{}, p.errorf(ErrorPredicate, first.offset,
			"first argument of %q must be a capture", raw.name)
	}
	capID, err := p.declaredCapture(first)
	if err != nil {
		return Predicate{}, err
	}
	pred := Predicate{Kind: spec.kind, Capture: capID, Other: -1}

	second := raw.args[1]
	switch {
	case second.capture && spec.other == argString:
		return Predicate{}, p.errorf(ErrorPredicate, second.offset,
			"second argument of %q must be a string", raw.name)
	case !second.capture && spec.other == argCapture:
		return Predicate{}, p.errorf(ErrorPredicate, second.offset,
			"second argument of %q must be a capture", raw.name)
	case second.capture:
		if pred.Other, err = p.declaredCapture(second); err != nil {
			return Predicate{}, err
		}
	default:
		pred.Text = second.value
	}

	if spec.kind == PredicateStrip || spec.kind == PredicateMatch || spec.kind == PredicateNotMatch {
		re, err := regexp.Compile(second.value)
		if err != nil {
			return Predicate{}, p.errorf(ErrorPredicate, second.offset,
				"invalid regular expression in %q: %v", raw.name, err)
		}
		pred.re = re
	}
	return pred, nil
}

func (p *parser) declaredCapture(arg rawArg) (int, error) {
	id, ok := p.q.captureIDs[arg.value]
	if !ok || !p.declared[id] {
		return 0, p.errorf(ErrorCapture, arg.offset, "capture @%s is not declared in this pattern", arg.value)
	}
	return id, nil
}
