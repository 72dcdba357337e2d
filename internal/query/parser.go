package query

import "fmt"

type rawArg struct {
	capture bool
	value   string
	offset  int
}

type rawPredicate struct {
	name   string
	args   []rawArg
	offset int
}

// parser consumes the token stream of a query and builds one Pattern per
// top-level pattern, failing on the first malformed construct.
type parser struct {
	src     string
	tokens  []Token
	current int
	q       *Query
	isKind  func(string) bool

	// per-pattern state, reset by parsePattern
	pattern  int
	declared map[int]bool
	preds    []rawPredicate
}

func newParser(src string, q *Query, isKind func(string) bool) *parser {
	return &parser{
		src:    src,
		tokens: NewLexer(src).Tokenize(),
		q:      q,
		isKind: isKind,
	}
}

func (p *parser) peek() Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *parser) next() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.current++
	}
	return tok
}

func (p *parser) prevEnd() int {
	if p.current == 0 {
		return 0
	}
	return p.tokens[p.current-1].End
}

func (p *parser) errorf(kind ErrorKind, offset int, format string, args ...any) *Error {
	row, col := position(p.src, offset)
	return &Error{
		Kind:    kind,
		Pattern: p.pattern,
		Offset:  offset,
		Row:     row,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	}
}

// unexpected builds the error for a token that cannot appear where it was
// found, surfacing lexer failures verbatim.
func (p *parser) unexpected(tok Token, want string) *Error {
	switch tok.Type {
	case TokenInvalid:
		return p.errorf(ErrorSyntax, tok.Offset, "%s", tok.Value)
	case TokenEOF:
		return p.errorf(ErrorSyntax, tok.Offset, "unexpected end of query, expected %s", want)
	}
	return p.errorf(ErrorSyntax, tok.Offset, "unexpected %q, expected %s", tok.Value, want)
}

func (p *parser) parsePatterns() error {
	for {
		if p.peek().Type == TokenEOF {
			return nil
		}
		pat, err := p.parsePattern()
		if err != nil {
			return err
		}
		p.q.patterns = append(p.q.patterns, pat)
		p.pattern++
	}
}

func (p *parser) parsePattern() (*Pattern, error) {
	p.declared = make(map[int]bool)
	p.preds = nil
	start := p.peek().Offset

	if p.isPredicateStart() {
		return nil, p.errorf(ErrorStructure, start, "predicate outside of a pattern")
	}

	var (
		root *nodePattern
		err  error
	)
	if p.isGroupStart() {
		root, err = p.parseGroup()
	} else {
		root, err = p.parseNode()
	}
	if err != nil {
		return nil, err
	}
	if root.quant != QuantOne {
		return nil, p.errorf(ErrorStructure, root.offset, "quantifier on a top-level pattern")
	}

	pat := &Pattern{
		index: p.pattern,
		root:  root,
		start: start,
		end:   p.prevEnd(),
	}
	if err := p.finishPattern(pat); err != nil {
		return nil, err
	}
	return pat, nil
}

// isGroupStart reports whether the parenthesis at the cursor opens a group of
// sibling patterns and predicates rather than a node pattern.
func (p *parser) isGroupStart() bool {
	if p.peek().Type != TokenLParen {
		return false
	}
	switch p.peekAt(1).Type {
	case TokenLParen, TokenLBracket, TokenString, TokenDot:
		return true
	}
	return false
}

func (p *parser) isPredicateStart() bool {
	if p.peek().Type != TokenLParen {
		return false
	}
	name := p.peekAt(1)
	if name.Type == TokenHash {
		return true
	}
	if name.Type != TokenIdent {
		return false
	}
	suffix := p.peekAt(2)
	return (suffix.Type == TokenBang || suffix.Type == TokenQuestion) && suffix.Offset == name.End
}

func (p *parser) parseGroup() (*nodePattern, error) {
	open := p.next()
	var (
		elems      []childPattern
		anchorNext bool
	)
	for {
		tok := p.peek()
		switch {
		case tok.Type == TokenRParen:
			p.next()
		case tok.Type == TokenEOF:
			return nil, p.errorf(ErrorSyntax, open.Offset, "unclosed parenthesis")
		case tok.Type == TokenDot:
			p.next()
			anchorNext = true
			continue
		case p.isPredicateStart():
			if err := p.parsePredicate(); err != nil {
				return nil, err
			}
			continue
		default:
			n, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			elems = append(elems, childPattern{node: n, anchored: anchorNext})
			anchorNext = false
			continue
		}
		break
	}
	if len(elems) == 0 {
		return nil, p.errorf(ErrorStructure, open.Offset, "group contains no node pattern")
	}

	quant, caps := p.parseSuffix()
	if len(elems) == 1 && !elems[0].anchored && !anchorNext {
		n := elems[0].node
		n.captures = append(n.captures, caps...)
		if quant != QuantOne {
			if n.quant != QuantOne {
				return nil, p.errorf(ErrorSyntax, open.Offset, "pattern quantified twice")
			}
			n.quant = quant
		}
		return n, nil
	}
	return &nodePattern{
		kind:       kindAnyNamed,
		quant:      quant,
		captures:   caps,
		children:   elems,
		anchorLast: anchorNext,
		offset:     open.Offset,
	}, nil
}

func (p *parser) parseNode() (*nodePattern, error) {
	tok := p.peek()
	var n *nodePattern

	switch tok.Type {
	case TokenString:
		p.next()
		n = &nodePattern{kind: kindLiteral, typ: tok.Value, offset: tok.Offset}
	case TokenIdent:
		if tok.Value != "_" {
			return nil, p.errorf(ErrorSyntax, tok.Offset,
				"unexpected identifier %q, node patterns are written as (%s)", tok.Value, tok.Value)
		}
		p.next()
		n = &nodePattern{kind: kindAny, offset: tok.Offset}
	case TokenLBracket:
		p.next()
		n = &nodePattern{kind: kindAlternation, offset: tok.Offset}
		for p.peek().Type != TokenRBracket {
			if p.peek().Type == TokenEOF {
				return nil, p.errorf(ErrorSyntax, tok.Offset, "unclosed bracket")
			}
			alt, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			n.alts = append(n.alts, alt)
		}
		p.next()
		if len(n.alts) == 0 {
			return nil, p.errorf(ErrorStructure, tok.Offset, "empty alternation")
		}
	case TokenLParen:
		p.next()
		t := p.peek()
		switch t.Type {
		case TokenIdent:
			p.next()
			if t.Value == "_" {
				n = &nodePattern{kind: kindAnyNamed, offset: tok.Offset}
			} else {
				n = &nodePattern{kind: kindNamed, typ: t.Value, offset: tok.Offset}
			}
		case TokenStar:
			p.next()
			n = &nodePattern{kind: kindAnyNamed, offset: tok.Offset}
		case TokenLParen, TokenLBracket, TokenString, TokenDot:
			return nil, p.errorf(ErrorStructure, t.Offset, "nested sibling groups are not supported")
		default:
			return nil, p.unexpected(t, "a node type")
		}
		if err := p.parseChildren(n); err != nil {
			return nil, err
		}
	default:
		return nil, p.unexpected(tok, "a pattern")
	}

	n.quant, n.captures = p.parseSuffix()
	return n, nil
}

func (p *parser) parseChildren(n *nodePattern) error {
	anchorNext := false
	for {
		tok := p.peek()
		switch {
		case tok.Type == TokenRParen:
			p.next()
			n.anchorLast = anchorNext
			return nil
		case tok.Type == TokenEOF:
			return p.errorf(ErrorSyntax, n.offset, "unclosed parenthesis")
		case tok.Type == TokenDot:
			p.next()
			anchorNext = true
		case tok.Type == TokenBang:
			p.next()
			field := p.next()
			if field.Type != TokenIdent {
				return p.unexpected(field, "a field name after '!'")
			}
			n.negated = append(n.negated, field.Value)
		case p.isPredicateStart():
			if err := p.parsePredicate(); err != nil {
				return err
			}
		case tok.Type == TokenIdent && p.peekAt(1).Type == TokenColon:
			p.next()
			p.next()
			child, err := p.parseNode()
			if err != nil {
				return err
			}
			n.children = append(n.children, childPattern{field: tok.Value, anchored: anchorNext, node: child})
			anchorNext = false
		default:
			child, err := p.parseNode()
			if err != nil {
				return err
			}
			n.children = append(n.children, childPattern{anchored: anchorNext, node: child})
			anchorNext = false
		}
	}
}

func (p *parser) parseSuffix() (Quantifier, []int) {
	quant := QuantOne
	switch p.peek().Type {
	case TokenQuestion:
		quant = QuantZeroOrOne
		p.next()
	case TokenStar:
		quant = QuantZeroOrMore
		p.next()
	case TokenPlus:
		quant = QuantOneOrMore
		p.next()
	}
	var caps []int
	for p.peek().Type == TokenCapture {
		id := p.q.intern(p.next().Value)
		p.declared[id] = true
		caps = append(caps, id)
	}
	return quant, caps
}

func (p *parser) parsePredicate() error {
	open := p.next()
	if p.peek().Type == TokenHash {
		p.next()
	}
	name := p.next()
	if name.Type != TokenIdent {
		return p.unexpected(name, "a predicate name")
	}
	suffix := p.peek()
	if (suffix.Type != TokenBang && suffix.Type != TokenQuestion) || suffix.Offset != name.End {
		return p.errorf(ErrorPredicate, name.Offset, "predicate %q must end with '!' or '?'", name.Value)
	}
	p.next()

	pred := rawPredicate{name: name.Value + suffix.Value, offset: open.Offset}
	for {
		tok := p.next()
		switch tok.Type {
		case TokenRParen:
			p.preds = append(p.preds, pred)
			return nil
		case TokenCapture:
			pred.args = append(pred.args, rawArg{capture: true, value: tok.Value, offset: tok.Offset})
		case TokenString, TokenIdent:
			pred.args = append(pred.args, rawArg{value: tok.Value, offset: tok.Offset})
		case TokenEOF:
			return p.errorf(ErrorSyntax, open.Offset, "unclosed predicate %q", pred.name)
		default:
			return p.unexpected(tok, "a capture or string argument")
		}
	}
}
