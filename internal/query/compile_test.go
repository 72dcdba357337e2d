package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Tokens(t *testing.T) {
	t.Parallel()

	toks := NewLexer(`; comment
((comment)+ @doc . (class name: (identifier) @name) @definition.class
 (#strip! @doc "a\"b\\s\n"))`).Tokenize()

	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenLParen, TokenLParen, TokenIdent, TokenRParen, TokenPlus, TokenCapture,
		TokenDot, TokenLParen, TokenIdent, TokenIdent, TokenColon, TokenLParen, TokenIdent,
		TokenRParen, TokenCapture, TokenRParen, TokenCapture,
		TokenLParen, TokenHash, TokenIdent, TokenBang, TokenCapture, TokenString, TokenRParen,
		TokenRParen, TokenEOF,
	}, types)

	assert.Equal(t, "definition.class", toks[16].Value)
	assert.Equal(t, "a\"b\\s\n", toks[22].Value)
}

func TestLexer_InvalidStops(t *testing.T) {
	t.Parallel()

	toks := NewLexer(`(call) $ (more)`).Tokenize()
	require.Len(t, toks, 5)
	assert.Equal(t, TokenInvalid, toks[3].Type)
	assert.Equal(t, 7, toks[3].Offset)
	assert.Equal(t, TokenEOF, toks[4].Type)
}

func TestCompile_Patterns(t *testing.T) {
	t.Parallel()

	q := mustCompile(t, `
((function_definition
  name: (identifier) @name
  body: (block . (expression_statement (string) @doc))) @function
 (strip! @doc "(^['\"\\s]*)|(['\"\\s]*$)"))
(function_definition name: (identifier) @name) @function
((*
  (comment)+ @doc
  .
  (class_declaration name: (identifier) @name) @definition.class)
 (#select-adjacent! @doc @definition.class))
(call function: (identifier) @name) @reference.call
`)

	require.Equal(t, 4, q.PatternCount())

	p0 := q.Pattern(0)
	assert.Empty(t, p0.anchorPath)
	assert.Equal(t, "function", q.CaptureName(p0.KindCapture()))
	require.Len(t, p0.Predicates(), 1)
	assert.Equal(t, PredicateStrip, p0.Predicates()[0].Kind)
	assert.Equal(t, `(^['"\s]*)|(['"\s]*$)`, p0.Predicates()[0].Text)

	p2 := q.Pattern(2)
	assert.Equal(t, []int{1}, p2.anchorPath)
	assert.Equal(t, "definition.class", q.CaptureName(p2.KindCapture()))
	doc, ok := q.CaptureIndex("doc")
	require.True(t, ok)
	require.Len(t, p2.Predicates(), 1)
	assert.Equal(t, PredicateSelectAdjacent, p2.Predicates()[0].Kind)
	assert.Equal(t, doc, p2.Predicates()[0].Capture)

	assert.Equal(t, []int{0, 1}, q.candidates("function_definition", nil))
	assert.Equal(t, []int{2}, q.candidates("class_declaration", nil))
	assert.Empty(t, q.candidates("identifier", nil))

	assert.Equal(t, "(call function: (identifier) @name) @reference.call", q.PatternText(3))
}

func TestCompile_Deterministic(t *testing.T) {
	t.Parallel()

	src := `(function_definition name: (identifier) @name) @function
(call function: [(identifier) @name (attribute attribute: (identifier) @name)]) @call`

	a := mustCompile(t, src)
	b := mustCompile(t, src)
	require.Equal(t, a.PatternCount(), b.PatternCount())
	for i := 0; i < a.PatternCount(); i++ {
		assert.Equal(t, a.Pattern(i), b.Pattern(i))
	}
}

func TestCompile_WildcardCandidates(t *testing.T) {
	t.Parallel()

	q := mustCompile(t, `
(call) @call
(_ (identifier) @name) @function
(call (identifier) @name) @method
[(class_definition) (function_definition)] @class
`)
	assert.Equal(t, []int{0, 1, 2}, q.candidates("call", nil))
	assert.Equal(t, []int{1, 3}, q.candidates("class_definition", nil))
	assert.Equal(t, []int{1}, q.candidates("module", nil))
}

func TestCompile_PatternWithoutKindCapture(t *testing.T) {
	t.Parallel()

	q := mustCompile(t, `
(identifier) @definition.constant
(call function: (identifier) @name) @reference.call
`)
	require.Equal(t, 2, q.PatternCount())
	assert.Equal(t, -1, q.Pattern(0).KindCapture())
	assert.Empty(t, q.candidates("identifier", nil))
	assert.Equal(t, []int{1}, q.candidates("call", nil))

	// Predicates are still checked.
	_, err := Compile(`((identifier) @definition.constant (#strip! @doc "x"))`, isTagKind)
	var qerr *Error
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, ErrorCapture, qerr.Kind)
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		kind    ErrorKind
		pattern int
		row     int
		col     int
	}{
		{"unclosed paren", `(function_definition name: (identifier) @name`, ErrorSyntax, 0, 0, 0},
		{"unclosed in second pattern", "(call) @call\n  (foo", ErrorSyntax, 1, 1, 2},
		{"unterminated string", `((call) @call (#eq? @call "abc))`, ErrorSyntax, 0, 0, 26},
		{"stray character", `(call) @call $`, ErrorSyntax, 1, 0, 13},
		{"bare identifier", `call @call`, ErrorSyntax, 0, 0, 0},
		{"unknown predicate", `((call) @call (#frobnicate! @call "x"))`, ErrorPredicate, 0, 0, 14},
		{"missing suffix", `((call) @call (#strip @call "x"))`, ErrorPredicate, 0, 0, 16},
		{"wrong arity", `((call) @call (strip! @call))`, ErrorPredicate, 0, 0, 14},
		{"string where capture expected", `((call) @call (#select-adjacent! @call "x"))`, ErrorPredicate, 0, 0, 39},
		{"capture where string expected", `((call) @call (#strip! @call @call))`, ErrorPredicate, 0, 0, 29},
		{"first argument not a capture", `((call) @call (#eq? "x" @call))`, ErrorPredicate, 0, 0, 20},
		{"bad regex", `((call) @call (#match? @call "("))`, ErrorPredicate, 0, 0, 29},
		{"undeclared capture", `((call) @call (#strip! @doc "x"))`, ErrorCapture, 0, 0, 23},
		{"capture from another pattern", "(comment) @doc @call\n((call) @call (#strip! @doc \"x\"))", ErrorCapture, 1, 1, 23},
		{"two kind captures", `(class_definition (function_definition) @function) @class`, ErrorCapture, 0, 0, 18},
		{"quantified kind capture", `(block (function_definition)* @function)`, ErrorStructure, 0, 0, 7},
		{"kind capture in alternation", `[(function_definition) @function (class_definition)]`, ErrorStructure, 0, 0, 1},
		{"top-level quantifier", `(call)+ @call`, ErrorStructure, 0, 0, 0},
		{"top-level predicate", `(#eq? @a "x")`, ErrorStructure, 0, 0, 0},
		{"nested group", `(((call) (call)) @call)`, ErrorStructure, 0, 0, 2},
		{"empty alternation", `[] @call`, ErrorStructure, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q, err := Compile(tt.src, isTagKind)
			require.Error(t, err)
			assert.Nil(t, q)

			var qerr *Error
			require.True(t, errors.As(err, &qerr), "error %v is not a *query.Error", err)
			assert.Equal(t, tt.kind, qerr.Kind, qerr.Error())
			assert.Equal(t, tt.pattern, qerr.Pattern, qerr.Error())
			assert.Equal(t, tt.row, qerr.Row, qerr.Error())
			assert.Equal(t, tt.col, qerr.Column, qerr.Error())
		})
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	_, err := Compile("(call) @call\n((call) @call (#bogus! @call \"x\"))", isTagKind)
	require.Error(t, err)
	assert.Equal(t, `predicate error in pattern 1 at row 1, column 14: unknown predicate "bogus!"`, err.Error())
}
