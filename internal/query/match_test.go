package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonDocQuery = `
((function_definition
  name: (identifier) @name
  body: (block . (expression_statement (string) @doc))) @function
 (strip! @doc "(^['\"\\s]*)|(['\"\\s]*$)"))
(function_definition
  name: (identifier) @name) @function
((class_definition
  name: (identifier) @name
  body: (block . (expression_statement (string) @doc))) @class
 (strip! @doc "(^['\"\\s]*)|(['\"\\s]*$)"))
(class_definition
  name: (identifier) @name) @class
(call
  function: (identifier) @name) @call
`

const customerPython = `class Customer:
    """Data about a customer"""
    def age(self):
        '''Get the customer's age'''
        compute_age(self.id)
`

func TestCursor_PythonDocstrings(t *testing.T) {
	t.Parallel()

	q := mustCompile(t, pythonDocQuery)
	root := parsePython(t, customerPython)

	got := collect(t, q, root, customerPython)
	assert.Equal(t, []result{
		{Pattern: 2, Kind: "class", Name: "Customer", Docs: []string{"Data about a customer"}},
		{Pattern: 0, Kind: "function", Name: "age", Docs: []string{"Get the customer's age"}},
		{Pattern: 4, Kind: "call", Name: "compute_age"},
	}, got)
}

func TestCursor_DocstringMustBeFirstStatement(t *testing.T) {
	t.Parallel()

	src := `def late():
    x = 1
    """not a docstring"""
`
	q := mustCompile(t, pythonDocQuery)
	got := collect(t, q, parsePython(t, src), src)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Pattern)
	assert.Equal(t, "late", got[0].Name)
	assert.Empty(t, got[0].Docs)
}

func TestCursor_PreOrder(t *testing.T) {
	t.Parallel()

	src := `def outer():
    helper()
    def inner():
        other()
    last()

after()
`
	q := mustCompile(t, `
(call function: (identifier) @name) @call
(function_definition name: (identifier) @name) @function
`)
	got := collect(t, q, parsePython(t, src), src)
	assert.Equal(t, []string{
		"function:outer",
		"call:helper",
		"function:inner",
		"call:other",
		"call:last",
		"call:after",
	}, names(got))
}

func TestCursor_EveryCandidatePatternOnce(t *testing.T) {
	t.Parallel()

	src := "def f():\n    pass\n"
	q := mustCompile(t, `
(function_definition) @function
(function_definition name: (identifier) @name) @method
(class_definition) @class
`)

	c := NewCursor()
	c.Exec(q, parsePython(t, src))

	var patterns []int
	for {
		m, ok := c.NextMatch()
		if !ok {
			break
		}
		assert.Equal(t, "function_definition", m.Anchor.Type())
		patterns = append(patterns, m.Pattern)
	}
	assert.Equal(t, []int{0, 1}, patterns)
}

func TestCursor_SkipAnchorKeepsDescendants(t *testing.T) {
	t.Parallel()

	src := "def f():\n    g()\n"
	q := mustCompile(t, `
(function_definition name: (identifier) @name) @function
(function_definition) @method
(call function: (identifier) @name) @call
`)

	c := NewCursor()
	c.Exec(q, parsePython(t, src))

	var patterns []int
	for {
		m, ok := c.NextMatch()
		if !ok {
			break
		}
		patterns = append(patterns, m.Pattern)
		c.SkipAnchor()
	}
	assert.Equal(t, []int{0, 2}, patterns)
}

func TestCursor_OneMatchPerAnchor(t *testing.T) {
	t.Parallel()

	src := `// one
// two
// three
class A {}
`
	q := mustCompile(t, `(program (comment)* @doc . (class_declaration name: (identifier) @name) @class)`)

	c := NewCursor()
	c.Exec(q, parseJS(t, src))

	count := 0
	for {
		m, ok := c.NextMatch()
		if !ok {
			break
		}
		count++
		docs := 0
		for _, capt := range m.Captures {
			if q.CaptureName(capt.Index) == "doc" {
				docs++
			}
		}
		assert.Equal(t, 3, docs, "repetition should be greedy")
	}
	assert.Equal(t, 1, count)
}

func TestCursor_ExecResets(t *testing.T) {
	t.Parallel()

	first := "def a():\n    b()\n"
	second := "class C:\n    def d(self):\n        e()\n"
	q := mustCompile(t, pythonDocQuery)
	rootA := parsePython(t, first)
	rootB := parsePython(t, second)

	want := collect(t, q, rootA, first)

	c := NewCursor()
	c.Exec(q, rootB)
	_, ok := c.NextMatch()
	require.True(t, ok)

	// Abandon the second run half way and start over on the first tree.
	c.Exec(q, rootA)
	var got []int
	for {
		m, ok := c.NextMatch()
		if !ok {
			break
		}
		if q.Evaluate(m, []byte(first)) {
			got = append(got, m.Pattern)
			c.SkipAnchor()
		}
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Pattern, got[i])
	}
}

func TestCursor_IdleCursor(t *testing.T) {
	t.Parallel()

	c := NewCursor()
	m, ok := c.NextMatch()
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestCursor_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		src   string
		want  []string
	}{
		{
			name:  "negated field",
			query: `(function_definition name: (identifier) @name !return_type) @function`,
			src:   "def f() -> int:\n    pass\n\ndef g():\n    pass\n",
			want:  []string{"function:g"},
		},
		{
			name:  "field mismatch",
			query: `(call arguments: (identifier) @name) @call`,
			src:   "f(x)\n",
			want:  []string{},
		},
		{
			name:  "alternation",
			query: `(call function: [(identifier) @name (attribute attribute: (identifier) @name)]) @call`,
			src:   "foo()\nobj.bar()\n",
			want:  []string{"call:foo", "call:bar"},
		},
		{
			name:  "alternation anchor",
			query: `[(function_definition name: (identifier) @name) (class_definition name: (identifier) @name)] @function`,
			src:   "class A:\n    def b(self):\n        pass\n",
			want:  []string{"function:A", "function:b"},
		},
		{
			name:  "anonymous literal",
			query: `(binary_operator left: (identifier) @name "+") @call`,
			src:   "a + b\nc - d\n",
			want:  []string{"call:a"},
		},
		{
			name:  "wildcard parent",
			query: `(_ function: (identifier) @name) @call`,
			src:   "f(g(x))\n",
			want:  []string{"call:f", "call:g"},
		},
		{
			name:  "first named child",
			query: `(argument_list . (identifier) @name @call)`,
			src:   "f(a, b, c)\n",
			want:  []string{"call:a"},
		},
		{
			name:  "last named child",
			query: `(argument_list (identifier) @name @call .)`,
			src:   "f(a, b, c)\n",
			want:  []string{"call:c"},
		},
		{
			name:  "any child",
			query: `(argument_list (identifier) @name @call)`,
			src:   "f(a, b, c)\n",
			want:  []string{"call:a", "call:b", "call:c"},
		},
		{
			name:  "consecutive siblings",
			query: `(argument_list (identifier) @name . (identifier) @call)`,
			src:   "f(a, b, c)\n",
			want:  []string{"call:a", "call:b"},
		},
		{
			name:  "sibling gap",
			query: `(argument_list (integer) @name (identifier) @call)`,
			src:   "f(1, \"s\", a)\ng(b, 2)\n",
			want:  []string{"call:1"},
		},
		{
			name:  "optional anchored sibling",
			query: `(argument_list . (string)? @name . (identifier) @call)`,
			src:   "f(\"x\", a)\ng(b)\nh(1, c)\n",
			want:  []string{"call:\"x\"", "call:"},
		},
		{
			name:  "one or more",
			query: `(block (expression_statement)+ @name . (return_statement) @function)`,
			src:   "def f():\n    a()\n    b()\n    return 1\n\ndef g():\n    return 2\n",
			want:  []string{"function:a()"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := mustCompile(t, tt.query)
			got := names(collect(t, q, parsePython(t, tt.src), tt.src))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCursor_AdjacentComments(t *testing.T) {
	t.Parallel()

	src := `
    // hi

    // Data about a customer.
    // bla bla bla
    class Customer {
        /*
         * Get the customer's age
         */
        getAge() {
        }
    }

    // ok

    class Agent {

    }
    `
	q := mustCompile(t, `
((*
  (comment)+ @doc
  .
  (class_declaration
    name: (identifier) @name) @class)
 (select-adjacent! @doc @class)
 (strip! @doc "(^[/\\*\\s]*)|([/\\*\\s]*$)"))
((*
  (comment)+ @doc
  .
  (method_definition
    name: (property_identifier) @name) @method)
;  (select-adjacent! @doc @method)
 (strip! @doc "(^[/\\*\\s]*)|([/\\*\\s]*$)"))
`)

	got := collect(t, q, parseJS(t, src), src)
	assert.Equal(t, []result{
		{Pattern: 0, Kind: "class", Name: "Customer", Docs: []string{"Data about a customer.", "bla bla bla"}},
		{Pattern: 1, Kind: "method", Name: "getAge", Docs: []string{"Get the customer's age"}},
		{Pattern: 0, Kind: "class", Name: "Agent"},
	}, got)
}
