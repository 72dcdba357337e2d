package query

import (
	"context"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/require"
)

var tagKinds = map[string]bool{
	"function":  true,
	"method":    true,
	"class":     true,
	"module":    true,
	"interface": true,
	"call":      true,
}

// isTagKind accepts the bare kind names and their definition./reference.
// prefixed forms.
func isTagKind(name string) bool {
	name = strings.TrimPrefix(name, "definition.")
	name = strings.TrimPrefix(name, "reference.")
	return tagKinds[name]
}

func mustCompile(t *testing.T, src string) *Query {
	t.Helper()
	q, err := Compile(src, isTagKind)
	require.NoError(t, err)
	return q
}

func parse(t *testing.T, lang *sitter.Language, src string) *sitter.Node {
	t.Helper()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree.RootNode()
}

func parsePython(t *testing.T, src string) *sitter.Node {
	t.Helper()
	return parse(t, python.GetLanguage(), src)
}

func parseJS(t *testing.T, src string) *sitter.Node {
	t.Helper()
	return parse(t, javascript.GetLanguage(), src)
}

// result is a flattened match used for comparisons.
type result struct {
	Pattern int
	Kind    string
	Name    string
	Docs    []string
}

// collect runs q over root the way a tag generator does: predicates are
// evaluated and the first accepted pattern per anchor wins.
func collect(t *testing.T, q *Query, root *sitter.Node, src string) []result {
	t.Helper()

	source := []byte(src)
	nameID, hasName := q.CaptureIndex("name")
	docID, hasDoc := q.CaptureIndex("doc")

	var out []result
	c := NewCursor()
	c.Exec(q, root)
	for {
		m, ok := c.NextMatch()
		if !ok {
			break
		}
		if !q.Evaluate(m, source) {
			continue
		}
		r := result{Pattern: m.Pattern, Kind: q.CaptureName(q.Pattern(m.Pattern).KindCapture())}
		if hasName {
			if n, ok := m.First(nameID); ok {
				r.Name = n.Text(source)
			}
		}
		for _, capt := range m.Captures {
			if hasDoc && capt.Index == docID {
				r.Docs = append(r.Docs, capt.Text(source))
			}
		}
		out = append(out, r)
		c.SkipAnchor()
	}
	return out
}

func names(results []result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Kind + ":" + r.Name
	}
	return out
}
