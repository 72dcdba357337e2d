package tags

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tags/internal/query"
)

type kindInfo struct {
	kind       Kind
	definition bool
}

// Configuration is a compiled tags query bound to a grammar. It is immutable
// and may be shared by Contexts on different goroutines.
type Configuration struct {
	Language *sitter.Language

	query  *query.Query
	kinds  []kindInfo // by capture id, zero for non-kind captures
	nameID int
	docID  int
}

// NewConfiguration compiles source for lang. Compile failures are returned as
// a wrapped *query.Error.
func NewConfiguration(lang *sitter.Language, source string) (*Configuration, error) {
	q, err := query.Compile(source, IsKindCapture)
	if err != nil {
		return nil, fmt.Errorf("tags: compile query: %w", err)
	}

	cfg := &Configuration{
		Language: lang,
		query:    q,
		kinds:    make([]kindInfo, q.CaptureCount()),
		nameID:   -1,
		docID:    -1,
	}
	for id := range q.CaptureCount() {
		if kind, def, ok := captureKind(q.CaptureName(id)); ok {
			cfg.kinds[id] = kindInfo{kind: kind, definition: def}
		}
	}
	if id, ok := q.CaptureIndex("name"); ok {
		cfg.nameID = id
	}
	if id, ok := q.CaptureIndex("doc"); ok {
		cfg.docID = id
	}
	return cfg, nil
}

// PatternCount returns the number of patterns in the compiled query.
func (c *Configuration) PatternCount() int {
	return c.query.PatternCount()
}
