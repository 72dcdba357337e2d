package tags

import (
	"context"
	"fmt"
	"iter"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/jward/tags/internal/query"
)

// Context holds the matching state reused across documents. A Context is not
// safe for concurrent use; run one per goroutine and share Configurations.
type Context struct {
	cursor *query.Cursor
	parser *sitter.Parser
	logger *zap.Logger

	// busy is set while a sequence iterates with cursor.
	busy bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithContextLogger sets the logger used for debug records about matches
// that produce no tag.
func WithContextLogger(l *zap.Logger) ContextOption {
	return func(c *Context) {
		c.logger = l
	}
}

// NewContext returns a Context ready for use.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		cursor: query.NewCursor(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the Context's parser, if one was created.
func (c *Context) Close() {
	if c.parser != nil {
		c.parser.Close()
		c.parser = nil
	}
}

// Generate returns the tags of tree in pre-order of the nodes they describe.
// Tags are produced while iterating. For a single node, the first pattern in
// declaration order that yields a tag wins.
//
// The sequence may be iterated again from the start. Sequences from the same
// Context may be nested; an inner one gets its own cursor and leaves the
// outer one untouched. tree and source must stay valid while the sequence is
// in use.
func (c *Context) Generate(cfg *Configuration, tree *sitter.Tree, source []byte) iter.Seq[Tag] {
	return func(yield func(Tag) bool) {
		cur := c.cursor
		if c.busy {
			cur = query.NewCursor()
		} else {
			c.busy = true
			defer func() { c.busy = false }()
		}

		cur.Exec(cfg.query, tree.RootNode())
		for {
			m, ok := cur.NextMatch()
			if !ok {
				return
			}
			if !cfg.query.Evaluate(m, source) {
				continue
			}
			tag, ok := cfg.assemble(m, source)
			if !ok {
				c.logger.Debug("match without name capture",
					zap.Int("pattern", m.Pattern),
					zap.String("query", cfg.query.PatternText(m.Pattern)),
					zap.Uint32("start", m.Anchor.StartByte()))
				continue
			}
			cur.SkipAnchor()
			if !yield(tag) {
				return
			}
		}
	}
}

// GenerateFromSource parses source with cfg's grammar and returns its tags.
func (c *Context) GenerateFromSource(ctx context.Context, cfg *Configuration, source []byte) (iter.Seq[Tag], error) {
	if c.parser == nil {
		c.parser = sitter.NewParser()
	}
	c.parser.SetLanguage(cfg.Language)
	tree, err := c.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tags: parse: %w", err)
	}
	return c.Generate(cfg, tree, source), nil
}

