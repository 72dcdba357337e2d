package tags

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jward/tags/internal/runtime"
)

// Filter decides which tags to keep with a Risor expression. The expression
// sees the globals kind, name, docs, file, language, definition, start, end
// and line (one-based), plus the helpers glob(pattern, path) and
// matches(regex, text). A truthy result keeps the tag.
type Filter struct {
	f *runtime.Filter
}

// BuiltinFilterPrefix selects one of the filter scripts shipped with the
// package, as in "@builtin:no_tests.risor". The scripts are definitions.risor
// (definitions only), no_tests.risor (drops tags from test files) and
// no_private.risor (drops names starting with an underscore).
const BuiltinFilterPrefix = "@builtin:"

// NewFilter compiles expr. An expression of the form "@path" loads a script
// file; scripts and their imports resolve against scriptsDir. Messages the
// script logs go to logger, which may be nil.
func NewFilter(ctx context.Context, expr, scriptsDir string, logger *zap.Logger) (*Filter, error) {
	if name, ok := strings.CutPrefix(expr, BuiltinFilterPrefix); ok {
		return NewFilterFS(ctx, "@"+name, runtime.BuiltinFilters(), logger)
	}
	return compileFilter(ctx, expr, runtime.NewRuntime(scriptsDir, runtime.WithRuntimeLogger(nopIfNil(logger))))
}

// NewFilterFS is like NewFilter but loads "@path" scripts and their imports
// from fsys, so filters can ship embedded in a binary.
func NewFilterFS(ctx context.Context, expr string, fsys fs.FS, logger *zap.Logger) (*Filter, error) {
	rt := runtime.NewRuntime("", runtime.WithRuntimeFS(fsys), runtime.WithRuntimeLogger(nopIfNil(logger)))
	return compileFilter(ctx, expr, rt)
}

func compileFilter(ctx context.Context, expr string, rt *runtime.Runtime) (*Filter, error) {
	f, err := rt.Filter(ctx, expr)
	if err != nil {
		return nil, fmt.Errorf("tags: filter: %w", err)
	}
	return &Filter{f: f}, nil
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Keep reports whether the filter accepts tag, found in the file at path.
func (f *Filter) Keep(ctx context.Context, tag Tag, source []byte, path, lang string) (bool, error) {
	return f.f.Keep(ctx, runtime.TagInfo{
		Kind:       tag.Kind.String(),
		Name:       tag.Name(source),
		Docs:       tag.DocText(),
		File:       filepath.ToSlash(path),
		Language:   lang,
		Definition: tag.IsDefinition,
		Start:      tag.Span.Start,
		End:        tag.Span.End,
		Line:       tag.StartPoint.Row + 1,
	})
}
