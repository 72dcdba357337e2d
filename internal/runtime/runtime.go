package runtime

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"go.uber.org/zap"
)

// Runtime evaluates Risor tag filters. Filter scripts may import helper
// modules from the scripts directory or filesystem.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *zap.Logger
}

//go:embed filters/*.risor
var filterFS embed.FS

// BuiltinFilters returns the filter scripts shipped with the package, for use
// with WithRuntimeFS.
func BuiltinFilters() fs.FS {
	sub, err := fs.Sub(filterFS, "filters")
	if err != nil {
		panic(fmt.Sprintf("runtime: builtin filters: %v", err))
	}
	return sub
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger sets the logger behind the scripts' log global.
func WithRuntimeLogger(l *zap.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime resolving script paths against scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TagInfo is the view of a tag exposed to filter scripts.
type TagInfo struct {
	Kind       string
	Name       string
	Docs       string
	File       string
	Language   string
	Definition bool
	Start      int
	End        int
	Line       int // one-based
}

func (t TagInfo) globals() map[string]any {
	return map[string]any{
		"kind":       t.Kind,
		"name":       t.Name,
		"docs":       t.Docs,
		"file":       t.File,
		"language":   t.Language,
		"definition": t.Definition,
		"start":      t.Start,
		"end":        t.End,
		"line":       t.Line,
	}
}

// Filter is a Risor expression deciding which tags are kept. The expression
// sees the TagInfo fields as lowercase globals and keeps the tag when its
// result is truthy.
type Filter struct {
	rt     *Runtime
	source string
	label  string
}

// Filter compiles a filter. An expression starting with "@" names a script
// file to load instead.
func (r *Runtime) Filter(ctx context.Context, expr string) (*Filter, error) {
	f := &Filter{rt: r, source: expr, label: "<filter>"}
	if path, ok := strings.CutPrefix(expr, "@"); ok {
		src, err := r.LoadScript(path)
		if err != nil {
			return nil, err
		}
		f.source, f.label = src, path
	}
	if strings.TrimSpace(f.source) == "" {
		return nil, fmt.Errorf("runtime: filter %s is empty", f.label)
	}
	// Evaluate once against an empty tag so syntax errors surface here
	// instead of on the first file.
	if _, err := f.Keep(ctx, TagInfo{}); err != nil {
		return nil, err
	}
	return f, nil
}

// Keep reports whether the filter accepts tag.
func (f *Filter) Keep(ctx context.Context, tag TagInfo) (bool, error) {
	result, err := f.rt.eval(ctx, f.source, f.label, tag.globals())
	if err != nil {
		return false, err
	}
	return result.IsTruthy(), nil
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (object.Object, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (object.Object, error) {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.scriptsDir != "" {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"glob":    makeGlobFn(),
		"matches": makeMatchesFn(),
		"log":     mustProxy(&logObject{logger: r.logger}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
