package tags

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/jward/tags/internal/runtime"
	"github.com/jward/tags/internal/store"
)

// Engine maintains a SQLite index of the tags in a set of files: file
// discovery, change detection, tag generation and lookup.
type Engine struct {
	store     *store.Store
	loader    *Loader
	filter    *Filter
	languages map[string]bool // nil means all languages

	overrides  map[string]string
	filterExpr string
	scriptsDir string
	filterFS   fs.FS
	exclude    []string
	workers    int
	logger     *zap.Logger

	// useParallel enables the parallel indexing pipeline.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will process.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			e.languages[lang] = true
		}
	}
}

// WithParallel controls parallel indexing. When true (default), IndexFiles
// generates tags on a worker pool, with a single writer committing each
// file's batch to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers bounds the number of indexing goroutines. Zero or less means
// one per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithQueries replaces the built-in tags queries of the given languages.
func WithQueries(overrides map[string]string) Option {
	return func(e *Engine) {
		e.overrides = overrides
	}
}

// WithExclude skips files whose path relative to the indexed directory
// matches one of the doublestar patterns.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		e.exclude = append(e.exclude, patterns...)
	}
}

// WithFilter keeps only the tags a Risor expression accepts. See
// NewFilter for the globals the expression sees. Filter scripts named
// with "@path" and their imports resolve against scriptsDir.
func WithFilter(expr, scriptsDir string) Option {
	return func(e *Engine) {
		e.filterExpr = expr
		e.scriptsDir = scriptsDir
	}
}

// WithFilterFS is like WithFilter but loads "@path" scripts and their
// imports from fsys.
func WithFilterFS(expr string, fsys fs.FS) Option {
	return func(e *Engine) {
		e.filterExpr = expr
		e.filterFS = fsys
	}
}

// WithLogger sets the Engine's logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		useParallel: true,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, pattern := range e.exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("tags: invalid exclude pattern %q", pattern)
		}
	}

	e.loader = NewLoader(e.overrides)
	if e.filterExpr != "" {
		var (
			f   *Filter
			err error
		)
		if e.filterFS != nil {
			f, err = NewFilterFS(context.Background(), e.filterExpr, e.filterFS, e.logger)
		} else {
			f, err = NewFilter(context.Background(), e.filterExpr, e.scriptsDir, e.logger)
		}
		if err != nil {
			return nil, err
		}
		e.filter = f
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("tags: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("tags: migrate: %w", err)
	}
	e.store = s
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Loader returns the Loader the Engine resolves languages with.
func (e *Engine) Loader() *Loader {
	return e.loader
}

// queriesHash hashes every query and the filter, so a change to any of them
// invalidates the index.
func (e *Engine) queriesHash() string {
	h := xxhash.New()
	for _, lang := range runtime.Languages() {
		src, _ := e.loader.QuerySource(lang)
		h.WriteString(lang)
		h.WriteString(src)
	}
	h.WriteString(e.filterExpr)
	return strconv.FormatUint(h.Sum64(), 16)
}

// QueriesChanged reports whether the queries or filter differ from the ones
// used to build the current database. Returns true if the DB has no stored
// hash (first run). When true, the caller should Reset and reindex.
func (e *Engine) QueriesChanged() bool {
	stored, err := e.store.GetMetadata("queries_hash")
	if err != nil || stored == "" {
		return true
	}
	return stored != e.queriesHash()
}

// Reset removes every indexed file and tag.
func (e *Engine) Reset() error {
	if err := e.store.DeleteAll(); err != nil {
		return fmt.Errorf("tags: reset: %w", err)
	}
	return nil
}

// storeQueriesHash persists the current queries hash to the database.
func (e *Engine) storeQueriesHash() {
	if err := e.store.SetMetadata("queries_hash", e.queriesHash()); err != nil {
		e.logger.Warn("storing queries hash", zap.Error(err))
	}
}

// IndexFiles indexes the given file paths. When WithParallel is enabled,
// tags are generated on a worker pool and committed by a single writer.
// Otherwise falls back to the serial path.
//
// For each file:
//  1. Detect language from extension
//  2. Skip unsupported or filtered-out languages
//  3. Skip unchanged files (same content hash)
//  4. Generate tags and apply the filter
//  5. Replace the file's record and tags
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	var err error
	if e.useParallel {
		err = e.indexFilesParallel(ctx, paths)
	} else {
		err = e.indexFilesSerial(ctx, paths)
	}
	if err == nil {
		e.storeQueriesHash()
	}
	return err
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	tc := NewContext(WithContextLogger(e.logger))
	defer tc.Close()

	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := e.tagFile(ctx, tc, path)
		if err == nil && batch != nil {
			err = e.store.CommitBatch(batch)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// tagFile generates the tags of one file into a batch. A nil batch means the
// file is skipped: unsupported, filtered out or unchanged.
func (e *Engine) tagFile(ctx context.Context, tc *Context, path string) (*store.TagBatch, error) {
	lang, ok := runtime.LanguageForFile(path)
	if !ok {
		return nil, nil
	}
	if e.languages != nil && !e.languages[lang] {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return nil, nil
	}

	cfg, err := e.loader.ForLanguage(lang)
	if errors.Is(err, ErrNoTagsQuery) {
		e.logger.Debug("no tags query", zap.String("path", path), zap.String("language", lang))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	seq, err := tc.GenerateFromSource(ctx, cfg, content)
	if err != nil {
		return nil, err
	}

	batch := store.NewTagBatch(store.File{
		Path:        path,
		Language:    lang,
		Hash:        hash,
		LastIndexed: time.Now(),
	})
	if err := e.emit(ctx, seq, content, path, lang, batch); err != nil {
		return nil, err
	}
	e.logger.Debug("tagged file", zap.String("path", path), zap.Int("tags", batch.Len()))
	return batch, nil
}

// emit sends the tags the filter keeps to sink.
func (e *Engine) emit(ctx context.Context, seq iter.Seq[Tag], source []byte, path, lang string, sink store.TagSink) error {
	for tag := range seq {
		if e.filter != nil {
			keep, err := e.filter.Keep(ctx, tag, source, path, lang)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
		}
		if _, err := sink.InsertTag(storeTag(tag, source)); err != nil {
			return err
		}
	}
	return nil
}

func storeTag(tag Tag, source []byte) *store.Tag {
	return &store.Tag{
		Kind:         tag.Kind.String(),
		Name:         tag.Name(source),
		IsDefinition: tag.IsDefinition,
		SpanStart:    tag.Span.Start,
		SpanEnd:      tag.Span.End,
		NameStart:    tag.NameRange.Start,
		NameEnd:      tag.NameRange.End,
		LineStart:    tag.LineRange.Start,
		LineEnd:      tag.LineRange.End,
		Row:          tag.StartPoint.Row,
		Col:          tag.StartPoint.Column,
		Docs:         tag.Docs,
	}
}

// KeepTag applies the Engine's filter to a tag outside of indexing. Without
// a filter every tag is kept.
func (e *Engine) KeepTag(ctx context.Context, tag Tag, source []byte, path, lang string) (bool, error) {
	if e.filter == nil {
		return true, nil
	}
	return e.filter.Keep(ctx, tag, source, path, lang)
}

// skipDirs lists directories that are never indexed.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// IndexDirectory walks root and indexes all files with supported extensions,
// then drops index entries for files under root that no longer exist.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	paths, err := e.ListFiles(root)
	if err != nil {
		return err
	}
	if err := e.IndexFiles(ctx, paths); err != nil {
		return err
	}
	return e.prune(root, paths)
}

// ListFiles returns the supported files under root, honoring .gitignore at
// root and the Engine's exclude patterns. Hidden directories, node_modules,
// vendor and __pycache__ are skipped.
func (e *Engine) ListFiles(root string) ([]string, error) {
	var gi *ignore.GitIgnore
	if compiled, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		gi = compiled
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] || e.ignored(gi, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if e.ignored(gi, rel) {
			return nil
		}
		lang, ok := runtime.LanguageForFile(path)
		if !ok || (e.languages != nil && !e.languages[lang]) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func (e *Engine) ignored(gi *ignore.GitIgnore, rel string) bool {
	if gi != nil && gi.MatchesPath(rel) {
		return true
	}
	for _, pattern := range e.exclude {
		if ok, _ := doublestar.Match(pattern, strings.TrimSuffix(rel, "/")); ok {
			return true
		}
	}
	return false
}

// prune deletes index entries under root that are not in present.
func (e *Engine) prune(root string, present []string) error {
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("tags: prune: %w", err)
	}
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	var stale []int64
	for _, f := range files {
		if strings.HasPrefix(f.Path, prefix) && !keep[f.Path] {
			stale = append(stale, f.ID)
		}
	}
	if len(stale) > 0 {
		e.logger.Debug("pruning deleted files", zap.Int("files", len(stale)))
	}
	if err := e.store.DeleteFiles(stale); err != nil {
		return fmt.Errorf("tags: prune: %w", err)
	}
	return nil
}

// Lookup returns the indexed tags matching q.
func (e *Engine) Lookup(q TagQuery) ([]*TagHit, error) {
	hits, err := e.store.FindTags(q)
	if err != nil {
		return nil, fmt.Errorf("tags: lookup: %w", err)
	}
	return hits, nil
}
