package tags

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jward/tags/internal/runtime"
)

var (
	// ErrUnknownScope is returned for a scope name with no registered language.
	ErrUnknownScope = errors.New("unknown scope")
	// ErrUnknownLanguage is returned for a language or file type that has no
	// grammar.
	ErrUnknownLanguage = errors.New("no language found")
	// ErrNoTagsQuery is returned for a language without a tags query.
	ErrNoTagsQuery = errors.New("no tags config found")
)

type loaded struct {
	once sync.Once
	cfg  *Configuration
	err  error
}

// Loader resolves languages to Configurations, compiling each language's
// query once. A Loader is safe for concurrent use.
type Loader struct {
	overrides map[string]string

	mu      sync.Mutex
	configs map[string]*loaded
}

// NewLoader returns a Loader using the built-in queries, except for the
// languages in overrides, which map a language name to query source.
func NewLoader(overrides map[string]string) *Loader {
	return &Loader{
		overrides: overrides,
		configs:   make(map[string]*loaded),
	}
}

// ForLanguage returns the Configuration for a language name.
func (l *Loader) ForLanguage(lang string) (*Configuration, error) {
	l.mu.Lock()
	entry, ok := l.configs[lang]
	if !ok {
		entry = &loaded{}
		l.configs[lang] = entry
	}
	l.mu.Unlock()

	entry.once.Do(func() {
		entry.cfg, entry.err = l.load(lang)
	})
	return entry.cfg, entry.err
}

// ForScope returns the Configuration for a scope name such as
// "source.python".
func (l *Loader) ForScope(scope string) (*Configuration, error) {
	lang, ok := runtime.LanguageForScope(scope)
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownScope, scope)
	}
	return l.ForLanguage(lang)
}

// ForPath returns the language name and Configuration for a file path,
// chosen by its extension.
func (l *Loader) ForPath(path string) (string, *Configuration, error) {
	lang, ok := runtime.LanguageForFile(path)
	if !ok {
		return "", nil, fmt.Errorf("%w for path %q", ErrUnknownLanguage, path)
	}
	cfg, err := l.ForLanguage(lang)
	return lang, cfg, err
}

// QuerySource returns the query text a language is compiled from.
func (l *Loader) QuerySource(lang string) (string, bool) {
	if src, ok := l.overrides[lang]; ok {
		return src, true
	}
	return runtime.TagsQuery(lang)
}

func (l *Loader) load(lang string) (*Configuration, error) {
	grammar, ok := runtime.GrammarForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	src, ok := l.QuerySource(lang)
	if !ok {
		return nil, fmt.Errorf("%w for language %q", ErrNoTagsQuery, lang)
	}
	cfg, err := NewConfiguration(grammar, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lang, err)
	}
	return cfg, nil
}
