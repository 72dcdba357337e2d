package runtime

import (
	"embed"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

//go:embed queries/*.scm
var queryFS embed.FS

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".py":   "python",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".java": "java",
	".php":  "php",
	".rb":   "ruby",
}

// scopeToLanguage maps TextMate scope names to canonical language names.
var scopeToLanguage = map[string]string{
	"source.go":     "go",
	"source.ts":     "typescript",
	"source.js":     "javascript",
	"source.python": "python",
	"source.rust":   "rust",
	"source.c":      "c",
	"source.cpp":    "cpp",
	"source.java":   "java",
	"source.php":    "php",
	"source.ruby":   "ruby",
}

// langToGrammar maps language names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"typescript": ts.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
			"c":          c.GetLanguage(),
			"cpp":        cpp.GetLanguage(),
			"java":       java.GetLanguage(),
			"php":        php.GetLanguage(),
			"ruby":       ruby.GetLanguage(),
		}
	})
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// LanguageForScope returns the language registered for a scope name such as
// "source.python".
func LanguageForScope(scope string) (string, bool) {
	lang, ok := scopeToLanguage[scope]
	return lang, ok
}

// ScopeForLanguage is the inverse of LanguageForScope.
func ScopeForLanguage(lang string) string {
	for scope, l := range scopeToLanguage {
		if l == lang {
			return scope
		}
	}
	return ""
}

// GrammarForLanguage returns the tree-sitter Language for a canonical
// language name. Returns (nil, false) if the language is not supported.
func GrammarForLanguage(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[lang]
	return l, ok
}

// TagsQuery returns the built-in tags query for a language.
func TagsQuery(lang string) (string, bool) {
	data, err := queryFS.ReadFile("queries/" + lang + ".scm")
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Languages returns the supported language names, sorted.
func Languages() []string {
	initGrammars()
	langs := make([]string, 0, len(langToGrammar))
	for lang := range langToGrammar {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// Extensions returns the file extensions registered for a language, sorted.
func Extensions(lang string) []string {
	var exts []string
	for ext, l := range extToLanguage {
		if l == lang {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}
