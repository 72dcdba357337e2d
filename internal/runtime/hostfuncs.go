package runtime

import (
	"context"
	"regexp"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/risor-io/risor/object"
	"go.uber.org/zap"
)

// makeGlobFn creates the "glob" host function.
//
// glob(pattern, path) → bool, with doublestar semantics ("**" spans
// directories).
func makeGlobFn() *object.Builtin {
	return object.NewBuiltin("glob", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("glob", 2, len(args))
		}
		pattern, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("glob: pattern must be a string, got %s", args[0].Type())
		}
		path, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("glob: path must be a string, got %s", args[1].Type())
		}
		matched, err := doublestar.Match(pattern.Value(), path.Value())
		if err != nil {
			return object.Errorf("glob: %v", err)
		}
		return object.NewBool(matched)
	})
}

// regexCache holds compiled "matches" patterns; filters run once per tag and
// keep using the same few expressions.
var regexCache sync.Map

// makeMatchesFn creates the "matches" host function.
//
// matches(regex, text) → bool
func makeMatchesFn() *object.Builtin {
	return object.NewBuiltin("matches", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("matches", 2, len(args))
		}
		expr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("matches: regex must be a string, got %s", args[0].Type())
		}
		text, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("matches: text must be a string, got %s", args[1].Type())
		}

		var re *regexp.Regexp
		if cached, ok := regexCache.Load(expr.Value()); ok {
			re = cached.(*regexp.Regexp)
		} else {
			compiled, err := regexp.Compile(expr.Value())
			if err != nil {
				return object.Errorf("matches: %v", err)
			}
			regexCache.Store(expr.Value(), compiled)
			re = compiled
		}
		return object.NewBool(re.MatchString(text.Value()))
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *zap.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, zap.String("source", "filter"))
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, zap.String("source", "filter"))
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, zap.String("source", "filter"))
}
