package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var callTag = TagInfo{
	Kind:     "Call",
	Name:     "compute_age",
	File:     "src/models/customer.py",
	Language: "python",
	Start:    120,
	End:      140,
	Line:     5,
}

var classTag = TagInfo{
	Kind:       "Class",
	Name:       "Customer",
	Docs:       "Data about a customer",
	File:       "src/models/customer.py",
	Language:   "python",
	Definition: true,
	Start:      0,
	End:        140,
	Line:       1,
}

func TestFilter_Keep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		expr      string
		wantCall  bool
		wantClass bool
	}{
		{"by kind", `kind == "Call"`, true, false},
		{"definitions", `definition`, false, true},
		{"has docs", `docs != ""`, false, true},
		{"by line", `line > 1`, true, false},
		{"by range", `end - start < 50`, true, false},
		{"glob on file", `glob("src/**/*.py", file)`, true, true},
		{"glob miss", `glob("test/**", file)`, false, false},
		{"regex on name", `matches("^[A-Z]", name)`, false, true},
		{"combined", `language == "python" && definition == false`, true, false},
	}

	rt := NewRuntime("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f, err := rt.Filter(ctx, tt.expr)
			require.NoError(t, err)

			got, err := f.Keep(ctx, callTag)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCall, got, "call tag")

			got, err = f.Keep(ctx, classTag)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClass, got, "class tag")
		})
	}
}

func TestFilter_Errors(t *testing.T) {
	rt := NewRuntime(t.TempDir())
	ctx := context.Background()

	_, err := rt.Filter(ctx, `kind ==`)
	assert.Error(t, err)

	_, err = rt.Filter(ctx, "   ")
	assert.Error(t, err)

	_, err = rt.Filter(ctx, "@missing.risor")
	assert.Error(t, err)
}

func TestFilter_FromScriptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "calls.risor"), []byte(`
import helpers
helpers.is_call(kind)
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.risor"), []byte(`
func is_call(k) {
	return k == "Call"
}
`), 0o644))

	rt := NewRuntime(dir)
	ctx := context.Background()
	f, err := rt.Filter(ctx, "@calls.risor")
	require.NoError(t, err)

	keep, err := f.Keep(ctx, callTag)
	require.NoError(t, err)
	assert.True(t, keep)

	keep, err = f.Keep(ctx, classTag)
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestFilter_LogGoesToZap(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rt := NewRuntime("", WithRuntimeLogger(zap.New(core)))
	ctx := context.Background()

	f, err := rt.Filter(ctx, `if name != "" { log.Warn("saw " + name) }
true`)
	require.NoError(t, err)

	keep, err := f.Keep(ctx, classTag)
	require.NoError(t, err)
	assert.True(t, keep)

	entries := logs.FilterMessage("saw Customer").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
}

func TestRunSource(t *testing.T) {
	rt := NewRuntime("")
	result, err := rt.RunSource(context.Background(), `x := 1 + 2
x == 3`, nil)
	require.NoError(t, err)
	assert.True(t, result.IsTruthy())
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `x := 42`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(content), 0o644))

	rt := NewRuntime(dir)
	got, err := rt.LoadScript("test.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	got, err = rt.LoadScript(filepath.Join(dir, "test.risor"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	content := `kind == "Call"`
	mapFS := fstest.MapFS{
		"filters/calls.risor": &fstest.MapFile{Data: []byte(content)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("/filters/calls.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestImport_FSImporter(t *testing.T) {
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func greet(name) {
	return "hello " + name
}
`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	result, err := rt.RunSource(context.Background(), `
import lib_helpers
lib_helpers.greet("world") == "hello world"
`, nil)
	require.NoError(t, err)
	assert.True(t, result.IsTruthy())
}

func TestBuiltinFilters(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("", WithRuntimeFS(BuiltinFilters()))
	ctx := context.Background()

	tests := []struct {
		script string
		tag    TagInfo
		want   bool
	}{
		{"definitions.risor", TagInfo{Kind: "Function", Definition: true}, true},
		{"definitions.risor", TagInfo{Kind: "Call"}, false},
		{"no_tests.risor", TagInfo{File: "pkg/server.go"}, true},
		{"no_tests.risor", TagInfo{File: "pkg/server_test.go"}, false},
		{"no_tests.risor", TagInfo{File: "tests/test_models.py"}, false},
		{"no_tests.risor", TagInfo{File: "web/app.spec.ts"}, false},
		{"no_private.risor", TagInfo{Name: "compute_age"}, true},
		{"no_private.risor", TagInfo{Name: "_helper"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.script+"/"+tt.tag.File+tt.tag.Name+tt.tag.Kind, func(t *testing.T) {
			f, err := rt.Filter(ctx, "@"+tt.script)
			require.NoError(t, err)
			got, err := f.Keep(ctx, tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
