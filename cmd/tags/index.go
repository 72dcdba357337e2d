package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/tags"
)

type indexFlags struct {
	force      bool
	languages  string
	scriptsDir string
	serial     bool
}

func newIndexCmd(a *app) *cobra.Command {
	var f indexFlags
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index the tags of a directory tree",
		Long: "Walks a directory, honoring .gitignore and the configured excludes, and stores the tags of every supported file in the SQLite index. " +
			"Unchanged files are skipped; the index is rebuilt when the queries or filter change.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd, f, args)
		},
	}
	cmd.Flags().BoolVar(&f.force, "force", false, "delete the database and reindex from scratch")
	cmd.Flags().StringVar(&f.languages, "languages", "", "comma-separated language filter (e.g. go,python)")
	cmd.Flags().StringVar(&f.scriptsDir, "scripts-dir", "", "directory filter scripts and their imports resolve against")
	cmd.Flags().BoolVar(&f.serial, "serial", false, "index files one at a time")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, f indexFlags, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := a.resolveDBPath(repoRoot)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	if f.force {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		a.logger.Info("cleared database", zap.String("db", dbPath))
	}

	overrides, err := a.cfg.QueryOverrides()
	if err != nil {
		return err
	}
	opts := []tags.Option{
		tags.WithLogger(a.logger),
		tags.WithQueries(overrides),
		tags.WithExclude(a.cfg.Exclude...),
		tags.WithWorkers(a.cfg.Workers),
		tags.WithParallel(!f.serial),
	}
	if f.languages != "" {
		langs := strings.Split(f.languages, ",")
		for i := range langs {
			langs[i] = strings.TrimSpace(langs[i])
		}
		opts = append(opts, tags.WithLanguages(langs...))
	}
	if a.cfg.Filter != "" {
		scriptsDir := f.scriptsDir
		if scriptsDir == "" {
			scriptsDir = repoRoot
		}
		opts = append(opts, tags.WithFilter(a.cfg.Filter, scriptsDir))
	}

	engine, err := tags.New(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	if engine.QueriesChanged() {
		a.logger.Info("queries changed, rebuilding index", zap.String("db", dbPath))
		if err := engine.Reset(); err != nil {
			return err
		}
	}
	if err := engine.IndexDirectory(cmd.Context(), targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	counts, err := engine.Store().CountTags()
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %s in %s (%d tags)\n",
		targetDir, time.Since(start).Round(time.Millisecond), total)
	fmt.Fprintf(cmd.ErrOrStderr(), "Database: %s\n", dbPath)
	return nil
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

type lookupFlags struct {
	kind        string
	definitions bool
	limit       int
}

func newLookupCmd(a *app) *cobra.Command {
	var f lookupFlags
	cmd := &cobra.Command{
		Use:   "lookup <name>",
		Short: "Find indexed tags by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLookup(cmd, f, args[0])
		},
	}
	cmd.Flags().StringVar(&f.kind, "kind", "", "only tags of this kind (function, method, class, module, interface, call)")
	cmd.Flags().BoolVar(&f.definitions, "definitions", false, "only definitions")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of results (0 for all)")
	return cmd
}

func (a *app) runLookup(cmd *cobra.Command, f lookupFlags, name string) error {
	q := tags.TagQuery{Name: name, DefinitionOnly: f.definitions, Limit: f.limit}
	if f.kind != "" {
		kind, ok := tags.ParseKind(f.kind)
		if !ok {
			return fmt.Errorf("unknown kind %q", f.kind)
		}
		q.Kind = kind.String()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := a.resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database not found: %s (run 'tags index' first)", dbPath)
	}

	engine, err := tags.New(dbPath, tags.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer engine.Close()

	hits, err := engine.Lookup(q)
	if err != nil {
		return err
	}
	results := newCLIHits(hits)
	if a.format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResult{Command: "lookup", Results: results})
	}
	formatHitsText(cmd.OutOrStdout(), results)
	return nil
}
