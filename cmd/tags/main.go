package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/tags/internal/config"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// app holds the persistent flags and what PersistentPreRunE derives from
// them.
type app struct {
	configPath string
	db         string
	format     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// newRootCmd builds the command tree. A nil logger is built from --verbose.
func newRootCmd(logger *zap.Logger) *cobra.Command {
	a := &app{logger: logger}
	root := &cobra.Command{
		Use:           "tags",
		Short:         "Extract symbol tags from source code with tree-sitter queries",
		Long:          "tags runs tree-sitter tag queries over source files, printing the definitions and references they find or storing them in a SQLite index for lookup.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: "+config.FileName+" in the repo root)")
	root.PersistentFlags().StringVar(&a.db, "db", "", "database path (default: .tags/index.db relative to repo root)")
	root.PersistentFlags().StringVar(&a.format, "format", "text", "output format: json|text")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newGenerateCmd(a),
		newIndexCmd(a),
		newLookupCmd(a),
		newCheckCmd(a),
		newLanguagesCmd(a),
	)
	return root
}

func (a *app) setup() error {
	if err := validateFormat(a.format); err != nil {
		return err
	}

	if a.logger == nil {
		var err error
		if a.verbose {
			a.logger, err = zap.NewDevelopment()
		} else {
			a.logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
	}

	path := a.configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting cwd: %w", err)
		}
		path = filepath.Join(findRepoRoot(cwd), config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath picks the database path: --db, then the config's db, then
// .tags/index.db. Relative paths are taken from repoRoot.
func (a *app) resolveDBPath(repoRoot string) string {
	db := a.db
	if db == "" && a.cfg != nil {
		db = a.cfg.DB
	}
	if db == "" {
		return filepath.Join(repoRoot, ".tags", "index.db")
	}
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(repoRoot, db)
}
