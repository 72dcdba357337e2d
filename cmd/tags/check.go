package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/tags"
	"github.com/jward/tags/internal/query"
	"github.com/jward/tags/internal/runtime"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <query.scm>...",
		Short: "Validate tag query files",
		Long:  "Compiles each query file and reports the first error with its pattern index, row and column (both 1-based in text output).",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args)
		},
	}
}

func (a *app) runCheck(cmd *cobra.Command, paths []string) error {
	var (
		results []CLICheck
		failed  int
	)
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		res := CLICheck{Path: path}
		q, err := query.Compile(string(src), tags.IsKindCapture)
		var qerr *query.Error
		switch {
		case errors.As(err, &qerr):
			failed++
			res.Error = &CLICheckError{
				Kind:    qerr.Kind.String(),
				Pattern: qerr.Pattern,
				Row:     qerr.Row,
				Column:  qerr.Column,
				Message: qerr.Message,
			}
		case err != nil:
			return err
		default:
			res.Patterns = q.PatternCount()
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if a.format == "json" {
		if err := writeJSON(out, CLIResult{Command: "check", Results: results}); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if e := r.Error; e != nil {
				fmt.Fprintf(out, "%s:%d:%d: %s error in pattern %d: %s\n",
					r.Path, e.Row+1, e.Column+1, e.Kind, e.Pattern, e.Message)
				continue
			}
			fmt.Fprintf(out, "%s: ok (%d patterns)\n", r.Path, r.Patterns)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed to compile", failed, len(paths))
	}
	return nil
}

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var langs []CLILanguage
			for _, name := range runtime.Languages() {
				langs = append(langs, CLILanguage{
					Name:       name,
					Scope:      runtime.ScopeForLanguage(name),
					Extensions: runtime.Extensions(name),
				})
			}
			if a.format == "json" {
				return writeJSON(cmd.OutOrStdout(), CLIResult{Command: "languages", Results: langs})
			}
			formatLanguagesText(cmd.OutOrStdout(), langs)
			return nil
		},
	}
}
