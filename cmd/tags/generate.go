package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/tags"
	"github.com/jward/tags/internal/runtime"
)

type generateFlags struct {
	scope  string
	filter string
	strict bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate <path>...",
		Short: "Print the tags of source files",
		Long: "Parses each file with the grammar chosen by its extension (or --scope) and prints its tags in document order.\n" +
			"Text output is one tag per line: <kind>\\t<name>\\t<start> - <end>\\tdocs:<docs>.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, f, args)
		},
	}
	cmd.Flags().StringVar(&f.scope, "scope", "", "use the language for this scope (e.g. source.python) for every path")
	cmd.Flags().StringVar(&f.filter, "filter", "", "Risor expression selecting tags to print; @file loads a script, @builtin:name a shipped one")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail on paths with no language or tags query instead of skipping them")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, f generateFlags, paths []string) error {
	overrides, err := a.cfg.QueryOverrides()
	if err != nil {
		return err
	}
	loader := tags.NewLoader(overrides)

	var (
		scoped     *tags.Configuration
		scopedLang string
	)
	if f.scope != "" {
		scoped, err = loader.ForScope(f.scope)
		if err != nil {
			return err
		}
		scopedLang, _ = runtime.LanguageForScope(f.scope)
	}

	expr := f.filter
	if expr == "" {
		expr = a.cfg.Filter
	}
	var filter *tags.Filter
	if expr != "" {
		filter, err = tags.NewFilter(cmd.Context(), expr, ".", a.logger)
		if err != nil {
			return err
		}
	}

	tc := tags.NewContext(tags.WithContextLogger(a.logger))
	defer tc.Close()

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()
	enc := json.NewEncoder(out)

	for _, path := range paths {
		lang, cfg := scopedLang, scoped
		if cfg == nil {
			lang, cfg, err = loader.ForPath(path)
			if errors.Is(err, tags.ErrUnknownLanguage) || errors.Is(err, tags.ErrNoTagsQuery) {
				if f.strict {
					return err
				}
				a.logger.Warn("skipping path", zap.String("path", path), zap.Error(err))
				continue
			}
			if err != nil {
				return err
			}
		}

		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		seq, err := tc.GenerateFromSource(cmd.Context(), cfg, source)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for tag := range seq {
			if filter != nil {
				keep, err := filter.Keep(cmd.Context(), tag, source, path, lang)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if !keep {
					continue
				}
			}
			if a.format == "json" {
				err = enc.Encode(newCLITag(tag, source, path, lang))
			} else {
				err = writeTagText(out, tag, source)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
