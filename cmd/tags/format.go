package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/tags"
)

var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// CLIResult is the JSON envelope for lookup, check and languages.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLITag is one generated tag. generate writes one per line in JSON mode.
type CLITag struct {
	Path         string     `json:"path"`
	Language     string     `json:"language"`
	Kind         tags.Kind  `json:"kind"`
	Name         string     `json:"name"`
	IsDefinition bool       `json:"is_definition"`
	Span         tags.Range `json:"span"`
	NameRange    tags.Range `json:"name_range"`
	Line         string     `json:"line"`
	Row          int        `json:"row"`
	Column       int        `json:"column"`
	Docs         *string    `json:"docs"`
}

func newCLITag(tag tags.Tag, source []byte, path, lang string) CLITag {
	return CLITag{
		Path:         path,
		Language:     lang,
		Kind:         tag.Kind,
		Name:         tag.Name(source),
		IsDefinition: tag.IsDefinition,
		Span:         tag.Span,
		NameRange:    tag.NameRange,
		Line:         tag.Line(source),
		Row:          tag.StartPoint.Row,
		Column:       tag.StartPoint.Column,
		Docs:         tag.Docs,
	}
}

// writeTagText writes a tag as "<kind>\t<name>\t<start> - <end>\tdocs:<docs>".
func writeTagText(w io.Writer, tag tags.Tag, source []byte) error {
	_, err := fmt.Fprintf(w, "%s\t%s\t%d - %d\tdocs:%s\n",
		tag.Kind, tag.Name(source), tag.Span.Start, tag.Span.End, tag.DocText())
	return err
}

// CLIHit is a tag found in the index.
type CLIHit struct {
	Path         string  `json:"path"`
	Language     string  `json:"language"`
	Kind         string  `json:"kind"`
	Name         string  `json:"name"`
	IsDefinition bool    `json:"is_definition"`
	Line         int     `json:"line"`
	Column       int     `json:"column"`
	Docs         *string `json:"docs,omitempty"`
}

func newCLIHits(hits []*tags.TagHit) []CLIHit {
	out := make([]CLIHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, CLIHit{
			Path:         h.Path,
			Language:     h.Language,
			Kind:         h.Kind,
			Name:         h.Name,
			IsDefinition: h.IsDefinition,
			Line:         h.Row + 1,
			Column:       h.Col + 1,
			Docs:         h.Docs,
		})
	}
	return out
}

// formatHitsText formats hits as "file:line:col" followed by kind and name.
func formatHitsText(w io.Writer, hits []CLIHit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, h := range hits {
		def := "ref"
		if h.IsDefinition {
			def = "def"
		}
		fmt.Fprintf(tw, "%s:%d:%d\t%s\t%s\t%s\n", h.Path, h.Line, h.Column, h.Kind, def, h.Name)
	}
	tw.Flush()
}

// CLILanguage describes a supported language.
type CLILanguage struct {
	Name       string   `json:"name"`
	Scope      string   `json:"scope"`
	Extensions []string `json:"extensions"`
}

func formatLanguagesText(w io.Writer, langs []CLILanguage) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tSCOPE\tEXTENSIONS")
	for _, l := range langs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name, l.Scope, strings.Join(l.Extensions, " "))
	}
	tw.Flush()
}

// CLICheck is the outcome of compiling a query file. Error is nil when the
// query compiled.
type CLICheck struct {
	Path     string         `json:"path"`
	Patterns int            `json:"patterns,omitempty"`
	Error    *CLICheckError `json:"error,omitempty"`
}

// CLICheckError locates a compile error. Pattern, Row and Column are
// zero-based.
type CLICheckError struct {
	Kind    string `json:"kind"`
	Pattern int    `json:"pattern"`
	Row     int    `json:"row"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
