// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format implements the OutputFormatting capability. It renders the
// compiled Markdown either as Markdown with a YAML front matter block naming
// the venue, or as a standalone LaTeX article.
package format

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// wordsPerPage matches the compiler's page estimate.
const wordsPerPage = 250

// Formatter serves the OutputFormatting capability.
type Formatter struct {
	format types.OutputFormat
	logger *zap.Logger
}

// New returns a formatter for the given output format. An empty format means
// Markdown.
func New(format types.OutputFormat, logger *zap.Logger) (*Formatter, error) {
	switch format {
	case "":
		format = types.OutputMarkdown
	case types.OutputMarkdown, types.OutputLaTeX:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{format: format, logger: logger}, nil
}

// Name implements pipeline.Provider.
func (f *Formatter) Name() string { return string(f.format) + "-formatter" }

// frontMatter is the YAML block heading Markdown output.
type frontMatter struct {
	Title      string   `yaml:"title,omitempty"`
	Journal    string   `yaml:"journal,omitempty"`
	Conference string   `yaml:"conference,omitempty"`
	Style      string   `yaml:"citation_style,omitempty"`
	Words      int      `yaml:"word_count"`
	Pages      int      `yaml:"page_estimate"`
	Warnings   []string `yaml:"warnings,omitempty"`
}

// Execute formats the compiled paper for the target venue. Limit overruns
// are reported as warnings; the text is never cut.
func (f *Formatter) Execute(_ context.Context, input any, call pipeline.CallContext) (pipeline.Result, error) {
	in, ok := input.(types.FormattingInput)
	if !ok {
		return pipeline.Fail("expected FormattingInput input, got %T", input), nil
	}
	if strings.TrimSpace(in.Content) == "" {
		return pipeline.Fail("no content to format"), nil
	}

	words := len(strings.Fields(in.Content))
	pages := (words + wordsPerPage - 1) / wordsPerPage
	warnings := limitWarnings(in.Limits, words, pages)
	for _, w := range warnings {
		f.logger.Warn("format limit exceeded", zap.String("run_id", call.RunID), zap.String("warning", w))
	}

	var (
		out string
		err error
	)
	switch f.format {
	case types.OutputLaTeX:
		out, err = ToLaTeX(in.Content, in.Target)
	default:
		out, err = withFrontMatter(in, words, pages, warnings)
	}
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Succeed(types.FormattedOutput{Content: out}), nil
}

func limitWarnings(l types.FormatLimits, words, pages int) []string {
	var out []string
	if l.WordLimit > 0 && words > l.WordLimit {
		out = append(out, fmt.Sprintf("%d words exceeds the limit of %d", words, l.WordLimit))
	}
	if l.PageLimit > 0 && pages > l.PageLimit {
		out = append(out, fmt.Sprintf("%d pages exceeds the limit of %d", pages, l.PageLimit))
	}
	return out
}

func withFrontMatter(in types.FormattingInput, words, pages int, warnings []string) (string, error) {
	fm := frontMatter{
		Title:      documentTitle(in.Content),
		Journal:    in.Target.Journal,
		Conference: in.Target.Conference,
		Style:      string(in.Target.Style),
		Words:      words,
		Pages:      pages,
		Warnings:   warnings,
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimLeft(in.Content, "\n"))
	return buf.String(), nil
}

// documentTitle returns the text of the first level-1 heading.
func documentTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if t, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return ""
}
