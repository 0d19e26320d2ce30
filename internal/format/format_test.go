// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

const compiled = `# Heat and Folding

## Abstract

We saw a 40% gain & more.

**Keywords:** folding

## 1. Results

Rates fell.

**Figure 1.** Rate_vs_T.

## References

1. Smith, J. (2020). Folding.

2. Lee, K. (2021). Heat.
`

func execute(t *testing.T, f *Formatter, in any) types.FormattedOutput {
	t.Helper()
	res, err := f.Execute(context.Background(), in, pipeline.CallContext{RunID: "r"})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	return res.Content.(types.FormattedOutput)
}

func TestNew(t *testing.T) {
	f, err := New("", nil)
	require.NoError(t, err)
	assert.Equal(t, "markdown-formatter", f.Name())

	f, err = New(types.OutputLaTeX, nil)
	require.NoError(t, err)
	assert.Equal(t, "latex-formatter", f.Name())

	_, err = New("docx", nil)
	assert.ErrorContains(t, err, `unknown output format "docx"`)
}

func TestMarkdown_FrontMatter(t *testing.T) {
	f, err := New(types.OutputMarkdown, zaptest.NewLogger(t))
	require.NoError(t, err)

	out := execute(t, f, types.FormattingInput{
		Content: compiled,
		Target:  types.Target{Journal: "Nature Chemistry", Style: types.StyleNature},
		Limits:  types.FormatLimits{WordLimit: 10, PageLimit: 20},
	})

	require.True(t, strings.HasPrefix(out.Content, "---\n"))
	head, body, ok := strings.Cut(strings.TrimPrefix(out.Content, "---\n"), "---\n\n")
	require.True(t, ok)
	assert.Equal(t, compiled, body)

	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(head), &fm))
	assert.Equal(t, "Heat and Folding", fm.Title)
	assert.Equal(t, "Nature Chemistry", fm.Journal)
	assert.Equal(t, "Nature", fm.Style)
	assert.Equal(t, len(strings.Fields(compiled)), fm.Words)
	assert.Equal(t, 1, fm.Pages)
	require.Len(t, fm.Warnings, 1)
	assert.Contains(t, fm.Warnings[0], "exceeds the limit of 10")
}

func TestLaTeX(t *testing.T) {
	f, err := New(types.OutputLaTeX, nil)
	require.NoError(t, err)

	out := execute(t, f, types.FormattingInput{
		Content: compiled,
		Target:  types.Target{Journal: "JACS", Conference: "ACS Fall", Style: types.StyleAPA},
	}).Content

	for _, want := range []string{
		`\documentclass[11pt]{article}`,
		`\title{Heat and Folding}`,
		`% Prepared for JACS / ACS Fall`,
		`% Citation style: APA`,
		`\maketitle`,
		`\section*{Abstract}`,
		`We saw a 40\% gain \& more.`,
		`\textbf{Keywords:} folding`,
		`\section*{1. Results}`,
		`\textbf{Figure 1.} Rate\_vs\_T.`,
		"\\begin{enumerate}\n  \\item Smith, J. (2020). Folding.\n  \\item Lee, K. (2021). Heat.\n\\end{enumerate}",
	} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "\\end{document}\n"))
	assert.NotContains(t, out, "# Heat")
	assert.NotContains(t, out, "\n\n\n")
}

func TestLaTeX_NoTitleOrVenue(t *testing.T) {
	out, err := ToLaTeX("Just text with a \\ backslash and ~tilde.", types.Target{})
	require.NoError(t, err)
	assert.NotContains(t, out, `\title`)
	assert.NotContains(t, out, `\maketitle`)
	assert.NotContains(t, out, "% Prepared for")
	assert.Contains(t, out, `Just text with a \textbackslash{} backslash and \textasciitilde{}tilde.`)
}

func TestFormatter_Failures(t *testing.T) {
	f, err := New(types.OutputMarkdown, nil)
	require.NoError(t, err)

	res, err := f.Execute(context.Background(), types.FormattingInput{Content: "\n"}, pipeline.CallContext{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no content")

	res, err = f.Execute(context.Background(), types.CompiledDraft{}, pipeline.CallContext{})
	require.NoError(t, err)
	assert.Contains(t, res.Error, "FormattingInput")
}

func TestLimitWarnings(t *testing.T) {
	assert.Empty(t, limitWarnings(types.FormatLimits{}, 1e6, 1e4))
	assert.Equal(t, []string{"30 pages exceeds the limit of 20"}, limitWarnings(types.FormatLimits{WordLimit: 10000, PageLimit: 20}, 7500, 30))
}
