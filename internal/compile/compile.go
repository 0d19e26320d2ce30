// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compile implements the DraftCompilation capability: it lays the
// drafted sections, keywords, figure captions, and reference list out as one
// Markdown document and measures it.
package compile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// WordsPerPage is the page estimate used for PageCount.
const WordsPerPage = 250

// Compiler serves the DraftCompilation capability.
type Compiler struct {
	logger *zap.Logger
}

// New returns a compiler.
func New(logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{logger: logger}
}

// Name implements pipeline.Provider.
func (c *Compiler) Name() string { return "markdown-compiler" }

// Execute compiles the draft. A draft with no title and no section text is a
// failure.
func (c *Compiler) Execute(_ context.Context, input any, call pipeline.CallContext) (pipeline.Result, error) {
	in, ok := input.(types.CompilationInput)
	if !ok {
		return pipeline.Fail("expected CompilationInput input, got %T", input), nil
	}
	if strings.TrimSpace(in.Sections.Title) == "" && !hasBody(in.Sections) {
		return pipeline.Fail("nothing to compile: draft has no title and no sections"), nil
	}

	text := Layout(in)
	words := CountWords(text)
	out := types.CompiledDraft{
		Formatted: text,
		WordCount: words,
		PageCount: EstimatePages(words),
	}

	c.logger.Debug("draft compiled",
		zap.String("run_id", call.RunID),
		zap.Int("words", out.WordCount),
		zap.Int("pages", out.PageCount),
	)
	return pipeline.Succeed(out), nil
}

// section is one numbered body section of the layout.
type section struct {
	name string
	body string
}

// Layout renders the compiled Markdown document: title, authors, abstract,
// keywords, numbered sections with figure captions under their placement,
// and the reference list.
func Layout(in types.CompilationInput) string {
	var b strings.Builder
	s := in.Sections

	if s.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(s.Title))
	}
	if line := authorLine(in.Metadata.Authors); line != "" {
		fmt.Fprintf(&b, "%s\n\n", line)
	}
	if s.Abstract != "" {
		fmt.Fprintf(&b, "## Abstract\n\n%s\n\n", strings.TrimSpace(s.Abstract))
	}
	if len(in.Metadata.Keywords) > 0 {
		fmt.Fprintf(&b, "**Keywords:** %s\n\n", strings.Join(in.Metadata.Keywords, ", "))
	}

	placed := make(map[string]bool)
	n := 0
	for _, sec := range []section{
		{"Introduction", s.Introduction},
		{"Methods", s.Methods},
		{"Results", s.Results},
		{"Discussion", s.Discussion},
		{"Conclusion", s.Conclusion},
	} {
		if sec.body == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "## %d. %s\n\n%s\n\n", n, sec.name, strings.TrimSpace(sec.body))
		for _, f := range in.Figures {
			if strings.EqualFold(f.Placement, sec.name) {
				writeCaption(&b, f)
				placed[figureKey(f)] = true
			}
		}
	}

	// Figures whose section was not drafted are listed before the references.
	var loose []types.FigurePlacement
	for _, f := range in.Figures {
		if !placed[figureKey(f)] {
			loose = append(loose, f)
		}
	}
	if len(loose) > 0 {
		b.WriteString("## Figures\n\n")
		for _, f := range loose {
			writeCaption(&b, f)
		}
	}

	if refs := strings.TrimSpace(in.ReferenceList); refs != "" {
		fmt.Fprintf(&b, "## References\n\n%s\n", refs)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeCaption(b *strings.Builder, f types.FigurePlacement) {
	fmt.Fprintf(b, "**Figure %d.** %s\n\n", f.Index, strings.TrimSpace(f.Caption))
}

func figureKey(f types.FigurePlacement) string {
	return fmt.Sprintf("%d\x00%s", f.Index, f.Caption)
}

func authorLine(authors []types.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.Name == "" {
			continue
		}
		if a.Affiliation != "" {
			names = append(names, fmt.Sprintf("%s (%s)", a.Name, a.Affiliation))
			continue
		}
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func hasBody(s types.SectionSet) bool {
	for _, body := range s.Bodies() {
		if strings.TrimSpace(body) != "" {
			return true
		}
	}
	return false
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// EstimatePages converts a word count to pages, rounding up. Zero words is
// zero pages.
func EstimatePages(words int) int {
	return (words + WordsPerPage - 1) / WordsPerPage
}
