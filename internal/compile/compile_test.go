// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

func TestLayout(t *testing.T) {
	in := types.CompilationInput{
		Sections: types.SectionSet{
			Title:        "Heat and Folding",
			Abstract:     "We measured folding.",
			Introduction: "Proteins fold.",
			Results:      "Rates fell.",
			Conclusion:   "Heat matters.",
		},
		ReferenceList: "1. Smith, J. (2020). Folding.",
		Figures: []types.FigurePlacement{
			{Index: 1, Caption: "Rate versus temperature.", Placement: "Results"},
			{Index: 2, Caption: "Apparatus.", Placement: "Methods"},
		},
		Metadata: types.CompilationMetadata{
			Authors:  []types.Author{{Name: "A. Researcher", Affiliation: "Lab"}, {Name: "B. Student"}},
			Keywords: []string{"folding", "proteins"},
		},
	}

	want := `# Heat and Folding

A. Researcher (Lab), B. Student

## Abstract

We measured folding.

**Keywords:** folding, proteins

## 1. Introduction

Proteins fold.

## 2. Results

Rates fell.

**Figure 1.** Rate versus temperature.

## 3. Conclusion

Heat matters.

## Figures

**Figure 2.** Apparatus.

## References

1. Smith, J. (2020). Folding.
`
	assert.Equal(t, want, Layout(in))
}

func TestLayout_Minimal(t *testing.T) {
	got := Layout(types.CompilationInput{Sections: types.SectionSet{Title: "Only a title"}})
	assert.Equal(t, "# Only a title\n", got)
}

func TestEstimatePages(t *testing.T) {
	tests := []struct {
		words, pages int
	}{
		{0, 0},
		{1, 1},
		{250, 1},
		{251, 2},
		{1000, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.pages, EstimatePages(tt.words), "words=%d", tt.words)
	}
}

func TestCompiler_Execute(t *testing.T) {
	c := New(zaptest.NewLogger(t))
	body := strings.Repeat("word ", 300)
	in := types.CompilationInput{Sections: types.SectionSet{Title: "T", Results: body}}

	res, err := c.Execute(context.Background(), in, pipeline.CallContext{RunID: "r"})
	require.NoError(t, err)
	require.True(t, res.Success)

	out := res.Content.(types.CompiledDraft)
	assert.Equal(t, CountWords(out.Formatted), out.WordCount)
	// "# T" adds two tokens, "## 1. Results" three.
	assert.Equal(t, 305, out.WordCount)
	assert.Equal(t, 2, out.PageCount)
}

func TestCompiler_Failures(t *testing.T) {
	c := New(nil)

	res, err := c.Execute(context.Background(), types.CompilationInput{}, pipeline.CallContext{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "nothing to compile")

	res, err = c.Execute(context.Background(), types.DraftingInput{}, pipeline.CallContext{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "CompilationInput")
}
