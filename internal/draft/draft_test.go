// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/paper-engine/pkg/types"
)

func TestCombineSections(t *testing.T) {
	tests := []struct {
		name string
		in   types.SectionSet
		want string
	}{
		{
			name: "all sections",
			in: types.SectionSet{
				Title: "T", Abstract: "A", Introduction: "I", Methods: "M",
				Results: "R", Discussion: "D", Conclusion: "C",
			},
			want: "T\n\nA\n\nI\n\nM\n\nR\n\nD\n\nC",
		},
		{
			name: "skips empty sections",
			in:   types.SectionSet{Title: "T", Methods: "M", Conclusion: "C"},
			want: "T\n\nM\n\nC",
		},
		{
			name: "empty set",
			in:   types.SectionSet{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombineSections(tt.in))
		})
	}
}

func TestExtractTopics(t *testing.T) {
	tests := []struct {
		name     string
		question string
		title    string
		want     []string
	}{
		{
			name:     "first three long title words",
			question: "Does X affect Y?",
			title:    "Effects of Temperature on Enzyme Activity in Bacterial Cultures",
			want:     []string{"Does X affect Y?", "Effects", "Temperature", "Enzyme"},
		},
		{
			name:     "short words skipped",
			question: "Q",
			title:    "A Study of the Gut",
			want:     []string{"Q", "Study"},
		},
		{
			name:     "exactly four characters excluded",
			question: "Q",
			title:    "Data Model Tests",
			want:     []string{"Q", "Model", "Tests"},
		},
		{
			name:     "empty title",
			question: "Q",
			title:    "",
			want:     []string{"Q"},
		},
		{
			name:     "punctuation counts toward length",
			question: "Q",
			title:    "Cells: growth",
			want:     []string{"Q", "Cells:", "growth"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTopics(tt.question, tt.title))
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   types.SectionSet
		want []string
	}{
		{
			name: "ranked by frequency",
			in: types.SectionSet{
				Title:    "Protein folding",
				Abstract: "Protein protein folding dynamics. Protein dynamics.",
			},
			want: []string{"protein", "folding", "dynamics"},
		},
		{
			name: "ties keep first-seen order",
			in: types.SectionSet{
				Abstract: "zebra apple mango zebra apple mango",
			},
			want: []string{"zebra", "apple", "mango"},
		},
		{
			name: "top five only",
			in: types.SectionSet{
				Abstract: "alpha1 bravo charlie delta echoes foxtrot golfing hotel india juliet kilos",
			},
			want: []string{"bravo", "charlie", "delta", "echoes", "foxtrot"},
		},
		{
			name: "lowercases before matching",
			in: types.SectionSet{
				Title:   "ENZYME Kinetics",
				Results: "enzyme kinetics enzyme",
			},
			want: []string{"enzyme", "kinetics"},
		},
		{
			name: "words glued to digits are not words",
			in:   types.SectionSet{Abstract: "sample123 samples"},
			want: []string{"samples"},
		},
		{
			name: "no qualifying words",
			in:   types.SectionSet{Abstract: "a b c"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractKeywordsDeterministic(t *testing.T) {
	s := types.SectionSet{
		Abstract: "gamma delta gamma delta omega sigma theta kappa lambda omega",
	}
	first := ExtractKeywords(s)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ExtractKeywords(s))
	}
	assert.Equal(t, []string{"gamma", "delta", "omega", "sigma", "theta"}, first)
}

func TestRenderReferenceList(t *testing.T) {
	refs := []types.Reference{
		{FullCitation: "Zeta, A. (2020). Last alphabetically."},
		{FullCitation: "Alpha, B. (2019). First alphabetically."},
	}
	got := RenderReferenceList(refs)
	assert.Equal(t, "1. Zeta, A. (2020). Last alphabetically.\n\n2. Alpha, B. (2019). First alphabetically.", got)

	assert.Equal(t, "", RenderReferenceList(nil))
}

func TestCitationKeys(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single citation",
			text: "Results [Vaswani2017] show improvement.",
			want: []string{"Vaswani2017"},
		},
		{
			name: "multi-citation",
			text: "Prior work [Vaswani2017; Brown2020; Tay2022] shows...",
			want: []string{"Vaswani2017", "Brown2020", "Tay2022"},
		},
		{
			name: "markdown link not a citation",
			text: "[click here](http://example.com)",
			want: nil,
		},
		{
			name: "numeric marker not a key",
			text: "as shown [3]",
			want: nil,
		},
		{
			name: "empty brackets",
			text: "nothing []",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CitationKeys(tt.text))
		})
	}
}

func TestIsCitationKey(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Vaswani2017", true},
		{"Smith-Jones2019", true},
		{"click here", false},
		{"http://example.com", false},
		{"", false},
		{"123", false},
		{"abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, isCitationKey(tt.input))
		})
	}
}

func TestCitationKey(t *testing.T) {
	tests := []struct {
		name string
		ref  types.Reference
		want string
	}{
		{"surname and year", types.Reference{Authors: []string{"Ashish Vaswani"}, Year: 2017}, "Vaswani2017"},
		{"strips punctuation", types.Reference{Authors: []string{"Jane O'Neil"}, Year: 2001}, "ONeil2001"},
		{"no authors uses title", types.Reference{Title: "Attention Is All", Year: 2017}, "Attention2017"},
		{"no year", types.Reference{Authors: []string{"Brown"}}, "Brown"},
		{"nothing usable", types.Reference{}, "Ref"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CitationKey(tt.ref))
		})
	}
}

func TestGenerateBibTeX(t *testing.T) {
	tests := []struct {
		name     string
		refs     []types.Reference
		contains []string
		excludes []string
		empty    bool
	}{
		{
			name: "single entry with venue and doi",
			refs: []types.Reference{{
				ID:      "10.5555/attention",
				Title:   "Attention Is All You Need",
				Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
				Year:    2017,
				Venue:   "NeurIPS",
			}},
			contains: []string{
				"@article{Vaswani2017,",
				"title = {Attention Is All You Need}",
				"author = {Ashish Vaswani and Noam Shazeer}",
				"year = {2017}",
				"journal = {NeurIPS}",
				"doi = {10.5555/attention}",
			},
		},
		{
			name:     "venue omitted",
			refs:     []types.Reference{{ID: "W1", Title: "Language Models", Authors: []string{"Tom Brown"}, Year: 2020}},
			contains: []string{"@article{Brown2020,"},
			excludes: []string{"journal", "doi"},
		},
		{
			name: "duplicate keys get suffixes",
			refs: []types.Reference{
				{Title: "First", Authors: []string{"Smith"}, Year: 2020},
				{Title: "Second", Authors: []string{"Smith"}, Year: 2020},
			},
			contains: []string{"@article{Smith2020a,", "@article{Smith2020b,"},
		},
		{
			name:  "empty references",
			refs:  nil,
			empty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateBibTeX(tt.refs)
			if tt.empty {
				assert.Empty(t, got)
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("BibTeX missing %q:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}
