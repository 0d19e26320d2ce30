// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Author identifies a paper author or contributor.
type Author struct {
	// Name is the author's display name.
	Name string `json:"name" yaml:"name"`

	// Affiliation is the author's institutional affiliation.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// SectionFlags selects which sections the drafting stage writes.
type SectionFlags struct {
	Abstract     bool `json:"abstract" yaml:"abstract"`
	Introduction bool `json:"introduction" yaml:"introduction"`
	Methods      bool `json:"methods" yaml:"methods"`
	Results      bool `json:"results" yaml:"results"`
	Discussion   bool `json:"discussion" yaml:"discussion"`
	Conclusion   bool `json:"conclusion" yaml:"conclusion"`
}

// DraftingContext is the background material handed to the drafting stage.
type DraftingContext struct {
	Background  string `json:"background,omitempty" yaml:"background,omitempty"`
	Methodology string `json:"methodology,omitempty" yaml:"methodology,omitempty"`

	// Results summarizes the ingested data for the results section.
	Results     string `json:"results,omitempty" yaml:"results,omitempty"`
	RelatedWork string `json:"related_work,omitempty" yaml:"related_work,omitempty"`
}

// StyleSpec names the citation style and venue a stage should write for.
type StyleSpec struct {
	Format  CitationStyle `json:"format" yaml:"format"`
	Journal string        `json:"journal,omitempty" yaml:"journal,omitempty"`
}

// DraftingInput is the ContentDrafting capability input.
type DraftingInput struct {
	ResearchQuestion string          `json:"research_question" yaml:"research_question"`
	Dataset          *Dataset        `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Context          DraftingContext `json:"context" yaml:"context"`
	Sections         SectionFlags    `json:"sections" yaml:"sections"`
	Style            StyleSpec       `json:"style" yaml:"style"`
}

// DraftingOutput is the ContentDrafting capability output.
type DraftingOutput struct {
	Sections SectionSet `json:"sections" yaml:"sections"`
}

// FigurePlacement tells the compiler where a figure caption belongs.
type FigurePlacement struct {
	Index     int    `json:"index" yaml:"index"`
	Caption   string `json:"caption" yaml:"caption"`
	Placement string `json:"placement" yaml:"placement"`
}

// CompilationMetadata is front-matter handed to the compiler.
type CompilationMetadata struct {
	Authors  []Author `json:"authors" yaml:"authors"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// CompilationInput is the DraftCompilation capability input.
type CompilationInput struct {
	Sections SectionSet `json:"sections" yaml:"sections"`

	// ReferenceList is the rendered reference list, possibly empty.
	ReferenceList string              `json:"reference_list" yaml:"reference_list"`
	Figures       []FigurePlacement   `json:"figures" yaml:"figures"`
	Metadata      CompilationMetadata `json:"metadata" yaml:"metadata"`
	Style         StyleSpec           `json:"style" yaml:"style"`
}

// CompiledDraft is the DraftCompilation capability output.
type CompiledDraft struct {
	// Formatted is the complete compiled paper text.
	Formatted string `json:"formatted" yaml:"formatted"`
	WordCount int    `json:"word_count" yaml:"word_count"`
	PageCount int    `json:"page_count" yaml:"page_count"`
}
