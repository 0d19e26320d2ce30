// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DatasetFormat describes the shape of ingested data.
type DatasetFormat string

const (
	DatasetTabular DatasetFormat = "tabular"
	DatasetRecord  DatasetFormat = "record"
	DatasetText    DatasetFormat = "text"
)

// IngestionInput is the DataIngestion capability input.
type IngestionInput struct {
	Source DataSource `json:"source" yaml:"source"`
}

// Dataset is the normalized output of the DataIngestion capability.
type Dataset struct {
	// Kind and SourceID echo the data source.
	Kind     DataSourceKind `json:"kind" yaml:"kind"`
	SourceID string         `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	Format DatasetFormat `json:"format" yaml:"format"`

	// Columns and Rows are populated for tabular data.
	Columns []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Records holds decoded JSON or YAML documents.
	Records []map[string]any `json:"records,omitempty" yaml:"records,omitempty"`

	// Text holds free-form content (plain text, converted PDF).
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Description is a short human-readable interpretation of the data.
	Description string `json:"description" yaml:"description"`
}

// FigureInput is the FigureSynthesis capability input.
type FigureInput struct {
	Dataset *Dataset `json:"dataset,omitempty" yaml:"dataset,omitempty"`

	// DataType is "numerical" for tabular data and "mixed" otherwise.
	DataType         string `json:"data_type" yaml:"data_type"`
	Purpose          string `json:"purpose" yaml:"purpose"`
	PaperSection     string `json:"paper_section" yaml:"paper_section"`
	ResearchQuestion string `json:"research_question" yaml:"research_question"`

	// KeyFinding is the opening of the results text.
	KeyFinding string `json:"key_finding" yaml:"key_finding"`
	FigureType string `json:"figure_type" yaml:"figure_type"`
	ChartType  string `json:"chart_type" yaml:"chart_type"`
	MaxFigures int    `json:"max_figures" yaml:"max_figures"`
}

// FigureOutput is the FigureSynthesis capability output.
type FigureOutput struct {
	Figures []Figure `json:"figures" yaml:"figures"`
}

// ReferenceInput is the ReferenceResolution capability input.
type ReferenceInput struct {
	// Content is the combined section text to cite against.
	Content       string        `json:"content" yaml:"content"`
	Topics        []string      `json:"topics" yaml:"topics"`
	CitationStyle CitationStyle `json:"citation_style" yaml:"citation_style"`
	PaperTitle    string        `json:"paper_title" yaml:"paper_title"`
	ResearchField string        `json:"research_field,omitempty" yaml:"research_field,omitempty"`
	Keywords      []string      `json:"keywords" yaml:"keywords"`
	MaxReferences int           `json:"max_references" yaml:"max_references"`
}

// ReferenceOutput is the ReferenceResolution capability output.
type ReferenceOutput struct {
	References []Reference `json:"references" yaml:"references"`

	// Sections, when set, is a structured rewrite of the drafted sections
	// with citation markers inserted.
	Sections *SectionSet `json:"sections,omitempty" yaml:"sections,omitempty"`

	// FormattedContent is free-form cited text. It is kept for telemetry and
	// never parsed back into sections.
	FormattedContent string `json:"formatted_content,omitempty" yaml:"formatted_content,omitempty"`
}

// QualityCriteria toggles individual quality checks.
type QualityCriteria struct {
	Completeness bool `json:"completeness" yaml:"completeness"`
	Structure    bool `json:"structure" yaml:"structure"`
	Grammar      bool `json:"grammar" yaml:"grammar"`
	Citations    bool `json:"citations" yaml:"citations"`
	Formatting   bool `json:"formatting" yaml:"formatting"`
	Clarity      bool `json:"clarity" yaml:"clarity"`
	Accuracy     bool `json:"accuracy" yaml:"accuracy"`
}

// QualityInput is the QualityValidation capability input.
type QualityInput struct {
	Content          string          `json:"content" yaml:"content"`
	ContentType      string          `json:"content_type" yaml:"content_type"`
	Criteria         QualityCriteria `json:"criteria" yaml:"criteria"`
	RequiredSections []string        `json:"required_sections" yaml:"required_sections"`
	CitationStyle    CitationStyle   `json:"citation_style" yaml:"citation_style"`
}

// FormatLimits bounds the formatted output.
type FormatLimits struct {
	WordLimit      int `json:"word_limit" yaml:"word_limit"`
	PageLimit      int `json:"page_limit" yaml:"page_limit"`
	FigureLimit    int `json:"figure_limit" yaml:"figure_limit"`
	ReferenceLimit int `json:"reference_limit" yaml:"reference_limit"`
}

// FormattingInput is the OutputFormatting capability input.
type FormattingInput struct {
	Content     string       `json:"content" yaml:"content"`
	ContentType string       `json:"content_type" yaml:"content_type"`
	Target      Target       `json:"target" yaml:"target"`
	Limits      FormatLimits `json:"limits" yaml:"limits"`
}

// FormattedOutput is the OutputFormatting capability output.
type FormattedOutput struct {
	Content string `json:"content" yaml:"content"`
}
