// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-engine pipeline.
// Request types describe what the caller asks for; result types describe the
// generated artifact and its stage telemetry; stage types are the inputs and
// outputs exchanged with capability providers.
//
// See SPEC_FULL.md § Data model.
package types

// DataSourceKind identifies where the experimental data for a paper lives.
type DataSourceKind string

const (
	SourceLabNotebook  DataSourceKind = "lab_notebook"
	SourceExperiment   DataSourceKind = "experiment"
	SourceResearchData DataSourceKind = "research_data"
	SourceFile         DataSourceKind = "file"
)

// FileType identifies the encoding of a file data source.
type FileType string

const (
	FileCSV   FileType = "csv"
	FileJSON  FileType = "json"
	FileExcel FileType = "excel"
	FileTXT   FileType = "txt"
	FileTSV   FileType = "tsv"
	FileYAML  FileType = "yaml"
	FilePDF   FileType = "pdf"
)

// CitationStyle is a reference formatting convention.
type CitationStyle string

const (
	StyleAPA     CitationStyle = "APA"
	StyleMLA     CitationStyle = "MLA"
	StyleChicago CitationStyle = "Chicago"
	StyleIEEE    CitationStyle = "IEEE"
	StyleNature  CitationStyle = "Nature"
	StyleScience CitationStyle = "Science"
)

// DataSource describes the data a paper is written from.
type DataSource struct {
	// Kind selects the source family: lab_notebook, experiment, research_data, or file.
	Kind DataSourceKind `json:"kind" yaml:"kind"`

	// SourceID identifies a stored notebook, experiment, or dataset record.
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	// FilePath is a local path to a data file (file kind).
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`

	// FileContent carries inline file data (file kind).
	FileContent string `json:"file_content,omitempty" yaml:"file_content,omitempty"`

	// FileType is the encoding of FilePath or FileContent.
	FileType FileType `json:"file_type,omitempty" yaml:"file_type,omitempty"`
}

// RequestContext carries optional hints for the drafting stage.
type RequestContext struct {
	Background  string `json:"background,omitempty" yaml:"background,omitempty"`
	Methodology string `json:"methodology,omitempty" yaml:"methodology,omitempty"`
	RelatedWork string `json:"related_work,omitempty" yaml:"related_work,omitempty"`
}

// Target describes the venue and citation style the paper is prepared for.
type Target struct {
	Journal    string        `json:"journal,omitempty" yaml:"journal,omitempty"`
	Conference string        `json:"conference,omitempty" yaml:"conference,omitempty"`
	Style      CitationStyle `json:"style,omitempty" yaml:"style,omitempty"`
}

// RawOptions holds the caller's option overrides. A nil field means "not set"
// and receives the documented default during normalization.
type RawOptions struct {
	IncludeAbstract     *bool `json:"include_abstract,omitempty" yaml:"include_abstract,omitempty"`
	IncludeIntroduction *bool `json:"include_introduction,omitempty" yaml:"include_introduction,omitempty"`
	IncludeMethods      *bool `json:"include_methods,omitempty" yaml:"include_methods,omitempty"`
	IncludeResults      *bool `json:"include_results,omitempty" yaml:"include_results,omitempty"`
	IncludeDiscussion   *bool `json:"include_discussion,omitempty" yaml:"include_discussion,omitempty"`
	IncludeConclusion   *bool `json:"include_conclusion,omitempty" yaml:"include_conclusion,omitempty"`
	GenerateFigures     *bool `json:"generate_figures,omitempty" yaml:"generate_figures,omitempty"`
	MaxFigures          *int  `json:"max_figures,omitempty" yaml:"max_figures,omitempty"`
	AddReferences       *bool `json:"add_references,omitempty" yaml:"add_references,omitempty"`
	MaxReferences       *int  `json:"max_references,omitempty" yaml:"max_references,omitempty"`
	ValidateQuality     *bool `json:"validate_quality,omitempty" yaml:"validate_quality,omitempty"`
	FormatOutput        *bool `json:"format_output,omitempty" yaml:"format_output,omitempty"`
}

// RawRequest is a paper generation request as received from the caller,
// before validation and defaulting.
type RawRequest struct {
	// DataSource is optional; without it the ingestion stage is skipped.
	DataSource *DataSource `json:"data_source,omitempty" yaml:"data_source,omitempty"`

	// ResearchQuestion is the question the paper answers. Required.
	ResearchQuestion string `json:"research_question" yaml:"research_question"`

	Context RequestContext `json:"context,omitempty" yaml:"context,omitempty"`
	Target  Target         `json:"target,omitempty" yaml:"target,omitempty"`
	Options RawOptions     `json:"options,omitempty" yaml:"options,omitempty"`
}

// Options is the fully populated option set of a normalized request.
type Options struct {
	IncludeAbstract     bool `json:"include_abstract" yaml:"include_abstract"`
	IncludeIntroduction bool `json:"include_introduction" yaml:"include_introduction"`
	IncludeMethods      bool `json:"include_methods" yaml:"include_methods"`
	IncludeResults      bool `json:"include_results" yaml:"include_results"`
	IncludeDiscussion   bool `json:"include_discussion" yaml:"include_discussion"`
	IncludeConclusion   bool `json:"include_conclusion" yaml:"include_conclusion"`
	GenerateFigures     bool `json:"generate_figures" yaml:"generate_figures"`
	MaxFigures          int  `json:"max_figures" yaml:"max_figures"`
	AddReferences       bool `json:"add_references" yaml:"add_references"`
	MaxReferences       int  `json:"max_references" yaml:"max_references"`
	ValidateQuality     bool `json:"validate_quality" yaml:"validate_quality"`
	FormatOutput        bool `json:"format_output" yaml:"format_output"`
}

// SectionFlags reports which drafted sections are enabled.
func (o Options) SectionFlags() SectionFlags {
	return SectionFlags{
		Abstract:     o.IncludeAbstract,
		Introduction: o.IncludeIntroduction,
		Methods:      o.IncludeMethods,
		Results:      o.IncludeResults,
		Discussion:   o.IncludeDiscussion,
		Conclusion:   o.IncludeConclusion,
	}
}

// PipelineRequest is a validated request with every option populated. It is
// passed by value and never modified after normalization.
type PipelineRequest struct {
	DataSource       *DataSource    `json:"data_source,omitempty" yaml:"data_source,omitempty"`
	ResearchQuestion string         `json:"research_question" yaml:"research_question"`
	Context          RequestContext `json:"context" yaml:"context"`
	Target           Target         `json:"target" yaml:"target"`
	Options          Options        `json:"options" yaml:"options"`
}
