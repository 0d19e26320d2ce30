// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StageStatus is the outcome of one stage attempt.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// SkipReason explains a skipped stage. Status stays "skipped" for every
// reason; the reason only refines the telemetry.
type SkipReason string

const (
	// SkipDisabled means a request option turned the stage off.
	SkipDisabled SkipReason = "disabled"

	// SkipPrecondition means the stage had nothing to work on (no data
	// source, no results text).
	SkipPrecondition SkipReason = "precondition"

	// SkipCancelled means the invocation was cancelled after compilation.
	SkipCancelled SkipReason = "cancelled"
)

// StageRecord is an append-only telemetry entry for one stage.
type StageRecord struct {
	// Name is the stage name (e.g. "FigureSynthesis").
	Name string `json:"name" yaml:"name"`

	// Provider is the name reported by the capability provider.
	Provider string `json:"provider" yaml:"provider"`

	// Status is completed, failed, or skipped.
	Status StageStatus `json:"status" yaml:"status"`

	// DurationMs is the wall-clock time spent in the provider call. Zero for
	// skipped stages.
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`

	// SkipReason is set only when Status is skipped.
	SkipReason SkipReason `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`

	// Error carries the provider failure message when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SectionSet holds the drafted paper text keyed by section.
type SectionSet struct {
	Title        string `json:"title" yaml:"title"`
	Abstract     string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Introduction string `json:"introduction,omitempty" yaml:"introduction,omitempty"`
	Methods      string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Results      string `json:"results,omitempty" yaml:"results,omitempty"`
	Discussion   string `json:"discussion,omitempty" yaml:"discussion,omitempty"`
	Conclusion   string `json:"conclusion,omitempty" yaml:"conclusion,omitempty"`
}

// Bodies returns the section texts (without the title) in paper order.
func (s SectionSet) Bodies() []string {
	return []string{s.Abstract, s.Introduction, s.Methods, s.Results, s.Discussion, s.Conclusion}
}

// FigureCode holds plotting code generated for a figure.
type FigureCode struct {
	Python     string `json:"python,omitempty" yaml:"python,omitempty"`
	R          string `json:"r,omitempty" yaml:"r,omitempty"`
	JavaScript string `json:"javascript,omitempty" yaml:"javascript,omitempty"`
}

// Figure is a synthesized figure description.
type Figure struct {
	// Index is the 1-based figure number in the paper.
	Index int `json:"index" yaml:"index"`

	// Kind is the figure type (e.g. "chart", "diagram").
	Kind string `json:"kind" yaml:"kind"`

	Description string      `json:"description" yaml:"description"`
	Caption     string      `json:"caption" yaml:"caption"`
	Code        *FigureCode `json:"code,omitempty" yaml:"code,omitempty"`
}

// Reference is a resolved citation.
type Reference struct {
	// ID is the stable identifier from the resolving backend (DOI, OpenAlex ID).
	ID string `json:"id" yaml:"id"`

	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors" yaml:"authors"`
	Year    int      `json:"year" yaml:"year"`

	// Venue is the journal or conference, when known.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// InTextCitation is the marker used in the body (e.g. "(Smith, 2020)" or "[3]").
	InTextCitation string `json:"in_text_citation" yaml:"in_text_citation"`

	// FullCitation is the reference-list entry in the requested style.
	FullCitation string `json:"full_citation" yaml:"full_citation"`
}

// QualityReport summarizes a quality validation pass.
type QualityReport struct {
	// Score is between 0 and 100.
	Score  int      `json:"score" yaml:"score"`
	Passed bool     `json:"passed" yaml:"passed"`
	Issues []string `json:"issues" yaml:"issues"`
}

// Metadata describes the compiled artifact.
type Metadata struct {
	WordCount      int    `json:"word_count" yaml:"word_count"`
	PageCount      int    `json:"page_count" yaml:"page_count"`
	FigureCount    int    `json:"figure_count" yaml:"figure_count"`
	ReferenceCount int    `json:"reference_count" yaml:"reference_count"`
	Format         string `json:"format" yaml:"format"`
}

// PipelineResult is the aggregated output of one pipeline invocation.
// FigureCount always equals len(Figures) and ReferenceCount always equals
// len(References).
type PipelineResult struct {
	Sections SectionSet `json:"sections" yaml:"sections"`

	// ReferenceList is the rendered, numbered reference list.
	ReferenceList string `json:"reference_list" yaml:"reference_list"`

	// Formatted is the final paper text. Never empty on success.
	Formatted string `json:"formatted" yaml:"formatted"`

	Figures    []Figure       `json:"figures" yaml:"figures"`
	References []Reference    `json:"references" yaml:"references"`
	Quality    *QualityReport `json:"quality,omitempty" yaml:"quality,omitempty"`
	Metadata   Metadata       `json:"metadata" yaml:"metadata"`

	StageRecords    []StageRecord `json:"stage_records" yaml:"stage_records"`
	TotalDurationMs int64         `json:"total_duration_ms" yaml:"total_duration_ms"`
}

// Degraded reports whether any stage failed or was skipped because of
// cancellation, distinguishing a degraded-but-complete run from a clean one.
func (r *PipelineResult) Degraded() bool {
	for _, rec := range r.StageRecords {
		if rec.Status == StageFailed || rec.SkipReason == SkipCancelled {
			return true
		}
	}
	return false
}
