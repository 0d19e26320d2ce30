// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"strings"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// Option defaults applied when the caller leaves a field unset.
const (
	DefaultMaxFigures    = 5
	DefaultMaxReferences = 30
	DefaultStyle         = types.StyleAPA
)

var validKinds = map[types.DataSourceKind]bool{
	types.SourceLabNotebook:  true,
	types.SourceExperiment:   true,
	types.SourceResearchData: true,
	types.SourceFile:         true,
}

var validFileTypes = map[types.FileType]bool{
	types.FileCSV:   true,
	types.FileJSON:  true,
	types.FileExcel: true,
	types.FileTXT:   true,
	types.FileTSV:   true,
	types.FileYAML:  true,
	types.FilePDF:   true,
}

var validStyles = map[types.CitationStyle]bool{
	types.StyleAPA:     true,
	types.StyleMLA:     true,
	types.StyleChicago: true,
	types.StyleIEEE:    true,
	types.StyleNature:  true,
	types.StyleScience: true,
}

// Normalize validates a raw request and fills every unset option with its
// default. The returned request shares no memory with raw.
func Normalize(raw types.RawRequest) (types.PipelineRequest, error) {
	if strings.TrimSpace(raw.ResearchQuestion) == "" {
		return types.PipelineRequest{}, &ValidationError{Field: "research_question", Reason: "must not be empty"}
	}

	var source *types.DataSource
	if raw.DataSource != nil {
		if err := validateSource(*raw.DataSource); err != nil {
			return types.PipelineRequest{}, err
		}
		ds := *raw.DataSource
		source = &ds
	}

	target := raw.Target
	if target.Style == "" {
		target.Style = DefaultStyle
	}
	if !validStyles[target.Style] {
		return types.PipelineRequest{}, &ValidationError{Field: "target.style", Reason: "unknown citation style " + string(target.Style)}
	}

	opts, err := normalizeOptions(raw.Options)
	if err != nil {
		return types.PipelineRequest{}, err
	}

	return types.PipelineRequest{
		DataSource:       source,
		ResearchQuestion: raw.ResearchQuestion,
		Context:          raw.Context,
		Target:           target,
		Options:          opts,
	}, nil
}

func validateSource(ds types.DataSource) error {
	if !validKinds[ds.Kind] {
		return &ValidationError{Field: "data_source.kind", Reason: "unknown kind " + quoteOrEmpty(string(ds.Kind))}
	}
	if ds.FileType != "" && !validFileTypes[ds.FileType] {
		return &ValidationError{Field: "data_source.file_type", Reason: "unknown file type " + string(ds.FileType)}
	}
	if ds.Kind == types.SourceFile && ds.FilePath == "" && ds.FileContent == "" {
		return &ValidationError{Field: "data_source", Reason: "file source needs file_path or file_content"}
	}
	if ds.Kind != types.SourceFile && strings.TrimSpace(ds.SourceID) == "" {
		return &ValidationError{Field: "data_source.source_id", Reason: "required for " + string(ds.Kind) + " sources"}
	}
	return nil
}

func normalizeOptions(raw types.RawOptions) (types.Options, error) {
	opts := types.Options{
		IncludeAbstract:     boolOr(raw.IncludeAbstract, true),
		IncludeIntroduction: boolOr(raw.IncludeIntroduction, true),
		IncludeMethods:      boolOr(raw.IncludeMethods, true),
		IncludeResults:      boolOr(raw.IncludeResults, true),
		IncludeDiscussion:   boolOr(raw.IncludeDiscussion, true),
		IncludeConclusion:   boolOr(raw.IncludeConclusion, true),
		GenerateFigures:     boolOr(raw.GenerateFigures, true),
		MaxFigures:          intOr(raw.MaxFigures, DefaultMaxFigures),
		AddReferences:       boolOr(raw.AddReferences, true),
		MaxReferences:       intOr(raw.MaxReferences, DefaultMaxReferences),
		ValidateQuality:     boolOr(raw.ValidateQuality, true),
		FormatOutput:        boolOr(raw.FormatOutput, true),
	}
	if opts.MaxFigures < 0 {
		return types.Options{}, &ValidationError{Field: "options.max_figures", Reason: "must not be negative"}
	}
	if opts.MaxReferences < 0 {
		return types.Options{}, &ValidationError{Field: "options.max_references", Reason: "must not be negative"}
	}
	return opts, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return `""`
	}
	return s
}
