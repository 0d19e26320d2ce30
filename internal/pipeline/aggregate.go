// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "github.com/pdiddy/paper-engine/pkg/types"

type aggregateInput struct {
	sections      types.SectionSet
	referenceList string
	formatted     string
	figures       []types.Figure
	references    []types.Reference
	quality       *types.QualityReport
	compiled      types.CompiledDraft
	format        string
	records       []types.StageRecord
	totalMs       int64
}

// aggregate assembles the final result. Counts are derived from the slices
// that are returned so they can never disagree.
func aggregate(in aggregateInput) *types.PipelineResult {
	figures := in.figures
	if figures == nil {
		figures = []types.Figure{}
	}
	references := in.references
	if references == nil {
		references = []types.Reference{}
	}
	records := make([]types.StageRecord, len(in.records))
	copy(records, in.records)

	return &types.PipelineResult{
		Sections:      in.sections,
		ReferenceList: in.referenceList,
		Formatted:     in.formatted,
		Figures:       figures,
		References:    references,
		Quality:       in.quality,
		Metadata: types.Metadata{
			WordCount:      in.compiled.WordCount,
			PageCount:      in.compiled.PageCount,
			FigureCount:    len(figures),
			ReferenceCount: len(references),
			Format:         in.format,
		},
		StageRecords:    records,
		TotalDurationMs: in.totalMs,
	}
}
