// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates paper generation across seven capability
// providers: ingestion, drafting, figure synthesis, reference resolution,
// compilation, quality validation, and output formatting.
//
// Stages run strictly in order because each consumes the previous stage's
// output. Ingestion, drafting, and compilation are fatal: their failure
// aborts the run with a *FatalStageError. The other stages are best-effort:
// their failure is recorded in the stage telemetry and a fallback value is
// used instead.
//
// An Orchestrator holds only immutable collaborators, so one instance may
// serve any number of concurrent Execute calls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/draft"
	"github.com/pdiddy/paper-engine/internal/metrics"
	"github.com/pdiddy/paper-engine/internal/tracing"
	"github.com/pdiddy/paper-engine/pkg/types"
)

const (
	// keyFindingRunes is how much of the results text seeds figure synthesis.
	keyFindingRunes = 200

	// Output limits handed to the formatting stage.
	formatWordLimit = 5000
	formatPageLimit = 20
)

// requiredSections are checked by the quality stage.
var requiredSections = []string{"Title", "Abstract", "Introduction", "Methods", "Results", "Discussion", "Conclusion"}

// Orchestrator runs the stage chain. Construct it with New.
type Orchestrator struct {
	registry     Registry
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
	stageTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator replaces the run ID generator (uuid by default).
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithStageTimeout bounds every provider call. Zero means no timeout.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.stageTimeout = d
	}
}

// New builds an Orchestrator over a registry that must serve every
// capability.
func New(reg Registry, opts ...Option) (*Orchestrator, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		registry: reg.clone(),
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type runIDKey struct{}

// ContextWithRunID attaches a caller-chosen run ID. Execute uses it instead
// of generating one, so callers can correlate their own records.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run ID attached with ContextWithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// Execute validates the request and runs the stage chain. It returns a
// *ValidationError for a malformed request, a *FatalStageError when a
// mandatory stage fails, and the context error when cancelled before
// compilation. callerID is handed to every provider untouched.
func (o *Orchestrator) Execute(ctx context.Context, raw types.RawRequest, callerID string) (*types.PipelineResult, error) {
	req, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	id, ok := RunIDFromContext(ctx)
	if !ok {
		id = o.newID()
	}
	r := &run{
		id:       id,
		call:     CallContext{CallerID: callerID, RunID: id},
		registry: o.registry,
		logger:   o.logger.With(zap.String("run_id", id)),
		now:      o.now,
		timeout:  o.stageTimeout,
		phase:    PhaseIdle,
	}

	ctx, span := tracing.StartSpan(ctx, "pipeline.Execute",
		attribute.String("paper_engine.run_id", id),
		attribute.String("paper_engine.style", string(req.Target.Style)),
	)
	metrics.RunsStarted.Inc()
	started := time.Now()
	r.logger.Info("pipeline started", zap.Bool("has_data_source", req.DataSource != nil))

	result, err := o.execute(ctx, r, req)
	tracing.EndSpan(span, err)
	metrics.RunDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.RunsFinished.WithLabelValues("failed").Inc()
		r.logger.Error("pipeline failed", zap.String("phase", string(r.phase)), zap.Error(err))
		return nil, err
	}

	outcome := "completed"
	if result.Degraded() {
		outcome = "degraded"
	}
	metrics.RunsFinished.WithLabelValues(outcome).Inc()
	r.logger.Info("pipeline finished",
		zap.String("outcome", outcome),
		zap.Int64("total_duration_ms", result.TotalDurationMs),
		zap.Int("word_count", result.Metadata.WordCount),
	)
	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run, req types.PipelineRequest) (*types.PipelineResult, error) {
	start := r.now()
	opts := req.Options

	// DataIngestion
	if err := r.abortIfCancelled(ctx, ingestionStage); err != nil {
		return nil, err
	}
	var dataset *types.Dataset
	if req.DataSource == nil {
		r.skip(ingestionStage, types.SkipPrecondition)
	} else {
		ds, _, err := runStage[types.Dataset](ctx, r, ingestionStage, types.IngestionInput{Source: *req.DataSource}, nil)
		if err != nil {
			return nil, err
		}
		dataset = &ds
	}

	// ContentDrafting
	if err := r.abortIfCancelled(ctx, draftingStage); err != nil {
		return nil, err
	}
	drafted, _, err := runStage[types.DraftingOutput](ctx, r, draftingStage, draftingInput(req, dataset), nil)
	if err != nil {
		return nil, err
	}
	sections := drafted.Sections

	// FigureSynthesis
	if err := r.abortIfCancelled(ctx, figureStage); err != nil {
		return nil, err
	}
	figures := []types.Figure{}
	switch {
	case !opts.GenerateFigures:
		r.skip(figureStage, types.SkipDisabled)
	case strings.TrimSpace(sections.Results) == "":
		r.skip(figureStage, types.SkipPrecondition)
	default:
		out, ok, err := runStage[types.FigureOutput](ctx, r, figureStage, figureInput(req, dataset, sections), nil)
		if err != nil {
			return nil, err
		}
		if ok {
			figures = capFigures(out.Figures, opts.MaxFigures)
		}
	}

	// ReferenceResolution
	if err := r.abortIfCancelled(ctx, referenceStage); err != nil {
		return nil, err
	}
	references := []types.Reference{}
	if !opts.AddReferences {
		r.skip(referenceStage, types.SkipDisabled)
	} else {
		out, ok, err := runStage[types.ReferenceOutput](ctx, r, referenceStage, referenceInput(req, sections), nil)
		if err != nil {
			return nil, err
		}
		if ok {
			references = capReferences(out.References, opts.MaxReferences)
			sections = applyCitationMarkers(sections, out)
		}
	}

	// DraftCompilation
	if err := r.abortIfCancelled(ctx, compilationStage); err != nil {
		return nil, err
	}
	referenceList := draft.RenderReferenceList(references)
	compiled, _, err := runStage[types.CompiledDraft](ctx, r, compilationStage,
		compilationInput(req, sections, referenceList, figures), requireCompiledText)
	if err != nil {
		return nil, err
	}

	// Past this point a cancelled context yields a best-effort result.
	var quality *types.QualityReport
	formatted := compiled.Formatted

	// QualityValidation
	switch {
	case ctx.Err() != nil:
		r.skipRemaining(qualityStage)
	case !opts.ValidateQuality:
		r.skip(qualityStage, types.SkipDisabled)
	default:
		rep, ok, _ := runStage[types.QualityReport](ctx, r, qualityStage, qualityInput(req, compiled), nil)
		if ok {
			quality = &rep
		}
	}

	// OutputFormatting
	switch {
	case len(r.records) == len(stageOrder):
	case ctx.Err() != nil:
		r.skipRemaining(formattingStage)
	case !opts.FormatOutput:
		r.skip(formattingStage, types.SkipDisabled)
	default:
		out, ok, _ := runStage[types.FormattedOutput](ctx, r, formattingStage, formattingInput(req, compiled), requireFormattedText)
		if ok {
			formatted = out.Content
		}
	}

	r.phase = PhaseCompleted
	return aggregate(aggregateInput{
		sections:      sections,
		referenceList: referenceList,
		formatted:     formatted,
		figures:       figures,
		references:    references,
		quality:       quality,
		compiled:      compiled,
		format:        string(req.Target.Style),
		records:       r.records,
		totalMs:       r.now().Sub(start).Milliseconds(),
	}), nil
}

// abortIfCancelled fails the run when ctx is done before a stage that
// precedes compilation.
func (r *run) abortIfCancelled(ctx context.Context, next stageSpec) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	r.phase = PhaseFailed
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("pipeline deadline exceeded before %s: %w", next.capability, err)
	}
	return fmt.Errorf("pipeline cancelled before %s: %w", next.capability, err)
}

// skipRemaining records from and every later stage as cancelled.
func (r *run) skipRemaining(from stageSpec) {
	found := false
	for _, spec := range stageOrder {
		if spec.capability == from.capability {
			found = true
		}
		if found {
			r.skip(spec, types.SkipCancelled)
		}
	}
}

func draftingInput(req types.PipelineRequest, dataset *types.Dataset) types.DraftingInput {
	in := types.DraftingInput{
		ResearchQuestion: req.ResearchQuestion,
		Dataset:          dataset,
		Context: types.DraftingContext{
			Background:  req.Context.Background,
			Methodology: req.Context.Methodology,
			RelatedWork: req.Context.RelatedWork,
		},
		Sections: req.Options.SectionFlags(),
		Style:    types.StyleSpec{Format: req.Target.Style, Journal: req.Target.Journal},
	}
	if dataset != nil {
		if in.Context.Methodology == "" {
			in.Context.Methodology = dataset.Description
		}
		in.Context.Results = dataset.Description
	}
	return in
}

func figureInput(req types.PipelineRequest, dataset *types.Dataset, sections types.SectionSet) types.FigureInput {
	dataType := "mixed"
	if dataset != nil && dataset.Format == types.DatasetTabular {
		dataType = "numerical"
	}
	return types.FigureInput{
		Dataset:          dataset,
		DataType:         dataType,
		Purpose:          "Visualize research findings",
		PaperSection:     "Results",
		ResearchQuestion: req.ResearchQuestion,
		KeyFinding:       truncateRunes(sections.Results, keyFindingRunes),
		FigureType:       "chart",
		ChartType:        "bar",
		MaxFigures:       req.Options.MaxFigures,
	}
}

func referenceInput(req types.PipelineRequest, sections types.SectionSet) types.ReferenceInput {
	return types.ReferenceInput{
		Content:       draft.CombineSections(sections),
		Topics:        draft.ExtractTopics(req.ResearchQuestion, sections.Title),
		CitationStyle: req.Target.Style,
		PaperTitle:    sections.Title,
		ResearchField: req.Context.Background,
		Keywords:      draft.ExtractKeywords(sections),
		MaxReferences: req.Options.MaxReferences,
	}
}

func compilationInput(req types.PipelineRequest, sections types.SectionSet, referenceList string, figures []types.Figure) types.CompilationInput {
	placements := make([]types.FigurePlacement, len(figures))
	for i, f := range figures {
		placements[i] = types.FigurePlacement{Index: f.Index, Caption: f.Caption, Placement: "Results"}
	}
	return types.CompilationInput{
		Sections:      sections,
		ReferenceList: referenceList,
		Figures:       placements,
		Metadata: types.CompilationMetadata{
			Authors:  []types.Author{},
			Keywords: draft.ExtractKeywords(sections),
		},
		Style: types.StyleSpec{Format: req.Target.Style, Journal: req.Target.Journal},
	}
}

func qualityInput(req types.PipelineRequest, compiled types.CompiledDraft) types.QualityInput {
	return types.QualityInput{
		Content:     compiled.Formatted,
		ContentType: "paper",
		Criteria: types.QualityCriteria{
			Completeness: true,
			Structure:    true,
			Grammar:      true,
			Citations:    true,
			Formatting:   true,
			Clarity:      true,
			Accuracy:     true,
		},
		RequiredSections: append([]string(nil), requiredSections...),
		CitationStyle:    req.Target.Style,
	}
}

func formattingInput(req types.PipelineRequest, compiled types.CompiledDraft) types.FormattingInput {
	return types.FormattingInput{
		Content:     compiled.Formatted,
		ContentType: "paper",
		Target:      req.Target,
		Limits: types.FormatLimits{
			WordLimit:      formatWordLimit,
			PageLimit:      formatPageLimit,
			FigureLimit:    req.Options.MaxFigures,
			ReferenceLimit: req.Options.MaxReferences,
		},
	}
}

// capFigures keeps at most max figures and numbers them from 1.
func capFigures(in []types.Figure, max int) []types.Figure {
	if len(in) > max {
		in = in[:max]
	}
	out := make([]types.Figure, len(in))
	for i, f := range in {
		f.Index = i + 1
		out[i] = f
	}
	return out
}

// capReferences keeps at most max references in provider order.
func capReferences(in []types.Reference, max int) []types.Reference {
	if len(in) > max {
		in = in[:max]
	}
	return append([]types.Reference{}, in...)
}

// applyCitationMarkers adopts a structured section rewrite from the
// reference provider. Free-form FormattedContent is not parsed back into
// sections, so providers that only return it leave the text unchanged.
func applyCitationMarkers(sections types.SectionSet, out types.ReferenceOutput) types.SectionSet {
	if out.Sections == nil {
		return sections
	}
	rewritten := *out.Sections
	if rewritten.Title == "" {
		rewritten.Title = sections.Title
	}
	return rewritten
}

func requireCompiledText(d types.CompiledDraft) error {
	if strings.TrimSpace(d.Formatted) == "" {
		return errors.New("compiled draft is empty")
	}
	return nil
}

func requireFormattedText(f types.FormattedOutput) error {
	if strings.TrimSpace(f.Content) == "" {
		return errors.New("formatted content is empty")
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
