// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/paper-engine/internal/metrics"
	"github.com/pdiddy/paper-engine/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStage counts calls and returns whatever fn produces.
type fakeStage struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, input any) (Result, error)
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) Execute(ctx context.Context, input any, _ CallContext) (Result, error) {
	f.calls.Add(1)
	return f.fn(ctx, input)
}

func succeedWith(v any) func(context.Context, any) (Result, error) {
	return func(context.Context, any) (Result, error) { return Succeed(v), nil }
}

var testSections = types.SectionSet{
	Title:        "Protein folding under thermal stress",
	Abstract:     "We study protein folding.",
	Introduction: "Folding matters.",
	Methods:      "Thermal assays.",
	Results:      "Folding rates dropped under stress.",
	Discussion:   "Stress impairs folding.",
	Conclusion:   "Proteins dislike heat.",
}

// fakeSet is one fake provider per capability, all succeeding.
type fakeSet map[Capability]*fakeStage

func newFakeSet() fakeSet {
	return fakeSet{
		DataIngestion: {name: "fake-ingest", fn: succeedWith(types.Dataset{
			Kind: types.SourceFile, Format: types.DatasetTabular,
			Columns: []string{"t", "rate"}, Description: "2 columns, 3 rows",
		})},
		ContentDrafting: {name: "fake-draft", fn: succeedWith(types.DraftingOutput{Sections: testSections})},
		FigureSynthesis: {name: "fake-figures", fn: succeedWith(&types.FigureOutput{Figures: []types.Figure{
			{Index: 7, Kind: "chart", Caption: "Rates"},
			{Index: 9, Kind: "chart", Caption: "Temperatures"},
		}})},
		ReferenceResolution: {name: "fake-refs", fn: succeedWith(types.ReferenceOutput{References: []types.Reference{
			{ID: "10.1/a", Title: "A", FullCitation: "Smith, J. (2020). A."},
			{ID: "10.1/b", Title: "B", FullCitation: "Doe, J. (2021). B."},
			{ID: "10.1/c", Title: "C", FullCitation: "Roe, R. (2022). C."},
		}})},
		DraftCompilation: {name: "fake-compile", fn: succeedWith(types.CompiledDraft{Formatted: "# Paper\n\nbody", WordCount: 1200, PageCount: 5})},
		QualityValidation: {name: "fake-quality", fn: succeedWith(types.QualityReport{Score: 88, Passed: true, Issues: []string{}})},
		OutputFormatting:  {name: "fake-format", fn: succeedWith(types.FormattedOutput{Content: "# Formatted paper"})},
	}
}

func (s fakeSet) registry() Registry {
	reg := Registry{}
	for c, p := range s {
		reg[c] = p
	}
	return reg
}

// steppingClock advances by step on every reading.
func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(step)
		return t
	}
}

func newTestOrchestrator(t *testing.T, s fakeSet, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	o, err := New(s.registry(), opts...)
	require.NoError(t, err)
	return o
}

func fileRequest() types.RawRequest {
	return types.RawRequest{
		DataSource:       &types.DataSource{Kind: types.SourceFile, FileContent: "t,rate\n1,2\n", FileType: types.FileCSV},
		ResearchQuestion: "How does heat change protein folding rates?",
	}
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func statuses(recs []types.StageRecord) []types.StageStatus {
	out := make([]types.StageStatus, len(recs))
	for i, r := range recs {
		out[i] = r.Status
	}
	return out
}

func recordFor(t *testing.T, res *types.PipelineResult, c Capability) types.StageRecord {
	t.Helper()
	for _, r := range res.StageRecords {
		if r.Name == string(c) {
			return r
		}
	}
	t.Fatalf("no record for %s", c)
	return types.StageRecord{}
}

func TestNew_MissingProvider(t *testing.T) {
	s := newFakeSet()
	reg := s.registry()
	delete(reg, QualityValidation)
	delete(reg, DataIngestion)

	_, err := New(reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingProvider)
	assert.Contains(t, err.Error(), "QualityValidation")
	assert.Contains(t, err.Error(), "DataIngestion")
}

// nilNamer is a pointer provider whose Name dereferences its receiver.
type nilNamer struct{ name string }

func (n *nilNamer) Name() string { return n.name }

func (n *nilNamer) Execute(context.Context, any, CallContext) (Result, error) {
	return Succeed(nil), nil
}

func TestNew_TypedNilProvider(t *testing.T) {
	s := newFakeSet()
	reg := s.registry()
	var p *nilNamer
	reg[FigureSynthesis] = p

	_, err := New(reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingProvider)
	assert.Contains(t, err.Error(), "FigureSynthesis")
}

func TestNew_RegistryIsCopied(t *testing.T) {
	s := newFakeSet()
	reg := s.registry()
	o, err := New(reg)
	require.NoError(t, err)

	delete(reg, ContentDrafting)
	_, err = o.Execute(context.Background(), fileRequest(), "caller")
	require.NoError(t, err)
}

func TestExecute_AllStagesSucceed(t *testing.T) {
	s := newFakeSet()
	o := newTestOrchestrator(t, s)

	res, err := o.Execute(context.Background(), fileRequest(), "caller-1")
	require.NoError(t, err)

	require.Len(t, res.StageRecords, 7)
	for i, c := range Capabilities {
		assert.Equal(t, string(c), res.StageRecords[i].Name)
		assert.Equal(t, types.StageCompleted, res.StageRecords[i].Status, c)
		assert.Equal(t, s[c].name, res.StageRecords[i].Provider)
	}

	assert.Equal(t, testSections, res.Sections)
	assert.Equal(t, "# Formatted paper", res.Formatted)
	assert.Equal(t, "APA", res.Metadata.Format)
	assert.Equal(t, 1200, res.Metadata.WordCount)
	assert.Equal(t, 5, res.Metadata.PageCount)
	require.NotNil(t, res.Quality)
	assert.Equal(t, 88, res.Quality.Score)
	assert.False(t, res.Degraded())

	assert.Equal(t, "1. Smith, J. (2020). A.\n\n2. Doe, J. (2021). B.\n\n3. Roe, R. (2022). C.", res.ReferenceList)

	// Figures are renumbered from 1.
	require.Len(t, res.Figures, 2)
	assert.Equal(t, 1, res.Figures[0].Index)
	assert.Equal(t, 2, res.Figures[1].Index)
}

func TestExecute_CountInvariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(fakeSet)
		options types.RawOptions
	}{
		{name: "defaults"},
		{name: "figures disabled", options: types.RawOptions{GenerateFigures: boolPtr(false)}},
		{name: "references disabled", options: types.RawOptions{AddReferences: boolPtr(false)}},
		{name: "caps below provider output", options: types.RawOptions{MaxFigures: intPtr(1), MaxReferences: intPtr(2)}},
		{name: "zero caps", options: types.RawOptions{MaxFigures: intPtr(0), MaxReferences: intPtr(0)}},
		{name: "figure provider fails", mutate: func(s fakeSet) {
			s[FigureSynthesis].fn = func(context.Context, any) (Result, error) { return Fail("no plotting"), nil }
		}},
		{name: "reference provider errors", mutate: func(s fakeSet) {
			s[ReferenceResolution].fn = func(context.Context, any) (Result, error) { return Result{}, errors.New("rate limited") }
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSet()
			if tt.mutate != nil {
				tt.mutate(s)
			}
			req := fileRequest()
			req.Options = tt.options

			res, err := newTestOrchestrator(t, s).Execute(context.Background(), req, "c")
			require.NoError(t, err)
			assert.Equal(t, len(res.Figures), res.Metadata.FigureCount)
			assert.Equal(t, len(res.References), res.Metadata.ReferenceCount)
			assert.NotNil(t, res.Figures)
			assert.NotNil(t, res.References)
			assert.NotEmpty(t, res.Formatted)
		})
	}
}

func TestExecute_CapsProviderOutput(t *testing.T) {
	req := fileRequest()
	req.Options = types.RawOptions{MaxFigures: intPtr(1), MaxReferences: intPtr(2)}

	res, err := newTestOrchestrator(t, newFakeSet()).Execute(context.Background(), req, "c")
	require.NoError(t, err)
	assert.Len(t, res.Figures, 1)
	assert.Len(t, res.References, 2)
	assert.Equal(t, "1. Smith, J. (2020). A.\n\n2. Doe, J. (2021). B.", res.ReferenceList)
}

func TestExecute_ValidationRunsNoStage(t *testing.T) {
	tests := []struct {
		name  string
		req   types.RawRequest
		field string
	}{
		{name: "empty question", req: types.RawRequest{ResearchQuestion: "  "}, field: "research_question"},
		{name: "bad style", req: types.RawRequest{ResearchQuestion: "q", Target: types.Target{Style: "Harvard"}}, field: "target.style"},
		{name: "bad kind", req: types.RawRequest{ResearchQuestion: "q", DataSource: &types.DataSource{Kind: "database"}}, field: "data_source.kind"},
		{name: "negative cap", req: types.RawRequest{ResearchQuestion: "q", Options: types.RawOptions{MaxFigures: intPtr(-1)}}, field: "options.max_figures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSet()
			res, err := newTestOrchestrator(t, s).Execute(context.Background(), tt.req, "c")
			require.Error(t, err)
			assert.Nil(t, res)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			for c, p := range s {
				assert.Zero(t, p.calls.Load(), "%s was invoked", c)
			}
		})
	}
}

func TestExecute_FatalDraftingAborts(t *testing.T) {
	s := newFakeSet()
	s[ContentDrafting].fn = func(context.Context, any) (Result, error) {
		return Fail("model overloaded"), nil
	}

	res, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrStageFailed)

	var fatal *FatalStageError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, ContentDrafting, fatal.Stage)
	assert.Equal(t, "fake-draft", fatal.Provider)
	assert.Contains(t, err.Error(), "model overloaded")

	require.Len(t, fatal.Records, 2)
	assert.Equal(t, types.StageCompleted, fatal.Records[0].Status)
	assert.Equal(t, types.StageFailed, fatal.Records[1].Status)
	assert.Contains(t, fatal.Records[1].Error, "model overloaded")

	assert.EqualValues(t, 1, s[DataIngestion].calls.Load())
	for _, c := range []Capability{FigureSynthesis, ReferenceResolution, DraftCompilation, QualityValidation, OutputFormatting} {
		assert.Zero(t, s[c].calls.Load(), "%s ran after fatal failure", c)
	}
}

func TestExecute_FatalIngestionAborts(t *testing.T) {
	s := newFakeSet()
	s[DataIngestion].fn = func(context.Context, any) (Result, error) {
		return Result{}, errors.New("file not found")
	}

	_, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	var fatal *FatalStageError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, DataIngestion, fatal.Stage)
	assert.Zero(t, s[ContentDrafting].calls.Load())
}

func TestExecute_EmptyCompilationIsFatal(t *testing.T) {
	s := newFakeSet()
	s[DraftCompilation].fn = succeedWith(types.CompiledDraft{Formatted: "  \n"})

	_, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	var fatal *FatalStageError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, DraftCompilation, fatal.Stage)
	assert.Zero(t, s[QualityValidation].calls.Load())
}

func TestExecute_FigurePanicIsBestEffort(t *testing.T) {
	s := newFakeSet()
	s[FigureSynthesis].fn = func(context.Context, any) (Result, error) {
		panic("plot backend exploded")
	}

	res, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)

	rec := recordFor(t, res, FigureSynthesis)
	assert.Equal(t, types.StageFailed, rec.Status)
	assert.Contains(t, rec.Error, "plot backend exploded")
	assert.Empty(t, res.Figures)
	assert.Zero(t, res.Metadata.FigureCount)
	assert.True(t, res.Degraded())

	assert.EqualValues(t, 1, s[ReferenceResolution].calls.Load())
	assert.EqualValues(t, 1, s[DraftCompilation].calls.Load())
}

func TestExecute_BestEffortFallbacks(t *testing.T) {
	s := newFakeSet()
	s[ReferenceResolution].fn = func(context.Context, any) (Result, error) { return Fail("search down"), nil }
	s[QualityValidation].fn = func(context.Context, any) (Result, error) { return Result{}, errors.New("timeout") }
	s[OutputFormatting].fn = succeedWith(types.FormattedOutput{Content: ""})

	res, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)

	assert.Empty(t, res.References)
	assert.Empty(t, res.ReferenceList)
	assert.Nil(t, res.Quality)
	assert.Equal(t, "# Paper\n\nbody", res.Formatted, "falls back to compiled text")
	assert.Equal(t, types.StageFailed, recordFor(t, res, ReferenceResolution).Status)
	assert.Equal(t, "stage failed: search down", recordFor(t, res, ReferenceResolution).Error)
	assert.Equal(t, types.StageFailed, recordFor(t, res, QualityValidation).Status)
	assert.Equal(t, types.StageFailed, recordFor(t, res, OutputFormatting).Status)
}

func TestExecute_WrongContentType(t *testing.T) {
	s := newFakeSet()
	s[QualityValidation].fn = succeedWith("looks good to me")
	s[DraftCompilation].fn = succeedWith((*types.CompiledDraft)(nil))

	_, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedContent)

	s[DraftCompilation].fn = succeedWith(&types.CompiledDraft{Formatted: "text"})
	res, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)
	rec := recordFor(t, res, QualityValidation)
	assert.Equal(t, types.StageFailed, rec.Status)
	assert.Contains(t, rec.Error, "string")
}

func TestExecute_Defaults(t *testing.T) {
	s := newFakeSet()
	var figIn types.FigureInput
	var refIn types.ReferenceInput
	var draftIn types.DraftingInput
	var fmtIn types.FormattingInput
	s[ContentDrafting].fn = func(_ context.Context, in any) (Result, error) {
		draftIn = in.(types.DraftingInput)
		return Succeed(types.DraftingOutput{Sections: testSections}), nil
	}
	s[FigureSynthesis].fn = func(_ context.Context, in any) (Result, error) {
		figIn = in.(types.FigureInput)
		return Succeed(types.FigureOutput{}), nil
	}
	s[ReferenceResolution].fn = func(_ context.Context, in any) (Result, error) {
		refIn = in.(types.ReferenceInput)
		return Succeed(types.ReferenceOutput{}), nil
	}
	s[OutputFormatting].fn = func(_ context.Context, in any) (Result, error) {
		fmtIn = in.(types.FormattingInput)
		return Succeed(types.FormattedOutput{Content: "done"}), nil
	}

	res, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)

	assert.Equal(t, types.SectionFlags{Abstract: true, Introduction: true, Methods: true, Results: true, Discussion: true, Conclusion: true}, draftIn.Sections)
	assert.Equal(t, types.StyleAPA, draftIn.Style.Format)
	assert.Equal(t, "2 columns, 3 rows", draftIn.Context.Methodology)
	assert.Equal(t, "2 columns, 3 rows", draftIn.Context.Results)

	assert.Equal(t, 5, figIn.MaxFigures)
	assert.Equal(t, "numerical", figIn.DataType)
	assert.Equal(t, "bar", figIn.ChartType)
	assert.Equal(t, testSections.Results, figIn.KeyFinding)

	assert.Equal(t, 30, refIn.MaxReferences)
	assert.Equal(t, types.StyleAPA, refIn.CitationStyle)
	assert.Equal(t, []string{"How does heat change protein folding rates?", "Protein", "folding", "under"}, refIn.Topics)

	assert.Equal(t, types.FormatLimits{WordLimit: 5000, PageLimit: 20, FigureLimit: 5, ReferenceLimit: 30}, fmtIn.Limits)
	assert.Equal(t, "APA", res.Metadata.Format)
	require.NotNil(t, res.Quality)
}

func TestExecute_FiguresDisabledIsSkipped(t *testing.T) {
	s := newFakeSet()
	req := fileRequest()
	req.Options.GenerateFigures = boolPtr(false)

	res, err := newTestOrchestrator(t, s).Execute(context.Background(), req, "c")
	require.NoError(t, err)

	rec := recordFor(t, res, FigureSynthesis)
	assert.Equal(t, types.StageSkipped, rec.Status)
	assert.Equal(t, types.SkipDisabled, rec.SkipReason)
	assert.Zero(t, rec.DurationMs)
	assert.Equal(t, "fake-figures", rec.Provider)
	assert.Zero(t, s[FigureSynthesis].calls.Load())
	assert.Empty(t, res.Figures)
	assert.False(t, res.Degraded())
}

func TestExecute_AllOptionalStagesDisabled(t *testing.T) {
	s := newFakeSet()
	req := fileRequest()
	req.DataSource = nil
	req.Options = types.RawOptions{
		GenerateFigures: boolPtr(false),
		AddReferences:   boolPtr(false),
		ValidateQuality: boolPtr(false),
		FormatOutput:    boolPtr(false),
	}

	res, err := newTestOrchestrator(t, s).Execute(context.Background(), req, "c")
	require.NoError(t, err)
	assert.Equal(t, []types.StageStatus{
		types.StageSkipped, types.StageCompleted, types.StageSkipped, types.StageSkipped,
		types.StageCompleted, types.StageSkipped, types.StageSkipped,
	}, statuses(res.StageRecords))
	assert.Equal(t, types.SkipPrecondition, res.StageRecords[0].SkipReason)
	assert.Equal(t, "# Paper\n\nbody", res.Formatted)
	assert.Nil(t, res.Quality)
}

func TestExecute_NoResultsSkipsFigures(t *testing.T) {
	s := newFakeSet()
	sections := testSections
	sections.Results = ""
	s[ContentDrafting].fn = succeedWith(types.DraftingOutput{Sections: sections})

	res, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)
	rec := recordFor(t, res, FigureSynthesis)
	assert.Equal(t, types.StageSkipped, rec.Status)
	assert.Equal(t, types.SkipPrecondition, rec.SkipReason)
}

func TestExecute_StructuredCitationRewrite(t *testing.T) {
	s := newFakeSet()
	cited := testSections
	cited.Title = ""
	cited.Introduction = "Folding matters (Smith, 2020)."
	s[ReferenceResolution].fn = succeedWith(types.ReferenceOutput{
		References: []types.Reference{{ID: "x", FullCitation: "Smith (2020)"}},
		Sections:   &cited,
	})

	res, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)
	assert.Equal(t, "Folding matters (Smith, 2020).", res.Sections.Introduction)
	assert.Equal(t, testSections.Title, res.Sections.Title)
}

func TestExecute_Deterministic(t *testing.T) {
	run := func() *types.PipelineResult {
		o := newTestOrchestrator(t, newFakeSet(),
			WithClock(steppingClock(3*time.Millisecond)),
			WithIDGenerator(func() string { return "run-fixed" }),
		)
		res, err := o.Execute(context.Background(), fileRequest(), "c")
		require.NoError(t, err)
		return res
	}

	first, second := run(), run()
	assert.Equal(t, first, second)
	for _, rec := range first.StageRecords {
		assert.EqualValues(t, 3, rec.DurationMs, rec.Name)
	}
	assert.Positive(t, first.TotalDurationMs)
}

func TestExecute_PassesCallContext(t *testing.T) {
	s := newFakeSet()
	reg := s.registry()
	var got []CallContext
	var mu sync.Mutex
	reg[QualityValidation] = ProviderFunc{ProviderName: "probe", Fn: func(_ context.Context, _ any, call CallContext) (Result, error) {
		mu.Lock()
		got = append(got, call)
		mu.Unlock()
		return Succeed(types.QualityReport{Score: 1}), nil
	}}
	o, err := New(reg)
	require.NoError(t, err)

	ctx := ContextWithRunID(context.Background(), "run-42")
	_, err = o.Execute(ctx, fileRequest(), "opaque-caller")
	require.NoError(t, err)
	assert.Equal(t, []CallContext{{CallerID: "opaque-caller", RunID: "run-42"}}, got)
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	s := newFakeSet()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestOrchestrator(t, s).Execute(ctx, fileRequest(), "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "DataIngestion")
	assert.Zero(t, s[DataIngestion].calls.Load())
}

func TestExecute_CancelledDuringDrafting(t *testing.T) {
	s := newFakeSet()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s[ContentDrafting].fn = func(context.Context, any) (Result, error) {
		cancel()
		return Succeed(types.DraftingOutput{Sections: testSections}), nil
	}

	_, err := newTestOrchestrator(t, s).Execute(ctx, fileRequest(), "c")
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "FigureSynthesis")
	assert.Zero(t, s[FigureSynthesis].calls.Load())
	assert.Zero(t, s[DraftCompilation].calls.Load())
}

func TestExecute_CancelledAfterCompilation(t *testing.T) {
	s := newFakeSet()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s[DraftCompilation].fn = func(context.Context, any) (Result, error) {
		cancel()
		return Succeed(types.CompiledDraft{Formatted: "compiled", WordCount: 1, PageCount: 1}), nil
	}

	res, err := newTestOrchestrator(t, s).Execute(ctx, fileRequest(), "c")
	require.NoError(t, err)
	require.Len(t, res.StageRecords, 7)
	for _, c := range []Capability{QualityValidation, OutputFormatting} {
		rec := recordFor(t, res, c)
		assert.Equal(t, types.StageSkipped, rec.Status)
		assert.Equal(t, types.SkipCancelled, rec.SkipReason)
		assert.Zero(t, s[c].calls.Load())
	}
	assert.Equal(t, "compiled", res.Formatted)
	assert.True(t, res.Degraded())
}

func TestExecute_StageTimeout(t *testing.T) {
	s := newFakeSet()
	s[FigureSynthesis].fn = func(ctx context.Context, _ any) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}

	o := newTestOrchestrator(t, s, WithStageTimeout(20*time.Millisecond))
	res, err := o.Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)

	rec := recordFor(t, res, FigureSynthesis)
	assert.Equal(t, types.StageFailed, rec.Status)
	assert.Contains(t, rec.Error, "deadline exceeded")
	assert.Equal(t, types.StageCompleted, recordFor(t, res, DraftCompilation).Status)
}

func TestExecute_ConcurrentInvocations(t *testing.T) {
	s := newFakeSet()
	s[ContentDrafting].fn = func(_ context.Context, in any) (Result, error) {
		sec := testSections
		sec.Title = in.(types.DraftingInput).ResearchQuestion
		return Succeed(types.DraftingOutput{Sections: sec}), nil
	}
	o := newTestOrchestrator(t, s)

	const n = 16
	results := make([]*types.PipelineResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := fileRequest()
			req.ResearchQuestion = fmt.Sprintf("question %d", i)
			res, err := o.Execute(context.Background(), req, "c")
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NotNil(t, res, "run %d failed", i)
		assert.Equal(t, fmt.Sprintf("question %d", i), res.Sections.Title)
		assert.Len(t, res.StageRecords, 7)
	}
	assert.EqualValues(t, n, s[OutputFormatting].calls.Load())
}

func TestExecute_RecordsMetrics(t *testing.T) {
	s := newFakeSet()
	s[FigureSynthesis].name = "metrics-figures"
	s[FigureSynthesis].fn = func(context.Context, any) (Result, error) { return Fail("nope"), nil }

	before := testutil.ToFloat64(metrics.StageOutcomes.WithLabelValues("FigureSynthesis", "metrics-figures", "failed"))
	_, err := newTestOrchestrator(t, s).Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)
	after := testutil.ToFloat64(metrics.StageOutcomes.WithLabelValues("FigureSynthesis", "metrics-figures", "failed"))
	assert.Equal(t, before+1, after)
}

func TestExecute_EmitsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		_ = tp.Shutdown(context.Background())
	})

	_, err := newTestOrchestrator(t, newFakeSet()).Execute(context.Background(), fileRequest(), "c")
	require.NoError(t, err)

	var names []string
	for _, span := range sr.Ended() {
		names = append(names, span.Name())
	}
	assert.Contains(t, names, "pipeline.Execute")
	assert.Contains(t, names, "stage ContentDrafting")
	assert.Equal(t, 8, len(names), strings.Join(names, ","))
}
