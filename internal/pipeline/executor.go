// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/metrics"
	"github.com/pdiddy/paper-engine/internal/tracing"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// Phase is the pipeline state reported in logs.
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseIngesting           Phase = "ingesting"
	PhaseDrafting            Phase = "drafting"
	PhaseFigureSynthesis     Phase = "figure_synthesis"
	PhaseReferenceResolution Phase = "reference_resolution"
	PhaseCompiling           Phase = "compiling"
	PhaseValidating          Phase = "validating"
	PhaseFormatting          Phase = "formatting"
	PhaseCompleted           Phase = "completed"
	PhaseFailed              Phase = "failed"
)

// stageSpec declares a stage and its failure policy.
type stageSpec struct {
	capability Capability
	phase      Phase

	// fatal stages abort the pipeline on failure; the others record the
	// failure and fall back.
	fatal bool
}

var (
	ingestionStage   = stageSpec{capability: DataIngestion, phase: PhaseIngesting, fatal: true}
	draftingStage    = stageSpec{capability: ContentDrafting, phase: PhaseDrafting, fatal: true}
	figureStage      = stageSpec{capability: FigureSynthesis, phase: PhaseFigureSynthesis}
	referenceStage   = stageSpec{capability: ReferenceResolution, phase: PhaseReferenceResolution}
	compilationStage = stageSpec{capability: DraftCompilation, phase: PhaseCompiling, fatal: true}
	qualityStage     = stageSpec{capability: QualityValidation, phase: PhaseValidating}
	formattingStage  = stageSpec{capability: OutputFormatting, phase: PhaseFormatting}
)

// stageOrder is the fixed execution order.
var stageOrder = []stageSpec{
	ingestionStage,
	draftingStage,
	figureStage,
	referenceStage,
	compilationStage,
	qualityStage,
	formattingStage,
}

// run holds the state of a single invocation. It is created by Execute and
// never shared between invocations.
type run struct {
	id       string
	call     CallContext
	registry Registry
	logger   *zap.Logger
	now      func() time.Time
	timeout  time.Duration

	phase   Phase
	records []types.StageRecord
}

// skip records a stage that was not applicable. The provider is not called.
func (r *run) skip(spec stageSpec, reason types.SkipReason) {
	provider := r.registry[spec.capability].Name()
	r.records = append(r.records, types.StageRecord{
		Name:       string(spec.capability),
		Provider:   provider,
		Status:     types.StageSkipped,
		SkipReason: reason,
	})
	metrics.RecordStage(string(spec.capability), provider, string(types.StageSkipped), 0)
	r.logger.Debug("stage skipped",
		zap.String("stage", string(spec.capability)),
		zap.String("provider", provider),
		zap.String("reason", string(reason)),
	)
}

// exec times one provider call, classifies the outcome, and appends the
// stage record. accept validates and captures the provider content; an
// accept error is a stage failure like any other.
//
// It returns ok=true on success. A failed best-effort stage returns ok=false
// and a nil error so the caller can substitute its fallback. A failed fatal
// stage returns a *FatalStageError.
func (r *run) exec(ctx context.Context, spec stageSpec, input any, accept func(any) error) (bool, error) {
	provider := r.registry[spec.capability]
	name := provider.Name()
	r.phase = spec.phase

	ctx, span := tracing.StartSpan(ctx, "stage "+string(spec.capability),
		attribute.String("paper_engine.stage", string(spec.capability)),
		attribute.String("paper_engine.provider", name),
		attribute.Bool("paper_engine.fatal", spec.fatal),
		attribute.String("paper_engine.run_id", r.id),
	)

	start := r.now()
	err := r.invoke(ctx, provider, input, accept)
	elapsed := r.now().Sub(start).Milliseconds()
	tracing.EndSpan(span, err)

	fields := []zap.Field{
		zap.String("stage", string(spec.capability)),
		zap.String("provider", name),
		zap.Int64("duration_ms", elapsed),
		zap.String("phase", string(spec.phase)),
	}

	if err == nil {
		r.records = append(r.records, types.StageRecord{
			Name:       string(spec.capability),
			Provider:   name,
			Status:     types.StageCompleted,
			DurationMs: elapsed,
		})
		metrics.RecordStage(string(spec.capability), name, string(types.StageCompleted), elapsed)
		r.logger.Debug("stage completed", fields...)
		return true, nil
	}

	r.records = append(r.records, types.StageRecord{
		Name:       string(spec.capability),
		Provider:   name,
		Status:     types.StageFailed,
		DurationMs: elapsed,
		Error:      err.Error(),
	})
	metrics.RecordStage(string(spec.capability), name, string(types.StageFailed), elapsed)

	if spec.fatal {
		r.phase = PhaseFailed
		r.logger.Error("fatal stage failed", append(fields, zap.Error(err))...)
		return false, &FatalStageError{
			Stage:    spec.capability,
			Provider: name,
			Err:      err,
			Records:  append([]types.StageRecord(nil), r.records...),
		}
	}

	r.logger.Warn("stage failed, using fallback", append(fields, zap.Error(err))...)
	return false, nil
}

// invoke makes exactly one provider call under the per-stage timeout. A
// panic inside the provider is converted to an error.
func (r *run) invoke(ctx context.Context, p Provider, input any, accept func(any) error) (err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: provider panicked: %v", ErrStageFailed, rec)
		}
	}()

	res, err := p.Execute(ctx, input, r.call)
	if err != nil {
		return err
	}
	if !res.Success {
		return providerError(res)
	}
	return accept(res.Content)
}

// runStage executes a stage whose provider returns content of type T. check,
// when non-nil, rejects content that has the right type but is unusable.
func runStage[T any](ctx context.Context, r *run, spec stageSpec, input any, check func(T) error) (T, bool, error) {
	var out T
	ok, err := r.exec(ctx, spec, input, func(content any) error {
		v, err := contentAs[T](content)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(v); err != nil {
				return err
			}
		}
		out = v
		return nil
	})
	return out, ok, err
}
