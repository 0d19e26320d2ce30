// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// Status is the outcome of a recorded run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusDegraded  Status = "degraded"
	StatusFailed    Status = "failed"
	StatusInvalid   Status = "invalid"
)

// Run is the telemetry of one pipeline invocation. It never holds the
// generated paper.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	CallerID   string    `json:"caller_id,omitempty" yaml:"caller_id,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	DurationMs int64     `json:"duration_ms" yaml:"duration_ms"`
	Status     Status    `json:"status" yaml:"status"`

	// RequestDigest identifies the request content without storing it.
	RequestDigest string `json:"request_digest" yaml:"request_digest"`
	Question      string `json:"question" yaml:"question"`
	Style         string `json:"style,omitempty" yaml:"style,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`

	Metadata     types.Metadata      `json:"metadata" yaml:"metadata"`
	QualityScore *int                `json:"quality_score,omitempty" yaml:"quality_score,omitempty"`
	Stages       []types.StageRecord `json:"stages,omitempty" yaml:"stages,omitempty"`
}

// NewRun builds the ledger entry for a finished Execute call. err is the
// error Execute returned, if any.
func NewRun(id, callerID string, raw types.RawRequest, started time.Time, elapsed time.Duration, res *types.PipelineResult, err error) Run {
	r := Run{
		ID:            id,
		CallerID:      callerID,
		StartedAt:     started.UTC(),
		DurationMs:    elapsed.Milliseconds(),
		RequestDigest: Digest(raw),
		Question:      raw.ResearchQuestion,
		Style:         string(raw.Target.Style),
	}

	var (
		invalid *pipeline.ValidationError
		fatal   *pipeline.FatalStageError
	)
	switch {
	case errors.As(err, &invalid):
		r.Status = StatusInvalid
		r.Error = err.Error()
	case err != nil:
		r.Status = StatusFailed
		r.Error = err.Error()
		if errors.As(err, &fatal) {
			r.Stages = fatal.Records
		}
	case res != nil:
		r.Status = StatusCompleted
		if res.Degraded() {
			r.Status = StatusDegraded
		}
		r.Metadata = res.Metadata
		r.Stages = res.StageRecords
		if res.Quality != nil {
			score := res.Quality.Score
			r.QualityScore = &score
		}
		if res.TotalDurationMs > 0 {
			r.DurationMs = res.TotalDurationMs
		}
	}
	return r
}

// Digest hashes the JSON encoding of a request.
func Digest(raw types.RawRequest) string {
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:8])
}
