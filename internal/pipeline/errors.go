// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// Sentinel errors for errors.Is checks.
var (
	ErrMissingProvider   = errors.New("missing capability provider")
	ErrUnexpectedContent = errors.New("unexpected provider content")
	ErrStageFailed       = errors.New("stage failed")
)

// ValidationError reports a malformed request. No stage runs when it is
// returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// FatalStageError reports that a mandatory stage failed and the pipeline was
// aborted. Err carries the provider's own failure.
type FatalStageError struct {
	Stage    Capability
	Provider string
	Err      error

	// Records is the stage telemetry up to and including the failed stage.
	Records []types.StageRecord
}

func (e *FatalStageError) Error() string {
	return fmt.Sprintf("fatal stage %s (%s): %v", e.Stage, e.Provider, e.Err)
}

// Unwrap returns the provider failure.
func (e *FatalStageError) Unwrap() error { return e.Err }

// Is makes every FatalStageError match ErrStageFailed.
func (e *FatalStageError) Is(target error) bool { return target == ErrStageFailed }

// providerError turns a failed Result into an error, keeping the provider's
// message.
func providerError(res Result) error {
	if res.Error != "" {
		return fmt.Errorf("%w: %s", ErrStageFailed, res.Error)
	}
	return fmt.Errorf("%w: provider reported failure", ErrStageFailed)
}
