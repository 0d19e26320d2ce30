// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Capability names one of the seven provider roles the pipeline needs.
type Capability string

const (
	DataIngestion       Capability = "DataIngestion"
	ContentDrafting     Capability = "ContentDrafting"
	FigureSynthesis     Capability = "FigureSynthesis"
	ReferenceResolution Capability = "ReferenceResolution"
	DraftCompilation    Capability = "DraftCompilation"
	QualityValidation   Capability = "QualityValidation"
	OutputFormatting    Capability = "OutputFormatting"
)

// Capabilities lists every capability in stage order.
var Capabilities = []Capability{
	DataIngestion,
	ContentDrafting,
	FigureSynthesis,
	ReferenceResolution,
	DraftCompilation,
	QualityValidation,
	OutputFormatting,
}

// CallContext is passed unchanged to every provider call. The pipeline never
// inspects CallerID.
type CallContext struct {
	CallerID string
	RunID    string
}

// Result is what a provider returns. Success false with an Error message is
// an ordinary failure; a non-nil error from Execute is treated the same way.
type Result struct {
	Success bool
	Content any
	Error   string
}

// Provider performs one stage's work. Implementations receive the stage's
// typed input (types.DraftingInput, types.CompilationInput, ...) and return
// the matching output type, by value or pointer, as Result.Content.
type Provider interface {
	Name() string
	Execute(ctx context.Context, input any, call CallContext) (Result, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc struct {
	ProviderName string
	Fn           func(ctx context.Context, input any, call CallContext) (Result, error)
}

// Name returns the provider name.
func (p ProviderFunc) Name() string { return p.ProviderName }

// Execute calls Fn.
func (p ProviderFunc) Execute(ctx context.Context, input any, call CallContext) (Result, error) {
	return p.Fn(ctx, input, call)
}

// Succeed is a convenience for providers returning content.
func Succeed(content any) Result {
	return Result{Success: true, Content: content}
}

// Fail is a convenience for providers reporting a failure message.
func Fail(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// Registry maps each capability to the provider that serves it.
type Registry map[Capability]Provider

// Validate reports every capability without a provider. A typed nil pointer
// counts as missing.
func (r Registry) Validate() error {
	var missing []string
	for _, c := range Capabilities {
		if isNilProvider(r[c]) {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingProvider, strings.Join(missing, ", "))
	}
	return nil
}

func isNilProvider(p Provider) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// clone copies the registry so later changes by the caller do not leak into
// a constructed Orchestrator.
func (r Registry) clone() Registry {
	out := make(Registry, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// contentAs extracts typed stage output from a provider result, accepting
// either T or a non-nil *T.
func contentAs[T any](v any) (T, error) {
	switch c := v.(type) {
	case T:
		return c, nil
	case *T:
		if c != nil {
			return *c, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: got %T, want %T", ErrUnexpectedContent, v, zero)
}
