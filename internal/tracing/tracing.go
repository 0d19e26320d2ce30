// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tracing holds the OpenTelemetry tracer used for pipeline spans.
// Spans go to whatever TracerProvider is installed globally; with none
// installed they are no-ops.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies paper-engine spans.
const InstrumentationName = "github.com/pdiddy/paper-engine"

// tracer resolves the global provider on every call so tests can install a
// recording provider after package initialization.
func tracer() oteltrace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan creates a new span with the given name and attributes.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	return tracer().Start(ctx, spanName, oteltrace.WithAttributes(attrs...))
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
