// Package tracing wraps units of work in OpenTelemetry spans.
//
// Run starts a span as a child of the span carried by ctx, hands it to the
// operation, and on return records the outcome and ends the span. The span is
// ended exactly once on every exit path, including a panic inside the
// operation, and whatever the operation returns reaches the caller unchanged.
//
//	content, err := tracing.Run(ctx, tracer, "generate-random-content",
//		func(ctx context.Context, span trace.Span) (*model.Content, error) {
//			...
//		})
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation is a unit of work executed inside a span. ctx carries span.
type Operation[T any] func(ctx context.Context, span trace.Span) (T, error)

// Run executes op inside a new span named name. attrs are applied when the
// span starts.
func Run[T any](ctx context.Context, tracer trace.Tracer, name string, op Operation[T],
	attrs ...attribute.KeyValue) (result T, err error) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, fmt.Sprint(r))
			span.End()

			panic(r)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		span.End()
	}()

	return op(ctx, span)
}

// Do is Run for operations that produce no value.
func Do(ctx context.Context, tracer trace.Tracer, name string, op func(ctx context.Context, span trace.Span) error,
	attrs ...attribute.KeyValue) error {
	_, err := Run(ctx, tracer, name, func(ctx context.Context, span trace.Span) (struct{}, error) {
		return struct{}{}, op(ctx, span)
	}, attrs...)

	return err
}
