// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsp

import (
	"context"

	wsp "github.com/petenewcomb/wsp-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedTask adds a span with the given operation name to a task function.
// The span is a child of whatever span is active in the context passed to
// [wsp.Submit], starts when a worker picks the task up, and is marked as an
// error if the task returns one.
func TracedTask[T any](
	operationName string,
	taskFunc func(ctx context.Context) (T, error),
) wsp.TaskFunc[T] {
	return func(ctx context.Context) (T, error) {
		ctx, span := otel.Tracer(instrumentationName).Start(ctx, operationName)
		defer span.End()

		result, err := taskFunc(ctx)
		recordError(span, err)
		return result, err
	}
}

// TracedGo is [GoPropagated] with a span named operationName around the
// continuation. The span ends when fn returns, or is recorded as panicked
// if fn panics; the panic itself is still handled by the pool.
func TracedGo(
	ctx context.Context,
	s wsp.Submitter,
	operationName string,
	fn func(ctx context.Context),
) error {
	return GoPropagated(ctx, s, func(ctx context.Context) {
		ctx, span := otel.Tracer(instrumentationName).Start(ctx, operationName,
			trace.WithAttributes(attribute.Bool("wsp.continuation", true)))
		didNotPanic := false
		defer func() {
			if !didNotPanic {
				span.SetStatus(codes.Error, "continuation panicked")
			}
			span.End()
		}()
		fn(ctx)
		didNotPanic = true
	})
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
