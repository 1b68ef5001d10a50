// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package otwsp provides OpenTelemetry and zap instrumentation for wsp
// pools. Task wrappers add spans, metrics and logs around individual tasks,
// [MetricsObserver] records pool-wide scheduling events, and [TracedGo]
// carries trace context into continuations, which otherwise run without a
// context.
package otwsp

import (
	"context"

	wsp "github.com/petenewcomb/wsp-go"
	"go.opentelemetry.io/otel/trace"
)

// PropagateContinuation returns a function suitable for [wsp.Go] that calls
// fn with a context carrying the span context active in ctx. The returned
// context is detached from ctx otherwise, so a continuation queued on
// behalf of a request that has since ended still runs inside its trace
// without observing the request's cancellation.
func PropagateContinuation(ctx context.Context, fn func(ctx context.Context)) func() {
	sc := trace.SpanContextFromContext(ctx)
	return func() {
		runCtx := context.Background()
		if sc.IsValid() {
			runCtx = trace.ContextWithRemoteSpanContext(runCtx, sc)
		}
		fn(runCtx)
	}
}

// GoPropagated is [wsp.Go] for a continuation that needs the submitter's
// trace context.
func GoPropagated(ctx context.Context, s wsp.Submitter, fn func(ctx context.Context)) error {
	return wsp.Go(ctx, s, PropagateContinuation(ctx, fn))
}
