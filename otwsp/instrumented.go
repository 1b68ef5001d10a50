// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsp

import (
	"context"

	wsp "github.com/petenewcomb/wsp-go"
)

// InstrumentedTask combines tracing, metrics, and logging for tasks into a
// single wrapper.
func InstrumentedTask[T any](
	operationName string,
	taskFunc func(ctx context.Context) (T, error),
) wsp.TaskFunc[T] {
	// Apply wrappers inside-out so the span covers the whole call.
	loggedTask := LoggedTask(operationName, taskFunc)
	metricsTask := MetricsTask(operationName, loggedTask)
	return TracedTask(operationName, metricsTask)
}
