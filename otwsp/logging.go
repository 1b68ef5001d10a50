// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsp

import (
	"context"
	"time"

	wsp "github.com/petenewcomb/wsp-go"
	"go.uber.org/zap"
)

// LoggedTask adds structured logging to tasks.
// This wrapper logs the start and completion of task execution, including
// timing information and any errors that occur. It logs through zap.L().
func LoggedTask[T any](
	operationName string,
	taskFunc func(ctx context.Context) (T, error),
) wsp.TaskFunc[T] {
	return func(ctx context.Context) (T, error) {
		logger := zap.L().With(
			zap.String("operation", operationName),
			zap.String("component", "otwsp"),
		)

		logger.Debug("Starting task")

		startTime := time.Now()
		result, err := taskFunc(ctx)
		duration := time.Since(startTime)

		if err != nil {
			logger.Error("Task failed",
				zap.Duration("duration", duration),
				zap.Error(err))
		} else {
			logger.Debug("Task completed",
				zap.Duration("duration", duration))
		}

		return result, err
	}
}
