// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package core

import "time"

// Observer receives scheduling events. Methods are called synchronously from
// submitting goroutines and workers, so they must be cheap and safe for
// concurrent use. TaskSubmitted is reported once the task is queued, so it
// may arrive after another goroutine has already reported the same task
// stolen, executed or abandoned.
type Observer interface {
	TaskSubmitted(queue, level int)
	TaskStolen(thief, victim int)
	TaskExecuted(worker int, d time.Duration, err error)
	TaskAbandoned(queue int)
}

type nopObserver struct{}

func (nopObserver) TaskSubmitted(int, int)                  {}
func (nopObserver) TaskStolen(int, int)                     {}
func (nopObserver) TaskExecuted(int, time.Duration, error) {}
func (nopObserver) TaskAbandoned(int)                       {}
