// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsp

import (
	"time"
)

// An Observer receives scheduling events from a pool. Queue and worker
// arguments are worker indexes in [0, Workers()). Methods are called
// synchronously from submitting goroutines and from workers, so they must
// be safe for concurrent use and should return quickly.
type Observer interface {
	// TaskSubmitted reports that a task was queued. For a [Pool] the level
	// is always Normal. It is called after the task becomes visible to
	// workers, so events for the same task reported from other goroutines
	// (TaskStolen, TaskExecuted, TaskAbandoned) may precede it. Stats counts
	// the submission before the task is queued and does not share this
	// skew.
	TaskSubmitted(queue int, level Priority)

	// TaskStolen reports that worker thief took a task from the queue of
	// worker victim. The task's execution is reported separately.
	TaskStolen(thief, victim int)

	// TaskExecuted reports that a task finished running on the given worker.
	// err is whatever the task stored in its Result.
	TaskExecuted(worker int, d time.Duration, err error)

	// TaskAbandoned reports that a task was still queued when the pool
	// closed.
	TaskAbandoned(queue int)
}

// observerAdapter translates engine events into the public vocabulary.
type observerAdapter struct {
	obs  Observer
	flat bool
}

func (a observerAdapter) TaskSubmitted(queue, level int) {
	p := Priority(level)
	if a.flat {
		p = Normal
	}
	a.obs.TaskSubmitted(queue, p)
}

func (a observerAdapter) TaskStolen(thief, victim int) {
	a.obs.TaskStolen(thief, victim)
}

func (a observerAdapter) TaskExecuted(worker int, d time.Duration, err error) {
	a.obs.TaskExecuted(worker, d, err)
}

func (a observerAdapter) TaskAbandoned(queue int) {
	a.obs.TaskAbandoned(queue)
}
