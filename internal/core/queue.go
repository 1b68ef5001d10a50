// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package core

import (
	"sync"

	"github.com/gammazero/deque"
)

// MaxLevels is the largest number of priority levels a WorkQueue can hold.
const MaxLevels = 3

const cacheLineSize = 64

// A Task is a unit of work owned by exactly one WorkQueue slot until it is
// popped (and then Run exactly once) or drained at shutdown (and then
// Abandoned exactly once).
type Task interface {
	// Run executes the task and returns the error it stored in its result,
	// if any. Run must not panic.
	Run() error

	// Abandon settles the task's result without running it.
	Abandon()
}

// WorkQueue holds the tasks assigned to one worker. Level 0 is served first.
// The owner pops from the front of a level and thieves take from the back,
// so the two roles work at opposite ends of the same sequence.
//
// All mutable state lives inline in the struct and is followed by a full
// cache line of padding, so adjacent queues in a slice never share a line.
type WorkQueue struct {
	mu     sync.Mutex
	closed bool
	levels int
	tasks  [MaxLevels]deque.Deque[Task]
	_      [cacheLineSize]byte
}

func (q *WorkQueue) init(levels int) {
	if levels < 1 || levels > MaxLevels {
		panic("invalid level count")
	}
	q.levels = levels
}

// PushBack appends t to the given level. Returns false without enqueuing if
// the queue has been closed.
func (q *WorkQueue) PushBack(level int, t Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.tasks[level].PushBack(t)
	return true
}

// PopFrontLocal removes the front task of the highest non-empty level. Only
// the owning worker calls it.
func (q *WorkQueue) PopFrontLocal() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for l := range q.levels {
		if q.tasks[l].Len() > 0 {
			return q.tasks[l].PopFront(), true
		}
	}
	return nil, false
}

// TryPopBackAsThief removes the back task of the highest non-empty level,
// but only if the queue's lock can be taken without waiting.
func (q *WorkQueue) TryPopBackAsThief() (Task, bool) {
	if !q.mu.TryLock() {
		return nil, false
	}
	defer q.mu.Unlock()
	for l := range q.levels {
		if q.tasks[l].Len() > 0 {
			return q.tasks[l].PopBack(), true
		}
	}
	return nil, false
}

// Len returns the number of queued tasks across all levels.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for l := range q.levels {
		n += q.tasks[l].Len()
	}
	return n
}

// CloseAndDrain marks the queue closed, so that later pushes fail, and
// returns whatever was still queued in service order.
func (q *WorkQueue) CloseAndDrain() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	var drained []Task
	for l := range q.levels {
		d := &q.tasks[l]
		for d.Len() > 0 {
			drained = append(drained, d.PopFront())
		}
		d.Clear()
	}
	return drained
}
