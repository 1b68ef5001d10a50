// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bench

import (
	"cmp"
	"slices"
	"time"

	"github.com/addrummond/heap"
)

// TaskTime is how long one task ran.
type TaskTime struct {
	Task     int
	Duration time.Duration
}

func (a *TaskTime) Cmp(b *TaskTime) int {
	if c := cmp.Compare(a.Duration, b.Duration); c != 0 {
		return c
	}
	// Among equals, the later task ranks lower so the earlier one is kept.
	return cmp.Compare(b.Task, a.Task)
}

// Slowest keeps the k longest task times it has been offered. The shortest
// of those sits at the top of a min-heap so it can be evicted cheaply.
type Slowest struct {
	k    int
	n    int
	heap heap.Heap[TaskTime, heap.Min]
}

func NewSlowest(k int) *Slowest {
	return &Slowest{k: k}
}

func (s *Slowest) Offer(tt TaskTime) {
	if s.k <= 0 {
		return
	}
	if s.n < s.k {
		heap.PushOrderable(&s.heap, tt)
		s.n++
		return
	}
	top, ok := heap.Peek(&s.heap)
	if !ok || tt.Cmp(&top) <= 0 {
		return
	}
	heap.PopOrderable(&s.heap)
	heap.PushOrderable(&s.heap, tt)
}

// Drain empties the tracker and returns its contents, slowest first.
func (s *Slowest) Drain() []TaskTime {
	out := make([]TaskTime, 0, s.n)
	for {
		tt, ok := heap.PopOrderable(&s.heap)
		if !ok {
			break
		}
		out = append(out, tt)
	}
	s.n = 0
	slices.Reverse(out)
	return out
}
