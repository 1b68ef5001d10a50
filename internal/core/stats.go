// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package core

import (
	"sync/atomic"
)

// Stats is a snapshot of a scheduler's lifetime counters.
type Stats struct {
	Submitted uint64
	Executed  uint64
	Failed    uint64
	Stolen    uint64
	Abandoned uint64
}

// Each counter gets its own cache line since workers bump them
// concurrently on every task.
type paddedCounter struct {
	atomic.Uint64
	_ [cacheLineSize - 8]byte
}

type counters struct {
	submitted paddedCounter
	executed  paddedCounter
	failed    paddedCounter
	stolen    paddedCounter
	abandoned paddedCounter
}

// Stats returns the current counter values. Counters are read one at a
// time, so a snapshot taken while tasks are moving may be slightly skewed,
// but Executed+Abandoned never exceeds Submitted.
func (s *Scheduler) Stats() Stats {
	// Outcomes first: a task is counted as submitted before it can be run
	// or abandoned, so reading Submitted last keeps it an upper bound.
	st := Stats{
		Abandoned: s.counters.abandoned.Load(),
		Executed:  s.counters.executed.Load(),
		Failed:    s.counters.failed.Load(),
		Stolen:    s.counters.stolen.Load(),
	}
	st.Submitted = s.counters.submitted.Load()
	return st
}
