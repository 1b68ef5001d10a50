// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsp

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/petenewcomb/wsp-go/internal/core"
	"go.uber.org/zap"
)

// A Pool is a work-stealing pool with one FIFO sequence per worker. A
// single-worker Pool runs tasks in submission order. Use [Submit] or [Go] to
// run tasks in it and [Pool.Close] to shut it down.
type Pool struct {
	pool
}

// A PriorityPool is a work-stealing pool with a High, Normal and Low
// sequence per worker. Use [SubmitWithPriority] to choose a level; [Submit]
// and [Go] use Normal.
type PriorityPool struct {
	pool
}

// NewPool creates a [Pool] and starts its workers. A negative worker count
// (such as [DefaultWorkers]) means one worker per logical CPU. Panics if
// workers is zero.
func NewPool(workers int, opts ...Option) *Pool {
	p := &Pool{}
	p.init(workers, 1, false, opts)
	return p
}

// NewPriorityPool creates a [PriorityPool] and starts its workers. Worker
// count semantics are the same as for [NewPool].
//
// Each worker begins its steal scan at its own random victim so that idle
// workers fan out across the pool rather than all contending for the
// lowest-numbered queue.
func NewPriorityPool(workers int, opts ...Option) *PriorityPool {
	p := &PriorityPool{}
	p.init(workers, 3, true, opts)
	return p
}

// Runner is the behavior common to [*Pool] and [*PriorityPool], for code
// that does not care which flavor it is given.
type Runner interface {
	Submitter
	Close()
	CloseContext(ctx context.Context) error
	Workers() int
	Len() int
	State() State
	Stats() Stats
}

var (
	_ Runner = (*Pool)(nil)
	_ Runner = (*PriorityPool)(nil)
)

type pool struct {
	s            *core.Scheduler
	logger       *zap.Logger
	defaultLevel Priority
	panicked     atomic.Uint64
}

func (p *pool) init(workers, levels int, randomVictims bool, opts []Option) {
	if workers == 0 {
		panic("worker count must be non-zero")
	}
	if workers < 0 {
		workers = runtime.NumCPU()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.fillDefaults()

	cfg := core.Config{
		Workers:       workers,
		Levels:        levels,
		RandomVictims: randomVictims,
		IdleTimeout:   o.idleTimeout,
		LockOSThread:  o.lockOSThread,
		CPUs:          o.cpus,
		Logger:        o.logger,
	}
	if o.observer != nil {
		cfg.Observer = observerAdapter{obs: o.observer, flat: levels == 1}
	}

	p.logger = o.logger
	if levels > 1 {
		p.defaultLevel = Normal
	}
	p.s = core.New(cfg)
}

func (p *pool) base() *pool {
	return p
}

// Close stops accepting tasks, waits for every worker to finish the task it
// is running, and resolves the Result of each task still queued with
// [ErrTaskAbandoned]. Close is idempotent, and concurrent callers all block
// until shutdown is complete.
//
// Close must not be called from a task running in the same pool: it would
// wait for its own worker and never return. A task can start shutdown
// without waiting by calling CloseContext with a context that has already
// ended.
func (p *pool) Close() {
	<-p.s.Stop()
}

// CloseContext is like Close but gives up waiting when ctx ends, returning
// ctx.Err(). Shutdown continues in the background and a later Close or
// CloseContext can wait for it to finish.
// Shutdown begins even if ctx has already ended.
func (p *pool) CloseContext(ctx context.Context) error {
	select {
	case <-p.s.Stop():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Workers returns the number of workers.
func (p *pool) Workers() int {
	return p.s.Workers()
}

// Len returns the number of tasks waiting in the queues. The count is a
// snapshot and may be stale by the time it is returned.
func (p *pool) Len() int {
	return p.s.Len()
}

// State returns the current lifecycle state.
func (p *pool) State() State {
	return State(p.s.State())
}

// Stats returns a snapshot of the pool's lifetime counters.
func (p *pool) Stats() Stats {
	cs := p.s.Stats()
	return Stats{
		Submitted: cs.Submitted,
		Executed:  cs.Executed,
		Failed:    cs.Failed,
		Panicked:  p.panicked.Load(),
		Stolen:    cs.Stolen,
		Abandoned: cs.Abandoned,
	}
}

// State is a pool's position in its lifecycle. A pool is Running from the
// moment its constructor returns until Close is first called, Stopping
// while its workers wind down, and Joined once they have all exited.
// Constructing is the engine's state before its workers start; pools are
// never observed in it because the constructors return only after starting
// them.
type State int32

const (
	Constructing = State(core.Constructing)
	Running      = State(core.Running)
	Stopping     = State(core.Stopping)
	Joined       = State(core.Joined)
)

func (s State) String() string {
	switch s {
	case Constructing, Running, Stopping, Joined:
		return core.State(s).String()
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats counts what a pool has done since it was created. Executed includes
// tasks that failed; Failed includes tasks that panicked.
// Executed+Abandoned never exceeds Submitted, and they are equal once the
// pool is Joined.
type Stats struct {
	Submitted uint64
	Executed  uint64
	Failed    uint64
	Panicked  uint64
	Stolen    uint64
	Abandoned uint64
}
