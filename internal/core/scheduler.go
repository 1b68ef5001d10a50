// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package core is the engine behind both pool flavors: a fixed set of
// workers, each owning one WorkQueue, that take from their own queue first,
// steal from the others second, and otherwise wait a bounded time to be
// woken.
package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petenewcomb/wsp-go/internal/waitq"
	"go.uber.org/zap"
)

const DefaultIdleTimeout = 10 * time.Millisecond

// Config describes a Scheduler. Zero fields take defaults in FillDefaults.
type Config struct {
	// Workers is the number of workers and queues. Must be positive.
	Workers int

	// Levels is the number of priority levels per queue, between 1 and
	// MaxLevels. Defaults to 1.
	Levels int

	// RandomVictims makes each worker start its steal scan at a random
	// victim instead of at index 0.
	RandomVictims bool

	// IdleTimeout bounds how long an idle worker sleeps before rescanning.
	IdleTimeout time.Duration

	// LockOSThread dedicates an OS thread to each worker.
	LockOSThread bool

	// CPUs, if non-empty, pins worker i to CPUs[i%len(CPUs)]. Implies
	// LockOSThread.
	CPUs []int

	Observer Observer
	Logger   *zap.Logger
}

// FillDefaults replaces unset fields with their defaults.
func (c *Config) FillDefaults() {
	if c.Levels == 0 {
		c.Levels = 1
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

type State int32

const (
	Constructing State = iota
	Running
	Stopping
	Joined
)

func (s State) String() string {
	switch s {
	case Constructing:
		return "Constructing"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Joined:
		return "Joined"
	default:
		panic(fmt.Sprintf("unknown scheduler state %d", int32(s)))
	}
}

type Scheduler struct {
	cfg    Config
	queues []WorkQueue

	// Dispatch position. Owned by this scheduler alone so that separate
	// schedulers never perturb each other's placement.
	counter atomic.Uint64
	_       [cacheLineSize - 8]byte

	// Upper bound on tasks that are queued or about to be. Incremented
	// before a push and decremented after a pop, so an idle worker that
	// reads zero after registering as a waiter cannot miss a task.
	pending atomic.Int64
	_       [cacheLineSize - 8]byte

	stopping atomic.Bool
	state    atomic.Int32
	stopOnce sync.Once
	stopCh   chan struct{}
	joinedCh chan struct{}
	wg       sync.WaitGroup
	idle     waitq.Queue

	counters counters
}

// New creates a scheduler and starts its workers.
func New(cfg Config) *Scheduler {
	s := newScheduler(cfg)
	s.start()
	return s
}

func newScheduler(cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		panic("worker count must be positive")
	}
	cfg.FillDefaults()
	s := &Scheduler{
		cfg:      cfg,
		queues:   make([]WorkQueue, cfg.Workers),
		stopCh:   make(chan struct{}),
		joinedCh: make(chan struct{}),
	}
	for i := range s.queues {
		s.queues[i].init(cfg.Levels)
	}
	return s
}

func (s *Scheduler) start() {
	if !s.state.CompareAndSwap(int32(Constructing), int32(Running)) {
		panic("scheduler already started")
	}
	s.wg.Add(len(s.queues))
	for i := range s.queues {
		go s.work(i)
	}
	s.cfg.Logger.Debug("scheduler started",
		zap.Int("workers", len(s.queues)),
		zap.Int("levels", s.cfg.Levels),
		zap.Bool("randomVictims", s.cfg.RandomVictims),
		zap.Duration("idleTimeout", s.cfg.IdleTimeout),
	)
}

// Submit places t at the back of the given level of the next queue in
// round-robin order and wakes one idle worker. Levels outside the
// configured range are treated as the middle level. Returns false if the
// scheduler is stopping, in which case t was not queued.
func (s *Scheduler) Submit(level int, t Task) bool {
	if level < 0 || level >= s.cfg.Levels {
		level = s.cfg.Levels / 2
	}
	if s.stopping.Load() {
		return false
	}
	i := int((s.counter.Add(1) - 1) % uint64(len(s.queues)))
	// Counted before the push so that no snapshot shows a task executed
	// or abandoned without it also being submitted.
	s.pending.Add(1)
	s.counters.submitted.Add(1)
	if !s.queues[i].PushBack(level, t) {
		s.counters.submitted.Add(^uint64(0))
		s.pending.Add(-1)
		return false
	}
	s.cfg.Observer.TaskSubmitted(i, level)
	s.idle.Notify()
	return true
}

// Stop asks the workers to exit after their current task and returns a
// channel that is closed once they have all exited and every task left in
// the queues has been abandoned. Safe to call more than once and from
// multiple goroutines.
func (s *Scheduler) Stop() <-chan struct{} {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		s.state.Store(int32(Stopping))
		s.cfg.Logger.Debug("scheduler stopping")
		close(s.stopCh)
		go func() {
			s.wg.Wait()
			abandoned := s.settle()
			s.state.Store(int32(Joined))
			s.cfg.Logger.Debug("scheduler stopped",
				zap.Uint64("executed", s.counters.executed.Load()),
				zap.Int("abandoned", abandoned),
			)
			close(s.joinedCh)
		}()
	})
	return s.joinedCh
}

// settle closes every queue and abandons what was left in it. Runs only
// after all workers have exited.
func (s *Scheduler) settle() int {
	n := 0
	for i := range s.queues {
		for _, t := range s.queues[i].CloseAndDrain() {
			t.Abandon()
			s.cfg.Observer.TaskAbandoned(i)
			n++
		}
	}
	s.counters.abandoned.Add(uint64(n))
	return n
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) Workers() int {
	return len(s.queues)
}

func (s *Scheduler) Levels() int {
	return s.cfg.Levels
}

func (s *Scheduler) Logger() *zap.Logger {
	return s.cfg.Logger
}

// Len returns the number of queued tasks. The result is a snapshot taken
// one queue at a time, so it is only exact when the scheduler is quiescent.
func (s *Scheduler) Len() int {
	n := 0
	for i := range s.queues {
		n += s.queues[i].Len()
	}
	return n
}

// Queue exposes the i'th queue for inspection.
func (s *Scheduler) Queue(i int) *WorkQueue {
	return &s.queues[i]
}
