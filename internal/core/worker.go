// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package core

import (
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/petenewcomb/wsp-go/internal/affinity"
	"github.com/petenewcomb/wsp-go/internal/timerp"
	"go.uber.org/zap"
)

type worker struct {
	s     *Scheduler
	index int
	own   *WorkQueue
	rng   *rand.Rand // nil for a sequential victim scan
	timed bool
}

func (s *Scheduler) work(i int) {
	defer s.wg.Done()

	if s.cfg.LockOSThread || len(s.cfg.CPUs) > 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	if len(s.cfg.CPUs) > 0 {
		cpu := s.cfg.CPUs[i%len(s.cfg.CPUs)]
		if err := affinity.Pin(cpu); err != nil {
			s.cfg.Logger.Warn("unable to pin worker",
				zap.Int("worker", i),
				zap.Int("cpu", cpu),
				zap.Error(err),
			)
		}
	}

	w := worker{
		s:     s,
		index: i,
		own:   &s.queues[i],
	}
	if s.cfg.RandomVictims {
		w.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	_, nop := s.cfg.Observer.(nopObserver)
	w.timed = !nop

	w.loop()
}

func (w *worker) loop() {
	for !w.s.stopping.Load() {
		if t, ok := w.own.PopFrontLocal(); ok {
			w.run(t)
			continue
		}
		if t, victim, ok := w.steal(); ok {
			w.s.counters.stolen.Add(1)
			w.s.cfg.Observer.TaskStolen(w.index, victim)
			w.run(t)
			continue
		}
		w.idle()
	}
}

// steal scans the other queues once, starting at index 0 or at a random
// offset, and takes the first task it can get without blocking.
func (w *worker) steal() (Task, int, bool) {
	n := len(w.s.queues)
	start := 0
	if w.rng != nil {
		start = w.rng.IntN(n)
	}
	for k := range n {
		v := (start + k) % n
		if v == w.index {
			continue
		}
		if t, ok := w.s.queues[v].TryPopBackAsThief(); ok {
			return t, v, true
		}
	}
	return nil, -1, false
}

func (w *worker) run(t Task) {
	w.s.pending.Add(-1)
	var start time.Time
	if w.timed {
		start = time.Now()
	}
	err := t.Run()
	w.s.counters.executed.Add(1)
	if err != nil {
		w.s.counters.failed.Add(1)
	}
	if w.timed {
		w.s.cfg.Observer.TaskExecuted(w.index, time.Since(start), err)
	}
}

// idle waits until woken by a submission, the scheduler stops, or the idle
// timeout passes.
func (w *worker) idle() {
	waiter := w.s.idle.Add()
	defer waiter.Close()

	// Checked only after registering, so that a submission made after the
	// scan above either shows up here or notifies the waiter.
	if w.s.stopping.Load() {
		return
	}
	if w.s.pending.Load() > 0 {
		runtime.Gosched()
		return
	}

	t := timerp.Get(w.s.cfg.IdleTimeout)
	defer timerp.Put(t)
	select {
	case <-waiter.Done():
	case <-w.s.stopCh:
	case <-t.C:
	}
}
