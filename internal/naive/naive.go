// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package naive is a baseline pool with one global FIFO queue shared by all
// workers under a single lock. It exists to give the work-stealing pools
// something to be measured against.
package naive

import (
	"sync"

	"github.com/gammazero/deque"
	"github.com/petenewcomb/wsp-go/internal/cerr"
)

const ErrClosed = cerr.Error("pool closed")

type Pool struct {
	mu      sync.Mutex
	cond    sync.Cond
	tasks   deque.Deque[func()]
	stopped bool
	wg      sync.WaitGroup
}

// New starts a pool with the given number of workers. Panics if workers is
// not positive.
func New(workers int) *Pool {
	if workers <= 0 {
		panic("worker count must be positive")
	}
	p := &Pool{}
	p.cond.L = &p.mu
	p.wg.Add(workers)
	for range workers {
		go p.work()
	}
	return p
}

// Submit queues fn and wakes one worker. Returns ErrClosed after Close.
func (p *Pool) Submit(fn func()) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrClosed
	}
	p.tasks.PushBack(fn)
	p.mu.Unlock()
	p.cond.Signal()
	return nil
}

// Close stops accepting tasks and waits for the workers to run everything
// already queued.
func (p *Pool) Close() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for !p.stopped && p.tasks.Len() == 0 {
			p.cond.Wait()
		}
		if p.tasks.Len() == 0 {
			p.mu.Unlock()
			return
		}
		fn := p.tasks.PopFront()
		p.mu.Unlock()
		fn()
	}
}
