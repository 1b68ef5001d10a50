// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsp

import (
	"time"

	"github.com/petenewcomb/wsp-go/internal/core"
	"go.uber.org/zap"
)

// DefaultWorkers asks [NewPool] or [NewPriorityPool] for one worker per
// logical CPU.
const DefaultWorkers = -1

// DefaultIdleTimeout is how long an idle worker sleeps before looking for
// work again if nothing wakes it sooner.
const DefaultIdleTimeout = core.DefaultIdleTimeout

// An Option customizes a pool at construction.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	idleTimeout  time.Duration
	observer     Observer
	lockOSThread bool
	cpus         []int
}

// WithLogger sets the logger used for pool lifecycle events and for panics
// in [Go] continuations. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithIdleTimeout bounds how long an idle worker waits to be woken before it
// rescans the queues. Non-positive values select [DefaultIdleTimeout].
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = d
	}
}

// WithObserver registers an [Observer] for scheduling events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithLockOSThread dedicates an OS thread to each worker for its lifetime.
func WithLockOSThread() Option {
	return func(o *options) {
		o.lockOSThread = true
	}
}

// WithCPUAffinity pins worker i to cpus[i % len(cpus)]. It implies
// [WithLockOSThread]. Pinning is only supported on Linux and is silently
// skipped elsewhere; a CPU that cannot be pinned is logged at warn level.
func WithCPUAffinity(cpus ...int) Option {
	return func(o *options) {
		o.cpus = append([]int(nil), cpus...)
	}
}

func (o *options) fillDefaults() {
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.idleTimeout <= 0 {
		o.idleTimeout = DefaultIdleTimeout
	}
}
