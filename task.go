// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsp

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"
)

// A TaskFunc is a unit of work to be run by a pool worker. It returns a
// result of type T and an error value, both of which are stored in the
// [Result] returned by [Submit]. Any other inputs are expected to be
// captured by specifying the TaskFunc as a [function literal].
//
// The context passed to a TaskFunc is the one given to [Submit]. The pool
// never cancels it, and a task that has been queued runs (or is abandoned at
// Close) regardless of what happens to that context afterwards.
//
// A TaskFunc runs on a worker goroutine shared with other tasks, so it
// should be short and must not block waiting for another task submitted to
// the same pool unless the pool has spare workers. It must not call
// [Pool.Close] on its own pool. If a TaskFunc panics, the panic is
// recovered and stored in its Result as a [*PanicError].
//
// [function literal]: https://go.dev/ref/spec#Function_literals
type TaskFunc[T any] = func(context.Context) (T, error)

// boundTask binds a TaskFunc to its submission context and Result.
type boundTask[T any] struct {
	ctx    context.Context
	fn     TaskFunc[T]
	result *Result[T]
	pool   *pool
}

func (t *boundTask[T]) Run() (err error) {
	didNotPanic := false
	defer func() {
		if !didNotPanic {
			pe := &PanicError{Value: recover(), Stack: debug.Stack()}
			t.pool.panicked.Add(1)
			t.result.resolve(*new(T), pe)
			err = pe
		}
	}()
	value, err := t.fn(t.ctx)
	didNotPanic = true
	t.result.resolve(value, err)
	return err
}

func (t *boundTask[T]) Abandon() {
	t.result.resolve(*new(T), ErrTaskAbandoned)
}

// continuation is a task without a Result, used by Go.
type continuation struct {
	fn   func()
	pool *pool
}

func (c continuation) Run() (err error) {
	didNotPanic := false
	defer func() {
		if !didNotPanic {
			pe := &PanicError{Value: recover(), Stack: debug.Stack()}
			c.pool.panicked.Add(1)
			c.pool.logger.Error("continuation panicked",
				zap.Any("panic", pe.Value),
				zap.ByteString("stack", pe.Stack),
			)
			err = pe
		}
	}()
	c.fn()
	didNotPanic = true
	return nil
}

func (c continuation) Abandon() {
	c.pool.logger.Warn("continuation abandoned at pool close")
}
