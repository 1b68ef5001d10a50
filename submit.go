// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsp

import (
	"context"
)

// A Submitter is a pool that accepts tasks: a [*Pool] or a [*PriorityPool].
type Submitter interface {
	base() *pool
}

// Submit queues fn to run on one of the pool's workers and returns its
// [Result] without waiting for it to run. On a [PriorityPool] the task is
// queued at Normal priority.
//
// Submit returns ctx.Err() if ctx has already ended and [ErrPoolClosed] if
// the pool has been closed; in either case fn will never run. Panics if fn
// is nil.
func Submit[T any](ctx context.Context, s Submitter, fn TaskFunc[T]) (*Result[T], error) {
	p := s.base()
	return submit(ctx, p, p.defaultLevel, fn)
}

// SubmitWithPriority is like [Submit] but queues the task at the given level.
// Values other than High, Normal and Low are treated as Normal.
func SubmitWithPriority[T any](ctx context.Context, p *PriorityPool, level Priority, fn TaskFunc[T]) (*Result[T], error) {
	if !level.valid() {
		level = Normal
	}
	return submit(ctx, &p.pool, level, fn)
}

func submit[T any](ctx context.Context, p *pool, level Priority, fn TaskFunc[T]) (*Result[T], error) {
	if fn == nil {
		panic("task function must be non-nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := &boundTask[T]{
		ctx:    ctx,
		fn:     fn,
		result: newResult[T](),
		pool:   p,
	}
	if !p.s.Submit(int(level), t) {
		return nil, ErrPoolClosed
	}
	return t.result, nil
}

// Go queues fn to run on one of the pool's workers with no Result. It is
// meant for resuming a computation parked elsewhere, such as a goroutine
// waiting on a channel that fn closes, so that the rest of that computation
// is scheduled onto the pool. A panic in fn is recovered and logged at error
// level. If the pool closes before fn runs, fn never runs.
//
// Go returns the same errors as [Submit]. Panics if fn is nil.
func Go(ctx context.Context, s Submitter, fn func()) error {
	if fn == nil {
		panic("continuation must be non-nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.base()
	if !p.s.Submit(int(p.defaultLevel), continuation{fn: fn, pool: p}) {
		return ErrPoolClosed
	}
	return nil
}
