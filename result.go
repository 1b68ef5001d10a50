// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsp

import (
	"context"
	"sync/atomic"
)

// A Result holds the eventual outcome of a submitted task. It is written
// exactly once, either by the worker that ran the task or by [Pool.Close]
// if the task was abandoned, and may be read any number of times from any
// number of goroutines. Every read observes the same value and error.
type Result[T any] struct {
	done     chan struct{}
	resolved atomic.Bool
	value    T
	err      error
}

func newResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

func (r *Result[T]) resolve(value T, err error) {
	if !r.resolved.CompareAndSwap(false, true) {
		panic("result resolved more than once")
	}
	r.value = value
	r.err = err
	close(r.done)
}

// Done returns a channel that is closed once the outcome is available.
func (r *Result[T]) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the outcome is available or ctx ends, whichever comes
// first. An outcome that is already available is returned even if ctx has
// ended. If ctx ends first, Wait returns the zero value and ctx.Err(); the
// task itself is unaffected.
func (r *Result[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.value, r.err
	default:
	}
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Get blocks until the outcome is available and returns it.
func (r *Result[T]) Get() (T, error) {
	<-r.done
	return r.value, r.err
}

// TryGet returns the outcome with ok set to true if it is available, and
// otherwise returns immediately with ok set to false.
func (r *Result[T]) TryGet() (value T, ok bool, err error) {
	select {
	case <-r.done:
		return r.value, true, r.err
	default:
		return value, false, nil
	}
}
