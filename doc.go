// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package wsp runs short-lived tasks on a fixed set of worker goroutines
// using per-worker queues and work stealing.
//
// Two pool flavors share one engine. A [Pool] keeps a single FIFO sequence
// per worker. A [PriorityPool] keeps three sequences per worker, one per
// [Priority], and each worker always serves its own High tasks before its
// Normal tasks and its Normal tasks before its Low tasks. Precedence is
// local to a worker's queue: a Low task on one worker may run while a High
// task waits on another.
//
// [Submit] places a task on the next worker's queue in round-robin order
// and returns a [Result] immediately. A worker that runs out of local work
// takes the most recently queued task from another worker's queue, skipping
// any queue whose lock is contended, and sleeps for a bounded time when
// there is nothing to steal. Tasks that panic or return an error store that
// outcome in their Result; the worker carries on.
//
// [Pool.Close] stops the workers once their current tasks are done. Tasks
// still queued at that point never run: their Results resolve with
// [ErrTaskAbandoned]. Submissions after Close fail with [ErrPoolClosed].
package wsp

//go:generate go run -C internal/cmd/chartgen . ../../../bench.txt
