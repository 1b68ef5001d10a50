// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package waitq keeps track of idle workers so that a producer can wake
// exactly one of them. The zero value of Queue is ready to use.
package waitq

import (
	"sync"

	"github.com/gammazero/deque"
)

type Queue struct {
	mu      sync.Mutex
	waiters deque.Deque[Waiter]
}

// Add registers a new waiter at the back of the queue. Never blocks.
func (q *Queue) Add() Waiter {
	w := Waiter{
		q:          q,
		notifyChan: make(chan struct{}, 1),
	}
	q.mu.Lock()
	q.waiters.PushBack(w)
	q.mu.Unlock()
	return w
}

// Notify signals the waiter at the front of the queue, if any, and reports
// whether one was signaled.
func (q *Queue) Notify() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.waiters.Len() > 0 {
		w := q.waiters.PopFront()
		select {
		case w.notifyChan <- struct{}{}:
			return true
		default:
			// Closed concurrently; try the next one.
		}
	}
	return false
}

// Len returns the number of registered waiters.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiters.Len()
}

// remove takes w out of the queue. Returns false if w was no longer queued,
// meaning Notify already popped it.
func (q *Queue) remove(w Waiter) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.waiters.Index(func(o Waiter) bool {
		return o.notifyChan == w.notifyChan
	})
	if i < 0 {
		return false
	}
	q.waiters.Remove(i)
	return true
}
