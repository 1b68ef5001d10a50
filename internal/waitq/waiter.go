// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package waitq

// A Waiter has the following lifecycle:
//
// 1. [Queue.Add] returns a waiter whose notification channel has a buffer of
// one and is empty. The waiter sits in the queue.
//
// 2a. [Queue.Notify] pops the waiter and fills the buffer. A later
// [Waiter.Close] either finds the buffer drained (the message was received
// via [Waiter.Done]) and refills it, or finds it still full and hands the
// notification on to the next waiter so that it is not lost.
//
// 2b. [Waiter.Close] finds the waiter still queued and removes it. Nothing is
// signaled.
//
// Close must be called exactly once. Waiter values may be copied freely.
type Waiter struct {
	q          *Queue
	notifyChan chan struct{}
}

func (w Waiter) Done() <-chan struct{} {
	return w.notifyChan
}

func (w Waiter) Close() {
	if w.q.remove(w) {
		return
	}
	select {
	case w.notifyChan <- struct{}{}:
		// The notification was already consumed via Done.
	default:
		// Notified but never received; pass it on.
		w.q.Notify()
	}
}
