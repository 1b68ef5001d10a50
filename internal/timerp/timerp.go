// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package timerp recycles the timers that bound idle waits.
package timerp

import (
	"sync"
	"time"
)

// This relies on [Go 1.23+ timer behavior]: after Reset or Stop no stale
// value can be received from the channel, so pooled timers need no draining.
//
// [Go 1.23+ timer behavior]: https://pkg.go.dev/time#NewTimer
var pool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// Get returns a timer that fires once after d.
func Get(d time.Duration) *time.Timer {
	t := pool.Get().(*time.Timer)
	t.Reset(d)
	return t
}

// Put stops t and makes it available for reuse.
func Put(t *time.Timer) {
	t.Stop()
	pool.Put(t)
}
