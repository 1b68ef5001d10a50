// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package naive_test

import (
	"sync/atomic"
	"testing"

	"github.com/petenewcomb/wsp-go/internal/naive"
	"github.com/stretchr/testify/require"
)

func TestCloseRunsQueuedTasks(t *testing.T) {
	chk := require.New(t)
	p := naive.New(4)

	var n atomic.Int64
	for range 10_000 {
		chk.NoError(p.Submit(func() { n.Add(1) }))
	}
	p.Close()
	chk.Equal(int64(10_000), n.Load())
	chk.ErrorIs(p.Submit(func() {}), naive.ErrClosed)
}

func TestSingleWorkerIsFIFO(t *testing.T) {
	chk := require.New(t)
	p := naive.New(1)
	var order []int
	for i := range 100 {
		chk.NoError(p.Submit(func() { order = append(order, i) }))
	}
	p.Close()
	for i, v := range order {
		chk.Equal(i, v)
	}
	chk.Len(order, 100)
}

func TestInvalidWorkerCount(t *testing.T) {
	require.PanicsWithValue(t, "worker count must be positive", func() { naive.New(0) })
}
