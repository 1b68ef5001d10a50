// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bench

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunAllKinds(t *testing.T) {
	chk := require.New(t)
	var out bytes.Buffer
	reports, err := Run(context.Background(), Config{
		Tasks:          2000,
		Workers:        3,
		WorkIterations: 10,
		Submitters:     4,
		Top:            2,
		Logger:         zaptest.NewLogger(t),
	}, &out)
	chk.NoError(err)
	chk.Len(reports, 3)

	for i, kind := range []string{PoolFast, PoolPriority, PoolNaive} {
		r := reports[i]
		chk.Equal(kind, r.Pool)
		chk.Equal(2000, r.Tasks)
		chk.Equal(3, r.Workers)
		chk.Positive(r.Throughput)
		chk.Len(r.Slowest, 2)
		chk.GreaterOrEqual(r.Slowest[0].Duration, r.Slowest[1].Duration)
		if kind == PoolNaive {
			chk.Nil(r.Stats)
		} else {
			chk.Equal(uint64(2000), r.Stats.Executed)
			chk.Zero(r.Stats.Abandoned)
		}
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	chk.True(strings.HasPrefix(lines[0], "fast "))
	chk.Contains(out.String(), "throughput=")
}

func TestRunRejectsUnknownKind(t *testing.T) {
	_, err := Run(context.Background(), Config{Pool: "bogus"}, &bytes.Buffer{})
	require.ErrorContains(t, err, `unknown pool kind "bogus"`)
}

func TestRunHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{Pool: PoolFast, Tasks: 10, Workers: 1}, &bytes.Buffer{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestFillDefaults(t *testing.T) {
	chk := require.New(t)
	var c Config
	c.FillDefaults()
	chk.Equal(500_000, c.Tasks)
	chk.Positive(c.Workers)
	chk.Equal(1, c.Submitters)
	chk.Equal(PoolAll, c.Pool)
	chk.NotNil(c.Logger)
}

func TestWork(t *testing.T) {
	require.Equal(t, 50, Work(100))
	require.Zero(t, Work(0))
}
