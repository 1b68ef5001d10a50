// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package bench measures task throughput of the work-stealing pools against
// a single-queue baseline, using a fixed busy-work task.
package bench

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"

	wsp "github.com/petenewcomb/wsp-go"
	"github.com/petenewcomb/wsp-go/internal/naive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	PoolFast     = "fast"
	PoolPriority = "priority"
	PoolNaive    = "naive"
	PoolAll      = "all"
)

var poolKinds = []string{PoolFast, PoolPriority, PoolNaive}

type Config struct {
	Tasks          int
	Workers        int // non-positive means one per CPU
	WorkIterations int
	Submitters     int
	Pool           string
	Top            int
	IdleTimeout    time.Duration
	Logger         *zap.Logger
}

func (c *Config) FillDefaults() {
	if c.Tasks <= 0 {
		c.Tasks = 500_000
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.WorkIterations < 0 {
		c.WorkIterations = 0
	}
	if c.Submitters <= 0 {
		c.Submitters = 1
	}
	if c.Pool == "" {
		c.Pool = PoolAll
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Kinds returns the pool kinds selected by c.Pool, or an error if it names
// none of them.
func (c *Config) Kinds() ([]string, error) {
	if c.Pool == PoolAll {
		return poolKinds, nil
	}
	if !slices.Contains(poolKinds, c.Pool) {
		return nil, fmt.Errorf("unknown pool kind %q: expected one of %v or %q", c.Pool, poolKinds, PoolAll)
	}
	return []string{c.Pool}, nil
}

type Report struct {
	Pool       string
	Workers    int
	Tasks      int
	Elapsed    time.Duration
	Throughput float64 // tasks per second
	Stats      *wsp.Stats
	Slowest    []TaskTime
}

// Run benchmarks each selected pool kind in turn and writes one summary
// line per kind to out.
func Run(ctx context.Context, cfg Config, out io.Writer) ([]Report, error) {
	cfg.FillDefaults()
	kinds, err := cfg.Kinds()
	if err != nil {
		return nil, err
	}

	var reports []Report
	for _, kind := range kinds {
		r, err := runOne(ctx, &cfg, kind)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
		if err := r.Write(out); err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (r *Report) Write(out io.Writer) error {
	_, err := fmt.Fprintf(out, "%-8s workers=%-3d tasks=%-8d time=%-12s throughput=%.0f tasks/s\n",
		r.Pool, r.Workers, r.Tasks, r.Elapsed.Round(time.Microsecond), r.Throughput)
	if err != nil {
		return err
	}
	if r.Stats != nil {
		_, err = fmt.Fprintf(out, "         stolen=%d failed=%d abandoned=%d\n",
			r.Stats.Stolen, r.Stats.Failed, r.Stats.Abandoned)
		if err != nil {
			return err
		}
	}
	for _, tt := range r.Slowest {
		if _, err := fmt.Fprintf(out, "         task %-8d %s\n", tt.Task, tt.Duration); err != nil {
			return err
		}
	}
	return nil
}

// submitFunc queues fn as task i.
type submitFunc func(ctx context.Context, i int, fn func()) error

func runOne(ctx context.Context, cfg *Config, kind string) (Report, error) {
	log := cfg.Logger.With(zap.String("pool", kind))

	durations := make([]time.Duration, cfg.Tasks)
	sums := make([]int, cfg.Tasks)
	var done sync.WaitGroup
	done.Add(cfg.Tasks)
	task := func(i int) func() {
		return func() {
			start := time.Now()
			sums[i] = Work(cfg.WorkIterations)
			durations[i] = time.Since(start)
			done.Done()
		}
	}

	var submit submitFunc
	var stats func() wsp.Stats
	var closePool func()
	switch kind {
	case PoolFast:
		p := wsp.NewPool(cfg.Workers, wsp.WithLogger(log), wsp.WithIdleTimeout(cfg.IdleTimeout))
		submit = func(ctx context.Context, i int, fn func()) error {
			return wsp.Go(ctx, p, fn)
		}
		stats, closePool = p.Stats, p.Close
	case PoolPriority:
		p := wsp.NewPriorityPool(cfg.Workers, wsp.WithLogger(log), wsp.WithIdleTimeout(cfg.IdleTimeout))
		submit = func(ctx context.Context, i int, fn func()) error {
			_, err := wsp.SubmitWithPriority(ctx, p, wsp.Priority(i%3), func(context.Context) (struct{}, error) {
				fn()
				return struct{}{}, nil
			})
			return err
		}
		stats, closePool = p.Stats, p.Close
	case PoolNaive:
		p := naive.New(cfg.Workers)
		submit = func(_ context.Context, _ int, fn func()) error {
			return p.Submit(fn)
		}
		closePool = p.Close
	default:
		return Report{}, fmt.Errorf("unknown pool kind %q", kind)
	}
	defer closePool()

	log.Info("benchmark starting",
		zap.Int("workers", cfg.Workers),
		zap.Int("tasks", cfg.Tasks),
		zap.Int("workIterations", cfg.WorkIterations),
		zap.Int("submitters", cfg.Submitters),
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for s := range cfg.Submitters {
		g.Go(func() error {
			for i := s; i < cfg.Tasks; i += cfg.Submitters {
				if err := submit(gctx, i, task(i)); err != nil {
					return fmt.Errorf("submitting task %d: %w", i, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Some tasks were never queued, so done would never reach zero.
		return Report{}, err
	}
	done.Wait()
	elapsed := time.Since(start)

	// Counters are final only once the workers have exited.
	closePool()

	r := Report{
		Pool:       kind,
		Workers:    cfg.Workers,
		Tasks:      cfg.Tasks,
		Elapsed:    elapsed,
		Throughput: float64(cfg.Tasks) / elapsed.Seconds(),
	}
	if stats != nil {
		st := stats()
		r.Stats = &st
	}
	if cfg.Top > 0 {
		slowest := NewSlowest(cfg.Top)
		for i, d := range durations {
			slowest.Offer(TaskTime{Task: i, Duration: d})
		}
		r.Slowest = slowest.Drain()
	}

	log.Info("benchmark finished",
		zap.Duration("elapsed", elapsed),
		zap.Float64("throughput", r.Throughput),
	)
	return r, nil
}

// Work spins for the given number of iterations. Callers keep the result so
// the loop is not optimized away.
func Work(iterations int) int {
	x := 0
	for j := range iterations {
		x += j & 1
	}
	return x
}
