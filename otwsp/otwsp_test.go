// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsp_test

import (
	"context"
	"errors"
	"testing"

	wsp "github.com/petenewcomb/wsp-go"
	"github.com/petenewcomb/wsp-go/otwsp"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func useManualReader(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	byName := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m.Data
		}
	}
	return byName
}

// sumWhere totals the data points of an int64 sum whose attributes include
// key=value, or all data points if key is empty.
func sumWhere(t *testing.T, data metricdata.Aggregation, key, value string) int64 {
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "%T is not an int64 sum", data)
	var total int64
	for _, dp := range sum.DataPoints {
		if key != "" {
			v, ok := dp.Attributes.Value(attribute.Key(key))
			if !ok || v.AsString() != value {
				continue
			}
		}
		total += dp.Value
	}
	return total
}

func TestTracedTask(t *testing.T) {
	chk := require.New(t)
	sr := useSpanRecorder(t)

	pool := wsp.NewPool(2)
	defer pool.Close()

	ctx, parent := otel.Tracer("test").Start(context.Background(), "request")
	okRes, err := wsp.Submit(ctx, pool, otwsp.TracedTask("ok", func(context.Context) (int, error) {
		return 1, nil
	}))
	chk.NoError(err)
	failRes, err := wsp.Submit(ctx, pool, otwsp.TracedTask("fail", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}))
	chk.NoError(err)

	v, err := okRes.Get()
	chk.NoError(err)
	chk.Equal(1, v)
	_, err = failRes.Get()
	chk.EqualError(err, "boom")
	parent.End()
	pool.Close()

	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range sr.Ended() {
		byName[s.Name()] = s
	}
	chk.Len(byName, 3)
	for _, name := range []string{"ok", "fail"} {
		s := byName[name]
		chk.NotNil(s, name)
		chk.Equal(parent.SpanContext().SpanID(), s.Parent().SpanID(), name)
		chk.Equal(parent.SpanContext().TraceID(), s.SpanContext().TraceID(), name)
	}
	chk.Equal(codes.Unset, byName["ok"].Status().Code)
	chk.Equal(codes.Error, byName["fail"].Status().Code)
	chk.Equal("boom", byName["fail"].Status().Description)
}

func TestTracedGo(t *testing.T) {
	chk := require.New(t)
	sr := useSpanRecorder(t)

	pool := wsp.NewPriorityPool(1)
	reqCtx, cancel := context.WithCancel(context.Background())
	reqCtx, parent := otel.Tracer("test").Start(reqCtx, "request")

	done := make(chan error, 1)
	chk.NoError(otwsp.TracedGo(reqCtx, pool, "resume", func(ctx context.Context) {
		<-reqCtx.Done()
		done <- ctx.Err()
	}))
	cancel()
	chk.NoError(<-done, "continuation context must not inherit cancellation")
	parent.End()
	pool.Close()

	var resume sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() == "resume" {
			resume = s
		}
	}
	chk.NotNil(resume)
	chk.Equal(parent.SpanContext().TraceID(), resume.SpanContext().TraceID())
	chk.Equal(parent.SpanContext().SpanID(), resume.Parent().SpanID())
	chk.Contains(resume.Attributes(), attribute.Bool("wsp.continuation", true))
}

func TestPropagateContinuationWithoutSpan(t *testing.T) {
	chk := require.New(t)
	var got context.Context
	otwsp.PropagateContinuation(context.Background(), func(ctx context.Context) {
		got = ctx
	})()
	chk.NotNil(got)
	chk.NoError(got.Err())
}

func TestMetricsObserver(t *testing.T) {
	chk := require.New(t)
	reader, mp := useManualReader(t)
	obs, err := otwsp.NewMetricsObserver(mp.Meter("test"))
	chk.NoError(err)

	pool := wsp.NewPriorityPool(2, wsp.WithObserver(obs))
	ctx := context.Background()
	levels := []wsp.Priority{wsp.High, wsp.High, wsp.Normal, wsp.Low, wsp.Low, wsp.Low}
	var results []*wsp.Result[int]
	for i, level := range levels {
		res, err := wsp.SubmitWithPriority(ctx, pool, level, func(context.Context) (int, error) {
			if i == 0 {
				return 0, errors.New("first task fails")
			}
			return i, nil
		})
		chk.NoError(err)
		results = append(results, res)
	}
	for _, res := range results {
		<-res.Done()
	}
	pool.Close()

	byName := collect(t, reader)
	chk.EqualValues(6, sumWhere(t, byName["wsp.tasks.submitted"], "", ""))
	chk.EqualValues(2, sumWhere(t, byName["wsp.tasks.submitted"], "wsp.priority", "High"))
	chk.EqualValues(1, sumWhere(t, byName["wsp.tasks.submitted"], "wsp.priority", "Normal"))
	chk.EqualValues(3, sumWhere(t, byName["wsp.tasks.submitted"], "wsp.priority", "Low"))
	chk.EqualValues(5, sumWhere(t, byName["wsp.tasks.executed"], "wsp.outcome", "ok"))
	chk.EqualValues(1, sumWhere(t, byName["wsp.tasks.executed"], "wsp.outcome", "error"))

	hist, ok := byName["wsp.task.duration"].(metricdata.Histogram[float64])
	chk.True(ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	chk.EqualValues(6, count)

	stats := pool.Stats()
	if stats.Stolen > 0 {
		chk.EqualValues(stats.Stolen, sumWhere(t, byName["wsp.tasks.stolen"], "", ""))
	}
}

func TestMetricsObserverAbandoned(t *testing.T) {
	chk := require.New(t)
	reader, mp := useManualReader(t)
	obs, err := otwsp.NewMetricsObserver(mp.Meter("test"))
	chk.NoError(err)

	pool := wsp.NewPool(1, wsp.WithObserver(obs))
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})
	chk.NoError(wsp.Go(ctx, pool, func() {
		close(started)
		<-release
	}))
	<-started
	for range 3 {
		_, err := wsp.Submit(ctx, pool, func(context.Context) (int, error) { return 0, nil })
		chk.NoError(err)
	}
	closed := make(chan struct{})
	go func() {
		pool.Close()
		close(closed)
	}()
	chk.Eventually(func() bool { return pool.State() != wsp.Running }, wsp.DefaultIdleTimeout*100, wsp.DefaultIdleTimeout)
	close(release)
	<-closed

	byName := collect(t, reader)
	chk.EqualValues(3, sumWhere(t, byName["wsp.tasks.abandoned"], "", ""))
	chk.EqualValues(4, sumWhere(t, byName["wsp.tasks.submitted"], "wsp.priority", "Normal"))
}

func TestMetricsTask(t *testing.T) {
	chk := require.New(t)
	reader, mp := useManualReader(t)
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	var calls int
	task := otwsp.MetricsTask("lookup", func(context.Context) (int, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("miss")
		}
		return calls, nil
	})

	pool := wsp.NewPool(1)
	defer pool.Close()
	ctx := context.Background()
	for range 3 {
		res, err := wsp.Submit(ctx, pool, task)
		chk.NoError(err)
		<-res.Done()
	}

	byName := collect(t, reader)
	chk.EqualValues(3, sumWhere(t, byName["lookup.count"], "", ""))
	chk.EqualValues(1, sumWhere(t, byName["lookup.errors"], "", ""))
	_, ok := byName["lookup.duration"].(metricdata.Histogram[float64])
	chk.True(ok)
}

func TestLoggedTask(t *testing.T) {
	chk := require.New(t)
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	pool := wsp.NewPool(1)
	defer pool.Close()
	ctx := context.Background()

	res, err := wsp.Submit(ctx, pool, otwsp.LoggedTask("fetch", func(context.Context) (string, error) {
		return "", errors.New("unreachable")
	}))
	chk.NoError(err)
	_, err = res.Get()
	chk.Error(err)

	chk.Equal(1, logs.FilterMessage("Starting task").Len())
	failed := logs.FilterMessage("Task failed").All()
	chk.Len(failed, 1)
	fields := failed[0].ContextMap()
	chk.Equal("fetch", fields["operation"])
	chk.Equal("otwsp", fields["component"])
	chk.Equal("unreachable", fields["error"])
}

func TestInstrumentedTask(t *testing.T) {
	chk := require.New(t)
	sr := useSpanRecorder(t)
	reader, mp := useManualReader(t)
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	pool := wsp.NewPool(1)
	defer pool.Close()

	res, err := wsp.Submit(context.Background(), pool, otwsp.InstrumentedTask("sum", func(context.Context) (int, error) {
		return 55, nil
	}))
	chk.NoError(err)
	v, err := res.Get()
	chk.NoError(err)
	chk.Equal(55, v)
	pool.Close()

	chk.Len(sr.Ended(), 1)
	chk.Equal("sum", sr.Ended()[0].Name())
	chk.EqualValues(1, sumWhere(t, collect(t, reader)["sum.count"], "", ""))
}
