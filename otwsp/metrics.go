// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsp

import (
	"context"
	"time"

	wsp "github.com/petenewcomb/wsp-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/petenewcomb/wsp-go/otwsp"

// MetricsTask adds metrics collection to tasks.
// This wrapper records count, duration, and error metrics for task
// execution, using instruments from the global meter provider. Instruments
// are created once when the wrapper is built.
func MetricsTask[T any](
	metricName string,
	taskFunc func(ctx context.Context) (T, error),
) wsp.TaskFunc[T] {
	meter := otel.GetMeterProvider().Meter(instrumentationName)
	taskCounter, _ := meter.Int64Counter(metricName + ".count")
	taskDuration, _ := meter.Float64Histogram(metricName+".duration", metric.WithUnit("s"))
	errorCounter, _ := meter.Int64Counter(metricName + ".errors")

	return func(ctx context.Context) (T, error) {
		startTime := time.Now()
		taskCounter.Add(ctx, 1)

		result, err := taskFunc(ctx)

		taskDuration.Record(ctx, time.Since(startTime).Seconds())
		if err != nil {
			errorCounter.Add(ctx, 1)
		}
		return result, err
	}
}

// A MetricsObserver is a [wsp.Observer] that turns pool events into
// OpenTelemetry measurements:
//
//	wsp.tasks.submitted  counter, by wsp.priority
//	wsp.tasks.stolen     counter
//	wsp.tasks.executed   counter, by wsp.outcome (ok or error)
//	wsp.task.duration    histogram in seconds
//	wsp.tasks.abandoned  counter
//
// Install it with [wsp.WithObserver].
type MetricsObserver struct {
	submitted metric.Int64Counter
	stolen    metric.Int64Counter
	executed  metric.Int64Counter
	duration  metric.Float64Histogram
	abandoned metric.Int64Counter

	byPriority [3]metric.AddOption
	ok, failed metric.AddOption
}

var _ wsp.Observer = (*MetricsObserver)(nil)

// NewMetricsObserver creates the observer's instruments on meter. A nil
// meter selects the global meter provider.
func NewMetricsObserver(meter metric.Meter) (*MetricsObserver, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	o := &MetricsObserver{
		ok:     metric.WithAttributes(attribute.String("wsp.outcome", "ok")),
		failed: metric.WithAttributes(attribute.String("wsp.outcome", "error")),
	}
	for _, p := range []wsp.Priority{wsp.High, wsp.Normal, wsp.Low} {
		o.byPriority[p] = metric.WithAttributes(attribute.String("wsp.priority", p.String()))
	}

	var err error
	if o.submitted, err = meter.Int64Counter("wsp.tasks.submitted",
		metric.WithDescription("Tasks queued on a pool")); err != nil {
		return nil, err
	}
	if o.stolen, err = meter.Int64Counter("wsp.tasks.stolen",
		metric.WithDescription("Tasks taken from another worker's queue")); err != nil {
		return nil, err
	}
	if o.executed, err = meter.Int64Counter("wsp.tasks.executed",
		metric.WithDescription("Tasks that finished running")); err != nil {
		return nil, err
	}
	if o.duration, err = meter.Float64Histogram("wsp.task.duration",
		metric.WithDescription("Task run time"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if o.abandoned, err = meter.Int64Counter("wsp.tasks.abandoned",
		metric.WithDescription("Tasks still queued when their pool closed")); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *MetricsObserver) TaskSubmitted(queue int, level wsp.Priority) {
	if level < wsp.High || level > wsp.Low {
		level = wsp.Normal
	}
	o.submitted.Add(context.Background(), 1, o.byPriority[level])
}

func (o *MetricsObserver) TaskStolen(thief, victim int) {
	o.stolen.Add(context.Background(), 1)
}

func (o *MetricsObserver) TaskExecuted(worker int, d time.Duration, err error) {
	ctx := context.Background()
	outcome := o.ok
	if err != nil {
		outcome = o.failed
	}
	o.executed.Add(ctx, 1, outcome)
	o.duration.Record(ctx, d.Seconds())
}

func (o *MetricsObserver) TaskAbandoned(queue int) {
	o.abandoned.Add(context.Background(), 1)
}
