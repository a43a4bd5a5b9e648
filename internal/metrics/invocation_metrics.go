package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("interpreter-metrics")

// InvocationMetrics provides metrics collection for interpreter invocations
type InvocationMetrics struct {
	invocationsStartedCounter  metric.Int64Counter
	invocationsFinishedCounter metric.Int64Counter
	invocationDurationHist     metric.Float64Histogram
	invocationsActiveGauge     metric.Int64UpDownCounter
}

// NewInvocationMetrics creates a new invocation metrics collector
func NewInvocationMetrics() (*InvocationMetrics, error) {
	invocationsStartedCounter, err := meter.Int64Counter(
		"spotsnack.interpreter.invocations.started",
		metric.WithDescription("Total number of interpreter processes launched"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, err
	}

	invocationsFinishedCounter, err := meter.Int64Counter(
		"spotsnack.interpreter.invocations.finished",
		metric.WithDescription("Total number of invocations that produced a terminal result"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, err
	}

	invocationDurationHist, err := meter.Float64Histogram(
		"spotsnack.interpreter.invocation.duration",
		metric.WithDescription("Wall time from spawn to terminal result in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	invocationsActiveGauge, err := meter.Int64UpDownCounter(
		"spotsnack.interpreter.invocations.active",
		metric.WithDescription("Number of interpreter processes currently running"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, err
	}

	return &InvocationMetrics{
		invocationsStartedCounter:  invocationsStartedCounter,
		invocationsFinishedCounter: invocationsFinishedCounter,
		invocationDurationHist:     invocationDurationHist,
		invocationsActiveGauge:     invocationsActiveGauge,
	}, nil
}

// RecordInvocationStarted records a new interpreter launch
func (im *InvocationMetrics) RecordInvocationStarted(ctx context.Context) {
	im.invocationsStartedCounter.Add(ctx, 1)
	im.invocationsActiveGauge.Add(ctx, 1)
}

// RecordInvocationFinished records the terminal result kind and duration
func (im *InvocationMetrics) RecordInvocationFinished(ctx context.Context, kind string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("result.kind", kind))

	im.invocationsFinishedCounter.Add(ctx, 1, attrs)
	im.invocationDurationHist.Record(ctx, duration.Seconds(), attrs)
	im.invocationsActiveGauge.Add(ctx, -1)
}
