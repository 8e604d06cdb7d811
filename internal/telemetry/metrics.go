package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tripwise/tripwise/internal/telemetry"

// ItineraryMetrics records remote provider calls, local fallbacks and engine runs.
type ItineraryMetrics struct {
	providerDuration metric.Float64Histogram
	providerTotal    metric.Int64Counter
	fallbackTotal    metric.Int64Counter
	runDuration      metric.Float64Histogram
	droppedTotal     metric.Int64Counter
}

// NewItineraryMetrics creates the instruments on the global meter provider.
func NewItineraryMetrics() (*ItineraryMetrics, error) {
	meter := otel.Meter(meterName)
	m := &ItineraryMetrics{}
	var err error

	if m.providerDuration, err = meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of remote provider requests in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.providerTotal, err = meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of remote provider requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.fallbackTotal, err = meter.Int64Counter(
		"itinerary.fallback.total",
		metric.WithDescription("Optimizations computed locally after a remote failure"),
		metric.WithUnit("{fallback}"),
	); err != nil {
		return nil, err
	}

	if m.runDuration, err = meter.Float64Histogram(
		"itinerary.optimize.duration",
		metric.WithDescription("Duration of itinerary optimizations in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.droppedTotal, err = meter.Int64Counter(
		"itinerary.dropped.total",
		metric.WithDescription("Destinations dropped to fit a time budget"),
		metric.WithUnit("{destination}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRequest records one remote provider call. Safe on a nil receiver.
func (m *ItineraryMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	}
	ctx := context.Background()
	m.providerDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.providerTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordFallback records a switch to the local engine. Safe on a nil receiver.
func (m *ItineraryMetrics) RecordFallback(provider, reason string) {
	if m == nil {
		return
	}
	m.fallbackTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("reason", reason),
	))
}

// RecordRun records a finished optimization. Safe on a nil receiver.
func (m *ItineraryMetrics) RecordRun(source, mode string, duration time.Duration, dropped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("itinerary.source", source),
		attribute.String("itinerary.mode", mode),
	)
	ctx := context.Background()
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
	if dropped > 0 {
		m.droppedTotal.Add(ctx, int64(dropped), attrs)
	}
}
