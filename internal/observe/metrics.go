// Package observe wires OpenTelemetry metrics with a Prometheus exporter so
// the existing /metrics scrape endpoint keeps working. A package-level
// default Metrics instance is provided for convenience; tests should use
// NewMetrics with their own metric.MeterProvider to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all service metrics.
const meterName = "github.com/callshield/callshield"

// Metrics holds the OpenTelemetry instruments for the service. All fields
// are safe for concurrent use.
type Metrics struct {
	// ScoringDuration tracks hosted-model scoring latency. Use with
	// attribute.String("provider", ...).
	ScoringDuration metric.Float64Histogram

	// ChunksProcessed counts streaming chunks by outcome. Use with
	// attribute.String("outcome", "scored"|"silent"|"rejected"|"error").
	ChunksProcessed metric.Int64Counter

	// AnalysisRequests counts single-shot analyses. Use with
	// attribute.String("mode", "audio"|"text") and
	// attribute.String("status", "ok"|"model_error"|"parse_error").
	AnalysisRequests metric.Int64Counter

	// ScoringErrors counts failed model calls by provider.
	ScoringErrors metric.Int64Counter

	// ActiveSessions tracks the number of live streaming sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets covers hosted-model round trips, which routinely run into
// multiple seconds.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised Metrics struct using the given
// metric.MeterProvider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ScoringDuration, err = m.Float64Histogram("callshield.scoring.duration",
		metric.WithDescription("Latency of hosted-model scoring calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ChunksProcessed, err = m.Int64Counter("callshield.chunks.processed",
		metric.WithDescription("Total streaming chunks by outcome."),
	); err != nil {
		return nil, err
	}
	if met.AnalysisRequests, err = m.Int64Counter("callshield.analysis.requests",
		metric.WithDescription("Total single-shot analyses by mode and status."),
	); err != nil {
		return nil, err
	}
	if met.ScoringErrors, err = m.Int64Counter("callshield.scoring.errors",
		metric.WithDescription("Total failed model scoring calls by provider."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("callshield.active_sessions",
		metric.WithDescription("Number of live streaming sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics instance, creating it on
// first call from the global meter provider. Panics if instrument creation
// fails, which cannot happen with the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordChunk records one streaming chunk outcome.
func (m *Metrics) RecordChunk(ctx context.Context, outcome string) {
	m.ChunksProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordAnalysis records one single-shot analysis.
func (m *Metrics) RecordAnalysis(ctx context.Context, mode, status string) {
	m.AnalysisRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("status", status),
		))
}

// RecordScoring records the latency of one model call and counts failures.
func (m *Metrics) RecordScoring(ctx context.Context, provider string, seconds float64, err error) {
	m.ScoringDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("provider", provider)))
	if err != nil {
		m.ScoringErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", provider)))
	}
}
