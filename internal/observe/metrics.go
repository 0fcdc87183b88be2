// Package observe provides application-wide observability primitives for
// Tenvoy: OpenTelemetry metrics, tracing helpers, and structured-logging
// glue.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped from a /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Tenvoy metrics.
const meterName = "github.com/tenvoy/tenvoy"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// ToolDuration tracks tenancy tool execution latency. Use with
	// attribute.String("tool", ...).
	ToolDuration metric.Float64Histogram

	// LLMDuration tracks LLM completion latency. Use with
	// attribute.String("stage", "route"|"compose").
	LLMDuration metric.Float64Histogram

	// BridgeDuration tracks end-to-end subprocess bridge call latency. Use
	// with attribute.String("tool", ...).
	BridgeDuration metric.Float64Histogram

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// LLMRequests counts LLM provider calls. Use with attributes:
	//   attribute.String("stage", ...), attribute.String("status", ...)
	LLMRequests metric.Int64Counter

	// SnapshotLookups counts snapshot cache lookups. Use with attribute:
	//   attribute.String("status", "hit"|"miss")
	SnapshotLookups metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries in seconds. Tool calls
// fan out over paginated cloud APIs and LLM completions, so the buckets
// stretch well past interactive latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolDuration, err = m.Float64Histogram("tenvoy.tool.duration",
		metric.WithDescription("Latency of tenancy tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("tenvoy.llm.duration",
		metric.WithDescription("Latency of LLM completions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BridgeDuration, err = m.Float64Histogram("tenvoy.bridge.duration",
		metric.WithDescription("End-to-end latency of subprocess tool calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ToolCalls, err = m.Int64Counter("tenvoy.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.LLMRequests, err = m.Int64Counter("tenvoy.llm.requests",
		metric.WithDescription("Total LLM provider calls by stage and status."),
	); err != nil {
		return nil, err
	}
	if met.SnapshotLookups, err = m.Int64Counter("tenvoy.snapshot.lookups",
		metric.WithDescription("Total snapshot cache lookups by status."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// RecordToolCall records a tool call counter increment with the standard
// attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordLLMRequest records an LLM request counter increment with the
// standard attribute set.
func (m *Metrics) RecordLLMRequest(ctx context.Context, stage, status string) {
	m.LLMRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		),
	)
}

// RecordSnapshotLookup records a snapshot cache lookup counter increment.
func (m *Metrics) RecordSnapshotLookup(ctx context.Context, status string) {
	m.SnapshotLookups.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordToolDuration records tool execution latency labeled by tool name.
func (m *Metrics) RecordToolDuration(ctx context.Context, tool string, seconds float64) {
	m.ToolDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}

// RecordLLMDuration records LLM completion latency labeled by stage.
func (m *Metrics) RecordLLMDuration(ctx context.Context, stage string, seconds float64) {
	m.LLMDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordBridgeDuration records subprocess bridge call latency labeled by
// tool name.
func (m *Metrics) RecordBridgeDuration(ctx context.Context, tool string, seconds float64) {
	m.BridgeDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}
