// Package observe provides application-wide observability primitives for
// the vocabulary lifecycle engine: OpenTelemetry metrics, distributed
// tracing, and structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all engine metrics.
const meterName = "github.com/latticegraph/vocabengine"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per external call ---

	// EmbeddingDuration tracks Embedding Provider call latency.
	EmbeddingDuration metric.Float64Histogram

	// ReasonerDuration tracks Reasoning Provider call latency.
	ReasonerDuration metric.Float64Histogram

	// ConsolidateDuration tracks one Consolidate invocation's wall-clock time.
	ConsolidateDuration metric.Float64Histogram

	// --- Counters ---

	// CandidatesScored counts candidates the Candidate Engine produced,
	// under a caller-supplied kind attribute; Consolidate records each
	// ranking pass's full candidate count under kind "total".
	CandidatesScored metric.Int64Counter

	// DecisionsExecuted counts decisions the Decision Executor applied,
	// by origin (auto, ai, heuristic) and outcome (executed, rejected).
	DecisionsExecuted metric.Int64Counter

	// TypesPruned counts vocabulary types removed by finalization or
	// auto-prune candidates.
	TypesPruned metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// VocabularySize tracks the current count of active, non-builtin
	// vocabulary types as observed at the start of the most recent
	// Consolidate invocation.
	VocabularySize metric.Int64UpDownCounter

	// AggressivenessMultiplier tracks the most recently computed α value
	// (as an integer-scaled gauge — OTel has no native float
	// UpDownCounter — recorded ×1000 so a value of 1.25 reports as 1250).
	AggressivenessMultiplier metric.Int64UpDownCounter

	// gaugeMu guards the last values the Set* gauge helpers recorded,
	// from which they compute the delta to add.
	gaugeMu            sync.Mutex
	lastVocabularySize int64
	lastMultiplier     int64
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	latencyBuckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

	if met.EmbeddingDuration, err = m.Float64Histogram("vocabengine.embedding.duration",
		metric.WithDescription("Latency of Embedding Provider calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ReasonerDuration, err = m.Float64Histogram("vocabengine.reasoner.duration",
		metric.WithDescription("Latency of Reasoning Provider calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ConsolidateDuration, err = m.Float64Histogram("vocabengine.consolidate.duration",
		metric.WithDescription("Wall-clock duration of one Consolidate invocation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.CandidatesScored, err = m.Int64Counter("vocabengine.candidates.scored",
		metric.WithDescription("Total candidates produced by the Candidate Engine, by kind."),
	); err != nil {
		return nil, err
	}
	if met.DecisionsExecuted, err = m.Int64Counter("vocabengine.decisions.total",
		metric.WithDescription("Total decisions applied by the Decision Executor, by origin and outcome."),
	); err != nil {
		return nil, err
	}
	if met.TypesPruned, err = m.Int64Counter("vocabengine.types.pruned",
		metric.WithDescription("Total vocabulary types removed."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("vocabengine.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	if met.VocabularySize, err = m.Int64UpDownCounter("vocabengine.vocabulary.size",
		metric.WithDescription("Current count of active, non-builtin vocabulary types."),
	); err != nil {
		return nil, err
	}
	if met.AggressivenessMultiplier, err = m.Int64UpDownCounter("vocabengine.aggressiveness.multiplier_x1000",
		metric.WithDescription("Most recently computed aggressiveness multiplier, scaled by 1000."),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCandidatesScored records n candidates of the given kind.
func (m *Metrics) RecordCandidatesScored(ctx context.Context, kind string, n int64) {
	m.CandidatesScored.Add(ctx, n, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordDecision records one executor decision outcome.
func (m *Metrics) RecordDecision(ctx context.Context, origin, outcome string) {
	m.DecisionsExecuted.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("origin", origin),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordTypesPruned records n types removed.
func (m *Metrics) RecordTypesPruned(ctx context.Context, n int64) {
	m.TypesPruned.Add(ctx, n)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// SetVocabularySize updates the vocabulary-size gauge to the absolute
// value size by adding the delta from the last recorded value.
func (m *Metrics) SetVocabularySize(ctx context.Context, size int64) {
	m.gaugeMu.Lock()
	defer m.gaugeMu.Unlock()
	m.VocabularySize.Add(ctx, size-m.lastVocabularySize)
	m.lastVocabularySize = size
}

// SetAggressivenessMultiplier updates the aggressiveness gauge to alpha,
// scaled ×1000 so the UpDownCounter (integer-only) can represent it.
func (m *Metrics) SetAggressivenessMultiplier(ctx context.Context, scaled int64) {
	m.gaugeMu.Lock()
	defer m.gaugeMu.Unlock()
	m.AggressivenessMultiplier.Add(ctx, scaled-m.lastMultiplier)
	m.lastMultiplier = scaled
}
