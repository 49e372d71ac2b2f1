// Package observe provides observability primitives for ipabot:
// OpenTelemetry metrics and tracing helpers.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all ipabot metrics.
const meterName = "github.com/MrWong99/ipabot"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SearchDuration tracks engine search latency per incoming message.
	SearchDuration metric.Float64Histogram

	// MessagesSeen counts chat messages scanned for triggers.
	MessagesSeen metric.Int64Counter

	// Transliterations counts rendered output lines. Use with attribute:
	//   attribute.String("rule_set", ...)
	Transliterations metric.Int64Counter

	// ReplyEdits counts bot replies re-rendered after a source message edit.
	ReplyEdits metric.Int64Counter

	// ReplyDeletes counts bot replies removed after a source message delete.
	ReplyDeletes metric.Int64Counter

	// HandlerErrors counts failures while handling chat events. Use with
	// attribute: attribute.String("op", ...)
	HandlerErrors metric.Int64Counter

	// RuleSetsLoaded tracks the number of rule sets in the live engine.
	RuleSetsLoaded metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Engine
// searches are CPU-bound and fast; the buckets skew low accordingly.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SearchDuration, err = m.Float64Histogram("ipabot.search.duration",
		metric.WithDescription("Latency of one engine search over a chat message."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MessagesSeen, err = m.Int64Counter("ipabot.messages.seen",
		metric.WithDescription("Chat messages scanned for transliteration triggers."),
	); err != nil {
		return nil, err
	}
	if met.Transliterations, err = m.Int64Counter("ipabot.transliterations",
		metric.WithDescription("Rendered transliteration lines, by rule set."),
	); err != nil {
		return nil, err
	}
	if met.ReplyEdits, err = m.Int64Counter("ipabot.reply.edits",
		metric.WithDescription("Bot replies re-rendered after a source message edit."),
	); err != nil {
		return nil, err
	}
	if met.ReplyDeletes, err = m.Int64Counter("ipabot.reply.deletes",
		metric.WithDescription("Bot replies removed after a source message delete."),
	); err != nil {
		return nil, err
	}
	if met.HandlerErrors, err = m.Int64Counter("ipabot.handler.errors",
		metric.WithDescription("Failures while handling chat events, by operation."),
	); err != nil {
		return nil, err
	}
	if met.RuleSetsLoaded, err = m.Int64UpDownCounter("ipabot.rule_sets.loaded",
		metric.WithDescription("Rule sets in the live engine."),
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

// RecordSearch records one engine search and its latency.
func (m *Metrics) RecordSearch(ctx context.Context, elapsed time.Duration) {
	m.MessagesSeen.Add(ctx, 1)
	m.SearchDuration.Record(ctx, elapsed.Seconds())
}

// RecordTransliteration records one rendered output line for a rule set.
func (m *Metrics) RecordTransliteration(ctx context.Context, ruleSet string) {
	m.Transliterations.Add(ctx, 1,
		metric.WithAttributes(attribute.String("rule_set", ruleSet)),
	)
}

// RecordHandlerError records a chat-event handling failure for an operation
// ("reply", "edit", "delete", "notify").
func (m *Metrics) RecordHandlerError(ctx context.Context, op string) {
	m.HandlerErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op)),
	)
}
