// Package observe provides observability primitives for sonavox:
// OpenTelemetry metric instruments and a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter is wired in via [InitProvider] so metrics can be scraped from the
// standard /metrics endpoint. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
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

// meterName is the instrumentation scope name used for all sonavox metrics.
const meterName = "github.com/sonavox/sonavox"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// RecordingDuration tracks wall-clock recording length.
	RecordingDuration metric.Float64Histogram

	// PlaybackDuration tracks wall-clock playback length.
	PlaybackDuration metric.Float64Histogram

	// ChunksCaptured counts hardware buffers delivered during recording.
	ChunksCaptured metric.Int64Counter

	// QuietChunks counts captured chunks classified as silence.
	QuietChunks metric.Int64Counter

	// ProviderRequests counts cloud service calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts failed cloud service calls. Use with attribute:
	//   attribute.String("provider", ...)
	ProviderErrors metric.Int64Counter

	// ActiveRecordings tracks recordings currently in flight.
	ActiveRecordings metric.Int64UpDownCounter
}

// durationBuckets defines histogram bucket boundaries in seconds, sized for
// utterance-length audio operations.
var durationBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RecordingDuration, err = m.Float64Histogram("sonavox.recording.duration",
		metric.WithDescription("Length of completed recordings."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PlaybackDuration, err = m.Float64Histogram("sonavox.playback.duration",
		metric.WithDescription("Length of completed playbacks."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ChunksCaptured, err = m.Int64Counter("sonavox.capture.chunks",
		metric.WithDescription("Total hardware buffers delivered during recording."),
	); err != nil {
		return nil, err
	}
	if met.QuietChunks, err = m.Int64Counter("sonavox.capture.quiet_chunks",
		metric.WithDescription("Total captured chunks classified as silence."),
	); err != nil {
		return nil, err
	}

	if met.ProviderRequests, err = m.Int64Counter("sonavox.provider.requests",
		metric.WithDescription("Total cloud service requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("sonavox.provider.errors",
		metric.WithDescription("Total cloud service errors by provider."),
	); err != nil {
		return nil, err
	}

	if met.ActiveRecordings, err = m.Int64UpDownCounter("sonavox.active_recordings",
		metric.WithDescription("Number of recordings currently in flight."),
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

// RecordProviderRequest records one cloud service call with its outcome.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
	if status != "ok" {
		m.ProviderErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", provider)),
		)
	}
}

// RecordChunk records one captured chunk and whether it was quiet.
func (m *Metrics) RecordChunk(ctx context.Context, quiet bool) {
	m.ChunksCaptured.Add(ctx, 1)
	if quiet {
		m.QuietChunks.Add(ctx, 1)
	}
}
