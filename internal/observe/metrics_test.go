package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %s is not an int64 sum", m.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetrics_AllInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.RecordingDuration == nil || m.ChunksCaptured == nil || m.ActiveRecordings == nil {
		t.Fatal("expected all instruments to be initialised")
	}
}

func TestRecordChunk(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	m.RecordChunk(ctx, false)
	m.RecordChunk(ctx, true)
	m.RecordChunk(ctx, true)

	got := collect(t, reader)
	if v := counterValue(t, got["sonavox.capture.chunks"]); v != 3 {
		t.Errorf("chunks = %d, want 3", v)
	}
	if v := counterValue(t, got["sonavox.capture.quiet_chunks"]); v != 2 {
		t.Errorf("quiet chunks = %d, want 2", v)
	}
}

func TestRecordProviderRequest(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	m.RecordProviderRequest(ctx, "speech", "ok")
	m.RecordProviderRequest(ctx, "speech", "error")
	m.RecordProviderRequest(ctx, "emotion", "ok")

	got := collect(t, reader)
	if v := counterValue(t, got["sonavox.provider.requests"]); v != 3 {
		t.Errorf("requests = %d, want 3", v)
	}
	if v := counterValue(t, got["sonavox.provider.errors"]); v != 1 {
		t.Errorf("errors = %d, want 1", v)
	}
}

func TestRecordingDurationHistogram(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.RecordingDuration.Record(context.Background(), 2.5)

	got := collect(t, reader)
	hist, ok := got["sonavox.recording.duration"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("recording duration is not a float64 histogram")
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("histogram datapoints = %+v", hist.DataPoints)
	}
}

func TestDefaultMetrics_Singleton(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different instances")
	}
}
