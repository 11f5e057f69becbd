package otel

import (
	"context"
	"errors"
	"sync"
	"testing"

	goGateway "github.com/MrEthical07/goGateway"
	"github.com/MrEthical07/goGateway/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goGateway.MetricsSnapshot
	dropped  uint64
	renewing bool
	waiters  int
}

func (f *fakeSource) MetricsSnapshot() goGateway.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goGateway.MetricsSnapshot{
		Counters:   make(map[goGateway.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goGateway.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func (f *fakeSource) Renewing() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.renewing
}

func (f *fakeSource) RenewalWaiters() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.waiters
}

// collect flattens one collection into name or name{le=bound} keys.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	values := map[string]int64{}
	record := func(name string, attrs attribute.Set, v int64) {
		if le, ok := attrs.Value(attribute.Key(internaldefs.BucketLabel)); ok {
			name += "{le=" + le.AsString() + "}"
		}
		values[name] = v
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					record(m.Name, dp.Attributes, dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					record(m.Name, dp.Attributes, dp.Value)
				}
			}
		}
	}
	return values
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("gogateway-test")

	src := &fakeSource{
		snapshot: goGateway.MetricsSnapshot{
			Counters: map[goGateway.MetricID]uint64{
				goGateway.MetricRenewalSucceeded: 3,
			},
			Histograms: map[goGateway.MetricID][]uint64{
				goGateway.MetricRenewalLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped:  1,
		renewing: true,
		waiters:  2,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	values := collect(t, reader)
	if values["gogateway_renewal_succeeded_total"] != 3 {
		t.Fatalf("expected renewal_succeeded 3, got %d", values["gogateway_renewal_succeeded_total"])
	}
	if got := values["gogateway_renewal_latency_seconds_bucket{le=+Inf}"]; got != 8 {
		t.Fatalf("expected cumulative +Inf bucket 8, got %d", got)
	}
	if got := values["gogateway_renewal_latency_seconds_bucket{le=0.01}"]; got != 1 {
		t.Fatalf("expected first bucket 1, got %d", got)
	}
	if got := values["gogateway_renewal_latency_seconds_count"]; got != 8 {
		t.Fatalf("expected count 8, got %d", got)
	}
	if values["gogateway_renewal_in_flight"] != 1 || values["gogateway_renewal_waiters"] != 2 {
		t.Fatalf("expected renewal gauges 1 and 2, got %d and %d", values["gogateway_renewal_in_flight"], values["gogateway_renewal_waiters"])
	}
	if values["gogateway_audit_dropped_total"] != 1 {
		t.Fatalf("expected audit dropped 1, got %d", values["gogateway_audit_dropped_total"])
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("gogateway-test")

	if _, err := NewOTelExporterFromSource(meter, nil); !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporter(meter, nil); !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource for nil client, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); !errors.Is(err, ErrNilMeter) {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("gogateway-test")

	src := &fakeSource{
		snapshot: goGateway.MetricsSnapshot{
			Counters: map[goGateway.MetricID]uint64{
				goGateway.MetricRenewalSucceeded: 1,
			},
			Histograms: map[goGateway.MetricID][]uint64{
				goGateway.MetricRenewalLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goGateway.MetricRenewalSucceeded] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
