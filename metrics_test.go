package goGateway

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricRenewalStarted)

	if got := m.Value(MetricRenewalStarted); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsNilIsNoop(t *testing.T) {
	var m *Metrics
	m.Inc(MetricRequest)
	m.Observe(MetricRequestLatency, time.Millisecond)
	if m.Enabled() || m.Value(MetricRequest) != 0 {
		t.Fatal("nil metrics must be a no-op")
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricReplay)
	m.Inc(MetricReplay)
	m.Inc(MetricReplay)

	if got := m.Value(MetricReplay); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRequest)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRequest); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		3 * time.Second,
	}

	for _, d := range observations {
		m.Observe(MetricRequestLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricRequestLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounterIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricReplay, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricReplay]; ok {
		t.Fatal("counter IDs must not produce histograms")
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricRenewalSucceeded)
	m.Inc(MetricRenewalFailed)
	m.Inc(MetricRenewalFailed)
	m.Observe(MetricRenewalLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricRenewalSucceeded] != 1 {
		t.Fatalf("expected MetricRenewalSucceeded=1 got %d", snap.Counters[MetricRenewalSucceeded])
	}
	if snap.Counters[MetricRenewalFailed] != 2 {
		t.Fatalf("expected MetricRenewalFailed=2 got %d", snap.Counters[MetricRenewalFailed])
	}
	if _, ok := snap.Counters[MetricRequestLatency]; ok {
		t.Fatal("histogram IDs must not appear as counters")
	}
	if len(snap.Histograms[MetricRenewalLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricRenewalLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricRenewalLatency][0])
	}
}
