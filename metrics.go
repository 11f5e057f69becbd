package goGateway

import (
	"sync/atomic"
	"time"
)

// MetricID indexes the client's in-process counters and histograms.
type MetricID uint16

const (
	// MetricRequest counts Execute calls.
	MetricRequest MetricID = iota
	// MetricRequestSuccess counts Execute calls that returned a 2xx response.
	MetricRequestSuccess
	// MetricUnauthenticated counts authenticated requests rejected without a stored credential.
	MetricUnauthenticated
	// MetricNetworkError counts transport failures surfaced to callers.
	MetricNetworkError
	// MetricServerError counts non-2xx responses surfaced to callers.
	MetricServerError
	// MetricExpiryDetected counts expiry-shaped failures on the original attempt.
	MetricExpiryDetected
	// MetricRenewalStarted counts renewal calls issued to the backend.
	MetricRenewalStarted
	// MetricRenewalSucceeded counts renewals that stored a new pair.
	MetricRenewalSucceeded
	// MetricRenewalFailed counts renewals that cleared the store.
	MetricRenewalFailed
	// MetricRenewalWaiter counts callers that joined a renewal started by someone else.
	MetricRenewalWaiter
	// MetricRenewalSuperseded counts expiry failures resolved by an already completed renewal.
	MetricRenewalSuperseded
	// MetricProactiveRenewal counts renewals requested before sending because the access token was about to expire.
	MetricProactiveRenewal
	// MetricReplay counts replayed requests.
	MetricReplay
	// MetricSessionExpired counts callers that received ErrSessionExpired.
	MetricSessionExpired
	// MetricStorageError counts credential store failures.
	MetricStorageError
	// MetricLogin counts successful logins.
	MetricLogin
	// MetricLoginFailure counts failed logins.
	MetricLoginFailure
	// MetricLogout counts Logout calls that cleared the store.
	MetricLogout
	// MetricRequestLatency is the end-to-end Execute latency histogram, replay included.
	MetricRequestLatency
	// MetricRenewalLatency is the renewal round-trip latency histogram.
	MetricRenewalLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters indexed by [MetricID]. A nil *Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and enabled histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only latency IDs accept observations.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isHistogram(id) {
		return
	}
	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricRequestLatency, MetricRenewalLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isHistogram(id MetricID) bool {
	return id == MetricRequestLatency || id == MetricRenewalLatency
}

// bucketIndex maps d onto upper bounds of 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s and +Inf.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 10:
		return 0
	case ms <= 25:
		return 1
	case ms <= 50:
		return 2
	case ms <= 100:
		return 3
	case ms <= 250:
		return 4
	case ms <= 500:
		return 5
	case ms <= 1000:
		return 6
	default:
		return 7
	}
}
