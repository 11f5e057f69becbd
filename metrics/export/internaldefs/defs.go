package internaldefs

import (
	goGateway "github.com/MrEthical07/goGateway"
)

// CounterDef names one client counter for export.
type CounterDef struct {
	ID   goGateway.MetricID
	Name string
	Help string
}

// HistogramDef names one client latency histogram for export.
type HistogramDef struct {
	ID   goGateway.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goGateway.MetricRequest, Name: "gogateway_requests_total", Help: "Execute calls."},
	{ID: goGateway.MetricRequestSuccess, Name: "gogateway_request_success_total", Help: "Execute calls that returned a 2xx response."},
	{ID: goGateway.MetricUnauthenticated, Name: "gogateway_unauthenticated_total", Help: "Authenticated requests rejected without a stored credential."},
	{ID: goGateway.MetricNetworkError, Name: "gogateway_network_error_total", Help: "Transport failures returned to callers."},
	{ID: goGateway.MetricServerError, Name: "gogateway_server_error_total", Help: "Non-2xx responses returned to callers."},
	{ID: goGateway.MetricExpiryDetected, Name: "gogateway_expiry_detected_total", Help: "Expiry-shaped failures on original attempts."},
	{ID: goGateway.MetricRenewalStarted, Name: "gogateway_renewal_started_total", Help: "Renewal calls issued to the backend."},
	{ID: goGateway.MetricRenewalSucceeded, Name: "gogateway_renewal_succeeded_total", Help: "Renewals that stored a new pair."},
	{ID: goGateway.MetricRenewalFailed, Name: "gogateway_renewal_failed_total", Help: "Renewals that failed."},
	{ID: goGateway.MetricRenewalWaiter, Name: "gogateway_renewal_waiter_total", Help: "Callers that joined a renewal started by another request."},
	{ID: goGateway.MetricRenewalSuperseded, Name: "gogateway_renewal_superseded_total", Help: "Expiry failures resolved by an already completed renewal."},
	{ID: goGateway.MetricProactiveRenewal, Name: "gogateway_proactive_renewal_total", Help: "Renewals requested before sending an about-to-expire token."},
	{ID: goGateway.MetricReplay, Name: "gogateway_replay_total", Help: "Requests replayed after renewal."},
	{ID: goGateway.MetricSessionExpired, Name: "gogateway_session_expired_total", Help: "Callers that received a session expired error."},
	{ID: goGateway.MetricStorageError, Name: "gogateway_storage_error_total", Help: "Credential store failures."},
	{ID: goGateway.MetricLogin, Name: "gogateway_login_total", Help: "Successful logins."},
	{ID: goGateway.MetricLoginFailure, Name: "gogateway_login_failure_total", Help: "Failed logins."},
	{ID: goGateway.MetricLogout, Name: "gogateway_logout_total", Help: "Logouts."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goGateway.MetricRequestLatency, Name: "gogateway_request_latency_seconds", Help: "Execute latency, replay included."},
	{ID: goGateway.MetricRenewalLatency, Name: "gogateway_renewal_latency_seconds", Help: "Renewal round-trip latency."},
}

// HistogramBounds are the "le" labels matching the client's bucket layout.
var HistogramBounds = []string{
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"+Inf",
}

// BucketLabel is the label (OTel attribute) carrying a histogram bucket bound.
const BucketLabel = "le"

// Series that are not backed by a MetricID.
const (
	AuditDroppedName    = "gogateway_audit_dropped_total"
	AuditDroppedHelp    = "Audit events dropped because the dispatcher buffer was full."
	RenewalInFlightName = "gogateway_renewal_in_flight"
	RenewalInFlightHelp = "1 while a credential renewal is in flight, else 0."
	RenewalWaitersName  = "gogateway_renewal_waiters"
	RenewalWaitersHelp  = "Callers parked on the in-flight renewal."
)

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling
// missing buckets and ignoring extras.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

// Source is what both exporters read on every scrape or collection.
// [*goGateway.Client] implements it.
type Source interface {
	MetricsSnapshot() goGateway.MetricsSnapshot
	AuditDropped() uint64
	Renewing() bool
	RenewalWaiters() int
}

var _ Source = (*goGateway.Client)(nil)
