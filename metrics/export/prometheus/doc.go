// Package prometheus renders goGateway client metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps a [goGateway.Client] and exposes an
// [http.Handler]. Counters are named gogateway_*_total and the two latency
// histograms are gogateway_request_latency_seconds and
// gogateway_renewal_latency_seconds.
//
// The exporter does not register anything in a global registry; callers mount
// the Handler themselves.
package prometheus
