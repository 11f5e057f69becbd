// Package otel publishes goGateway client metrics through an OpenTelemetry
// Meter supplied by the caller.
//
// Counters map to Int64ObservableCounter. Each latency histogram becomes a
// <name>_bucket gauge with one data point per "le" attribute plus a
// <name>_count gauge. Renewal in-flight state and waiter depth are gauges.
// A single callback reads the client once per collection.
package otel
