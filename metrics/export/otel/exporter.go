package otel

import (
	"context"
	"errors"
	"fmt"

	goGateway "github.com/MrEthical07/goGateway"
	"github.com/MrEthical07/goGateway/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type counterBinding struct {
	id         goGateway.MetricID
	instrument metric.Int64ObservableCounter
}

type histogramBinding struct {
	id      goGateway.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes a gateway client's metrics through one meter
// callback. Histogram buckets share a single gauge and are told apart by the
// "le" attribute.
type OTelExporter struct {
	source       internaldefs.Source
	registration metric.Registration

	counters     []counterBinding
	histograms   []histogramBinding
	auditDropped metric.Int64ObservableCounter
	inFlight     metric.Int64ObservableGauge
	waiters      metric.Int64ObservableGauge

	// bounds holds one precomputed attribute option per bucket.
	bounds []metric.ObserveOption
}

// NewOTelExporter registers instruments for client on meter.
func NewOTelExporter(meter metric.Meter, client *goGateway.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

// NewOTelExporterFromSource registers instruments for any source on meter.
func NewOTelExporterFromSource(meter metric.Meter, source internaldefs.Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	for _, bound := range internaldefs.HistogramBounds {
		e.bounds = append(e.bounds, metric.WithAttributeSet(attribute.NewSet(attribute.String(internaldefs.BucketLabel, bound))))
	}

	observables, err := e.instruments(meter)
	if err != nil {
		return nil, err
	}

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) instruments(meter metric.Meter) ([]metric.Observable, error) {
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterBinding{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket", metric.WithDescription(def.Help+" Cumulative count per bucket."))
		if err != nil {
			return nil, fmt.Errorf("create bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help+" Sample count."))
		if err != nil {
			return nil, fmt.Errorf("create count gauge %s: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, histogramBinding{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	var err error
	if e.auditDropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp)); err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	if e.inFlight, err = meter.Int64ObservableGauge(internaldefs.RenewalInFlightName, metric.WithDescription(internaldefs.RenewalInFlightHelp)); err != nil {
		return nil, fmt.Errorf("create renewal in-flight gauge: %w", err)
	}
	if e.waiters, err = meter.Int64ObservableGauge(internaldefs.RenewalWaitersName, metric.WithDescription(internaldefs.RenewalWaitersHelp)); err != nil {
		return nil, fmt.Errorf("create renewal waiters gauge: %w", err)
	}
	return append(observables, e.auditDropped, e.inFlight, e.waiters), nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snap.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[h.id]))
		for i, opt := range e.bounds {
			o.ObserveInt64(h.buckets, int64(cumulative[i]), opt)
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	var inFlight int64
	if e.source.Renewing() {
		inFlight = 1
	}
	o.ObserveInt64(e.inFlight, inFlight)
	o.ObserveInt64(e.waiters, int64(e.source.RenewalWaiters()))
	return nil
}

// Close unregisters the callback. The instruments stay registered on the meter.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
