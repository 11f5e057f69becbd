package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goGateway "github.com/MrEthical07/goGateway"
	"github.com/MrEthical07/goGateway/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

// PrometheusExporter renders a gateway client's counters, renewal gauges and
// latency histograms as Prometheus text.
type PrometheusExporter struct {
	source internaldefs.Source
}

// NewPrometheusExporter creates an exporter that reads from client.
func NewPrometheusExporter(client *goGateway.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

// NewPrometheusExporterFromSource creates an exporter over any source.
func NewPrometheusExporterFromSource(source internaldefs.Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render on every request.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current exposition. It is empty while the client has
// metrics disabled and has dropped no audit events.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snap := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)
	w := exposition{b: &b}

	for _, def := range internaldefs.CounterDefs {
		w.family(def.Name, def.Help, "counter")
		w.sample(def.Name, "", snap.Counters[def.ID])
	}
	w.family(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter")
	w.sample(internaldefs.AuditDroppedName, "", dropped)

	var inFlight uint64
	if p.source.Renewing() {
		inFlight = 1
	}
	w.family(internaldefs.RenewalInFlightName, internaldefs.RenewalInFlightHelp, "gauge")
	w.sample(internaldefs.RenewalInFlightName, "", inFlight)
	w.family(internaldefs.RenewalWaitersName, internaldefs.RenewalWaitersHelp, "gauge")
	w.sample(internaldefs.RenewalWaitersName, "", uint64(p.source.RenewalWaiters()))

	for _, def := range internaldefs.HistogramDefs {
		w.histogram(def, snap.Histograms[def.ID])
	}

	return b.String()
}

type exposition struct {
	b *strings.Builder
}

func (w exposition) family(name, help, kind string) {
	w.b.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	w.b.WriteString("# TYPE " + name + " " + kind + "\n")
}

func (w exposition) sample(name, labels string, value uint64) {
	w.b.WriteString(name)
	w.b.WriteString(labels)
	w.b.WriteByte(' ')
	w.b.WriteString(strconv.FormatUint(value, 10))
	w.b.WriteByte('\n')
}

// histogram writes cumulative buckets and _count. The client records no
// latency sum, so _sum is left out.
func (w exposition) histogram(def internaldefs.HistogramDef, raw []uint64) {
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))

	w.family(def.Name, def.Help, "histogram")
	for i, bound := range internaldefs.HistogramBounds {
		w.sample(def.Name+"_bucket", `{`+internaldefs.BucketLabel+`="`+bound+`"}`, cumulative[i])
	}
	w.sample(def.Name+"_count", "", cumulative[len(cumulative)-1])
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
