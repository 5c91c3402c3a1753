package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	registry     *prometheus.Registry
	ingested     *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	sinkErrors   *prometheus.CounterVec
	statsLatency prometheus.Histogram
}

// New registers all collectors on a fresh registry. storedFn backs the
// factory_events_stored gauge and may be nil.
func New(storedFn func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factory_events_ingested_total",
			Help: "Validated events by store outcome.",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factory_events_rejected_total",
			Help: "Events rejected by validation, by reason code.",
		}, []string{"reason"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factory_events_sink_errors_total",
			Help: "Failed downstream publishes, by sink.",
		}, []string{"sink"}),
		statsLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "factory_stats_query_seconds",
			Help:    "Time spent computing machine stats.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.ingested, m.rejected, m.sinkErrors, m.statsLatency)

	if storedFn != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "factory_events_stored",
			Help: "Distinct event ids held in memory.",
		}, storedFn))
	}

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncIngested(outcome string) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncSinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}

// ObserveStats records how long a stats query took since start.
func (m *Metrics) ObserveStats(start time.Time) {
	if m == nil {
		return
	}
	m.statsLatency.Observe(time.Since(start).Seconds())
}
