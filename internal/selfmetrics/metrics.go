// internal/selfmetrics/metrics.go
package selfmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics describes the exporter itself: cycles, skips, failures.
// Vault values never go through here (they need integers beyond float64).
// All methods are safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	cycles         prometheus.Counter
	skipped        prometheus.Counter
	cycleDuration  prometheus.Histogram
	targetFailures *prometheus.CounterVec
	series         prometheus.Gauge
	generatedAt    prometheus.Gauge
	retained       prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exporter_cycles_total",
			Help: "Completed collection cycles.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exporter_cycles_skipped_total",
			Help: "Scheduler ticks dropped because the previous cycle was still running.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exporter_cycle_duration_seconds",
			Help:    "Wall time of one collection cycle.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		targetFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exporter_target_failures_total",
			Help: "Targets excluded from a cycle after exhausting their reads.",
		}, []string{"network", "kind"}),
		series: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exporter_snapshot_series",
			Help: "Series in the published snapshot.",
		}),
		generatedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exporter_snapshot_generated_timestamp_seconds",
			Help: "Generation time of the published snapshot.",
		}),
		retained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exporter_snapshots_retained_total",
			Help: "Cycles whose every target failed and whose candidate was not published.",
		}),
	}

	m.Registry.MustRegister(
		m.cycles,
		m.skipped,
		m.cycleDuration,
		m.targetFailures,
		m.series,
		m.generatedAt,
		m.retained,
	)
	return m
}

func (m *Metrics) CycleDone(d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) CycleSkipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

func (m *Metrics) TargetFailed(network, kind string) {
	if m == nil {
		return
	}
	m.targetFailures.WithLabelValues(network, kind).Inc()
}

func (m *Metrics) SnapshotRetained() {
	if m == nil {
		return
	}
	m.retained.Inc()
}

// Published records the shape of a newly published snapshot.
func (m *Metrics) Published(series int, at time.Time) {
	if m == nil {
		return
	}
	m.series.Set(float64(series))
	if !at.IsZero() {
		m.generatedAt.Set(float64(at.UnixNano()) / 1e9)
	}
}

// Gatherer returns the registry, or nil when m is nil.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.Registry
}
