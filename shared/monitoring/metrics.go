package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "neurowind"

// Metrics holds the Prometheus collectors for cycles, fetches and alerts.
type Metrics struct {
	Cycles        *prometheus.CounterVec // labels: city, outcome={ok,fetch_error,invalid}
	CycleDuration prometheus.Histogram

	FetchRequests *prometheus.CounterVec // labels: outcome={success,error}
	FetchCache    *prometheus.CounterVec // labels: result={hit,miss}
	FetchDuration prometheus.Histogram

	SpikeCount *prometheus.GaugeVec // labels: city
	MaxWind    *prometheus.GaugeVec // labels: city

	Alerts *prometheus.CounterVec // labels: outcome={sent,failed,skipped}
}

// NewMetrics creates the collectors and registers them with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Interaction cycles by city and outcome.",
		}, []string{"city", "outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete interaction cycle, fetch included.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Forecast source requests by outcome.",
		}, []string{"outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "City forecast cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Forecast source request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SpikeCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spike_count",
			Help:      "Spikes encoded in the latest cycle per city.",
		}, []string{"city"}),
		MaxWind: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_wind_kmh",
			Help:      "Maximum forecast wind speed in the latest cycle per city.",
		}, []string{"city"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert deliveries by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Cycles,
		m.CycleDuration,
		m.FetchRequests,
		m.FetchCache,
		m.FetchDuration,
		m.SpikeCount,
		m.MaxWind,
		m.Alerts,
	}
}
