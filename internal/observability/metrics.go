package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quakewatch"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Feed client metrics.
	FetchRequests   *prometheus.CounterVec   // labels: mode={interval,days,range}, outcome={success,error}
	FetchErrors     *prometheus.CounterVec   // labels: kind={transport,status,malformed}
	FetchDuration   *prometheus.HistogramVec // labels: mode
	FeedCache       *prometheus.CounterVec   // labels: result={hit,miss}
	SkippedFeatures prometheus.Counter

	// Refresh pipeline metrics.
	RefreshCycles   *prometheus.CounterVec // labels: trigger={mount,timer,selector,search}, outcome={applied,failed,superseded}
	StoreFeatures   prometheus.Gauge
	PipelineRunning prometheus.Gauge

	// Feed mirror metrics.
	MessagesProduced prometheus.Counter
	MirrorErrors     prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Feed requests by search mode and outcome.",
		}, []string{"mode", "outcome"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed feed requests by error kind.",
		}, []string{"kind"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "USGS feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"mode"}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_cache_total",
			Help:      "Feed cache lookups by result.",
		}, []string{"result"}),
		SkippedFeatures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_features_total",
			Help:      "Features dropped because their geometry could not be placed on the map.",
		}),
		RefreshCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		StoreFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_features",
			Help:      "Number of features in the current collection.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh pipeline is active, 0 when shut down.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_messages_produced_total",
			Help:      "Total feature messages written to the mirror topic.",
		}),
		MirrorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_errors_total",
			Help:      "Total failed mirror writes.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.FetchErrors,
		m.FetchDuration,
		m.FeedCache,
		m.SkippedFeatures,
		m.RefreshCycles,
		m.StoreFeatures,
		m.PipelineRunning,
		m.MessagesProduced,
		m.MirrorErrors,
	}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all dashboard metrics and registers them with reg.
// One-shot commands pass a private registry since nothing scrapes them.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}
