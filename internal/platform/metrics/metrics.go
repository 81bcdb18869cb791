package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CommandsAccepted     *prometheus.CounterVec
	CommandsRejected     *prometheus.CounterVec
	EndpointLatency      *prometheus.HistogramVec
	ProjectionWrites     prometheus.Counter
	AnalyticsCacheHits   prometheus.Counter
	AnalyticsCacheMisses prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CommandsAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterd_commands_accepted_total",
			Help: "Commands that passed all checks and were committed",
		}, []string{"command"}),
		CommandsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterd_commands_rejected_total",
			Help: "Commands rejected by validation or an invariant check",
		}, []string{"command", "code"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rosterd_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ProjectionWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterd_entries_projection_writes_total",
			Help: "Upserts into the timeline entries projection",
		}),
		AnalyticsCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterd_analytics_cache_hits_total",
			Help: "Daily analytics responses served from cache",
		}),
		AnalyticsCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterd_analytics_cache_misses_total",
			Help: "Daily analytics responses computed from stores",
		}),
	}
}

// CommandAccepted increments the accepted counter for a command.
func (m *Metrics) CommandAccepted(command string) {
	if m == nil {
		return
	}
	m.CommandsAccepted.WithLabelValues(command).Inc()
}

// CommandRejected increments the rejected counter for a command and error code.
func (m *Metrics) CommandRejected(command, code string) {
	if m == nil {
		return
	}
	m.CommandsRejected.WithLabelValues(command, code).Inc()
}

// ProjectionWrite counts one upsert into the entries projection.
func (m *Metrics) ProjectionWrite() {
	if m == nil {
		return
	}
	m.ProjectionWrites.Inc()
}

// AnalyticsCacheHit counts one daily-analytics response served from cache.
func (m *Metrics) AnalyticsCacheHit() {
	if m == nil {
		return
	}
	m.AnalyticsCacheHits.Inc()
}

// AnalyticsCacheMiss counts one daily-analytics response computed from stores.
func (m *Metrics) AnalyticsCacheMiss() {
	if m == nil {
		return
	}
	m.AnalyticsCacheMisses.Inc()
}

// ObserveEndpointLatency records one request's duration for an endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
