package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runsResolved     *prometheus.CounterVec
	runsRejected     *prometheus.CounterVec
	combatsStarted   prometheus.Counter
	combatsEnded     *prometheus.CounterVec
	experienceAwards prometheus.Counter
	partyChanges     *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics registers every collector on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "basecamp_runs_resolved_total",
			Help: "Total number of expedition runs consumed, by result kind.",
		}, []string{"result"}),
		runsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "basecamp_runs_rejected_total",
			Help: "Total number of run attempts rejected, by reason.",
		}, []string{"reason"}),
		combatsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "basecamp_combats_started_total",
			Help: "Total number of combats started.",
		}),
		combatsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "basecamp_combats_ended_total",
			Help: "Total number of combats that reached a terminal status, by status.",
		}, []string{"status"}),
		experienceAwards: f.NewCounter(prometheus.CounterOpts{
			Name: "basecamp_experience_awarded_total",
			Help: "Total experience granted to players by combat rewards.",
		}),
		partyChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "basecamp_party_changes_total",
			Help: "Total number of party membership changes, by operation.",
		}, []string{"op"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "basecamp_http_requests_total",
			Help: "Total number of HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "basecamp_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RunResolved counts a consumed run.
func (m *Metrics) RunResolved(kind string) { m.runsResolved.WithLabelValues(kind).Inc() }

// RunRejected counts a refused run attempt.
func (m *Metrics) RunRejected(reason string) { m.runsRejected.WithLabelValues(reason).Inc() }

// CombatStarted counts a new combat.
func (m *Metrics) CombatStarted() { m.combatsStarted.Inc() }

// CombatEnded counts a terminal transition and the experience it granted.
func (m *Metrics) CombatEnded(status string, xp int) {
	m.combatsEnded.WithLabelValues(status).Inc()
	m.experienceAwards.Add(float64(xp))
}

// PartyChanged counts a party add or remove.
func (m *Metrics) PartyChanged(op string) { m.partyChanges.WithLabelValues(op).Inc() }

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
