// Package metrics exposes Prometheus instrumentation for the game server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	SessionsCreated   prometheus.Counter
	SessionsCompleted prometheus.Counter
	Submissions       *prometheus.CounterVec
	CompletionSeconds prometheus.Histogram
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "once_sessions_created_total",
			Help: "Number of game sessions created.",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "once_sessions_completed_total",
			Help: "Number of game sessions completed with a full roster.",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "once_submissions_total",
			Help: "Number of candidate submissions by outcome.",
		}, []string{"outcome"}),
		CompletionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "once_completion_seconds",
			Help:    "Time taken to assemble a full roster.",
			Buckets: prometheus.ExponentialBuckets(15, 2, 10),
		}),
	}

	registry.MustRegister(
		m.SessionsCreated,
		m.SessionsCompleted,
		m.Submissions,
		m.CompletionSeconds,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
