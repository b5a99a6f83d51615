// Package observability provides Prometheus collectors for the HTTP
// surface and the advancement engine.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the server records.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	Advances          *prometheus.CounterVec
	AdvanceDuration   prometheus.Histogram
	ValidationErrors  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics builds the collectors and registers them on the registerer.
// Pass prometheus.DefaultRegisterer for the usual global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepflow_sessions_started_total",
			Help: "Total number of sessions created",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepflow_sessions_completed_total",
			Help: "Total number of sessions that traversed the whole flow",
		}),
		Advances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepflow_advances_total",
				Help: "Total advance calls by outcome",
			},
			[]string{"outcome"},
		),
		AdvanceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "stepflow_advance_duration_seconds",
			Help: "Duration of advance calls",
		}),
		ValidationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepflow_validation_errors_total",
				Help: "Total rejected field submissions by step",
			},
			[]string{"step"},
		),
	}
	reg.MustRegister(
		m.SessionsStarted,
		m.SessionsCompleted,
		m.Advances,
		m.AdvanceDuration,
		m.ValidationErrors,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler exposes the registry the collectors were registered on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
