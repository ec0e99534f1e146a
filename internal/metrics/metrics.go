// Package metrics holds the bot's Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wrestlebot"

// Metrics is the set of bot collectors.
type Metrics struct {
	registry *prometheus.Registry

	Commands        *prometheus.CounterVec
	MatchesStarted  *prometheus.CounterVec
	MatchesFinished *prometheus.CounterVec
	CoinsPaid       *prometheus.CounterVec
	TurnTimeouts    prometheus.Counter
	ActiveMatches   prometheus.Gauge
	PendingMatches  prometheus.Gauge
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
		MatchesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_started_total",
			Help:      "Matches started, by format.",
		}, []string{"format"}),
		MatchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Matches finished, by format and finish reason.",
		}, []string{"format", "reason"}),
		CoinsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coins_paid_total",
			Help:      "Coins credited, by source.",
		}, []string{"source"}),
		TurnTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_timeouts_total",
			Help:      "Turns that ran out of time.",
		}),
		ActiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_matches",
			Help:      "Matches currently running.",
		}),
		PendingMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_matches",
			Help:      "Challenges and lobbies waiting to start.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Commands,
		m.MatchesStarted,
		m.MatchesFinished,
		m.CoinsPaid,
		m.TurnTimeouts,
		m.ActiveMatches,
		m.PendingMatches,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetSessions records the registry sizes.
func (m *Metrics) SetSessions(active, pending int) {
	m.ActiveMatches.Set(float64(active))
	m.PendingMatches.Set(float64(pending))
}
