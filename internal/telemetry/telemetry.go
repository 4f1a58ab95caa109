// Package telemetry exposes Prometheus instrumentation for the routing
// and monitoring subsystems.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors published on the /metrics endpoint.
type Metrics struct {
	// Selections counts SelectProvider calls by outcome: "rule",
	// "fallback", "balancer", or "none".
	Selections *prometheus.CounterVec

	// Probes counts health probes by resulting status.
	Probes *prometheus.CounterVec

	// BreakerTransitions counts circuit transitions by target state.
	BreakerTransitions *prometheus.CounterVec

	// MonitoredProviders tracks how many providers are under monitoring.
	MonitoredProviders prometheus.Gauge
}

// Selection outcomes.
const (
	OutcomeRule     = "rule"
	OutcomeFallback = "fallback"
	OutcomeBalancer = "balancer"
	OutcomeNone     = "none"
)

// New creates the collectors and registers them with the registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelmux",
			Subsystem: "routing",
			Name:      "selections_total",
			Help:      "Provider selections by outcome.",
		}, []string{"outcome"}),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelmux",
			Subsystem: "health",
			Name:      "probes_total",
			Help:      "Health probes by resulting status.",
		}, []string{"status"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelmux",
			Subsystem: "breaker",
			Name:      "transitions_total",
			Help:      "Circuit breaker transitions by target state.",
		}, []string{"to"}),
		MonitoredProviders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "modelmux",
			Subsystem: "health",
			Name:      "monitored_providers",
			Help:      "Providers currently under health monitoring.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Selections, m.Probes, m.BreakerTransitions, m.MonitoredProviders)
	}
	return m
}
