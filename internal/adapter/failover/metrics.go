package failover

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/freytube/freytube/internal/core/domain"
)

const metricsNamespace = "freytube"

// Metrics holds the failover counters. Each executor owns its collectors and
// registers them on the registry it is given.
type Metrics struct {
	Attempts    *prometheus.CounterVec
	Rotations   *prometheus.CounterVec
	Exhaustions prometheus.Counter
	Duration    *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "failover",
				Name:      "attempts_total",
				Help:      "Provider call attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		Rotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "failover",
				Name:      "rotations_total",
				Help:      "Instance rotations after a retryable failure",
			},
			[]string{"provider"},
		),
		Exhaustions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "failover",
				Name:      "exhaustions_total",
				Help:      "Calls that failed on every attempt of both providers",
			},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "failover",
				Name:      "call_duration_seconds",
				Help:      "Duration of a whole failover call by operation",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Attempts, m.Rotations, m.Exhaustions, m.Duration)
	}
	return m
}

func (m *Metrics) attempt(provider domain.Provider, outcome string) {
	m.Attempts.WithLabelValues(provider.String(), outcome).Inc()
}

func (m *Metrics) rotation(provider domain.Provider) {
	m.Rotations.WithLabelValues(provider.String()).Inc()
}
