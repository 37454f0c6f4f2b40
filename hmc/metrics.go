// SPDX-License-Identifier: MIT

package hmc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/katalvlaran/latticehmc/solver"
)

const metricsNamespace = "latticehmc"

// Metrics are the Prometheus collectors of a run.
type Metrics struct {
	Trajectories      *prometheus.CounterVec
	DeltaH            prometheus.Histogram
	Plaquette         prometheus.Gauge
	Acceptance        prometheus.Gauge
	TrajectorySeconds prometheus.Histogram
	SolverIterations  *prometheus.HistogramVec
	SolverResidual    *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
// Panics if they are already registered, like promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Trajectories: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "trajectories_total",
			Help:      "Completed trajectories by Metropolis outcome",
		}, []string{"outcome"}),
		DeltaH: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "delta_h",
			Help:      "Energy violation ΔH per trajectory",
			Buckets:   []float64{-1, -0.3, -0.1, -0.03, -0.01, 0, 0.01, 0.03, 0.1, 0.3, 1},
		}),
		Plaquette: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "plaquette",
			Help:      "Average plaquette after the last trajectory",
		}),
		Acceptance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "acceptance_rate",
			Help:      "Running Metropolis acceptance rate of the current run",
		}),
		TrajectorySeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "trajectory_duration_seconds",
			Help:      "Wall time per trajectory",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		SolverIterations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "solver_iterations",
			Help:      "Krylov iterations per solve by action and phase",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"action", "phase"}),
		SolverResidual: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "solver_residual",
			Help:      "True relative residual of the last solve by action and phase",
		}, []string{"action", "phase"}),
	}
}

// ObserveSolve records one solve. It has the action.SolveObserver signature
// and is safe for concurrent use.
func (m *Metrics) ObserveSolve(actionName, phase string, st solver.Stats) {
	if m == nil {
		return
	}
	m.SolverIterations.WithLabelValues(actionName, phase).Observe(float64(st.Iterations))
	m.SolverResidual.WithLabelValues(actionName, phase).Set(st.Residual)
}

func (m *Metrics) observe(r Result, accepted, total int) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if r.Accepted {
		outcome = "accepted"
	}
	m.Trajectories.WithLabelValues(outcome).Inc()
	m.DeltaH.Observe(r.DeltaH)
	m.Plaquette.Set(r.Plaquette)
	m.TrajectorySeconds.Observe(r.Duration.Seconds())
	if total > 0 {
		m.Acceptance.Set(float64(accepted) / float64(total))
	}
}
