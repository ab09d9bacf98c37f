// Package metrics exposes Prometheus instrumentation for the engine: turn
// and step outcomes plus their durations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/showrunner-ai/showrunner/core"
)

// Recorder implements the engine's Metrics contract on Prometheus
// collectors.
type Recorder struct {
	turnsTotal   *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// NewRecorder creates a recorder and registers its collectors. A nil
// registerer uses the default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showrunner_turns_total",
				Help: "Total number of committed turns",
			},
			[]string{"status"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showrunner_turn_duration_seconds",
				Help:    "Turn duration from start to commit in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showrunner_steps_total",
				Help: "Total number of terminal plan steps",
			},
			[]string{"agent", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showrunner_step_duration_seconds",
				Help:    "Agent invocation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),
	}

	reg.MustRegister(r.turnsTotal, r.turnDuration, r.stepsTotal, r.stepDuration)
	return r
}

// ObserveTurn records one committed or aborted turn.
func (r *Recorder) ObserveTurn(status core.TurnStatus, d time.Duration) {
	r.turnsTotal.WithLabelValues(string(status)).Inc()
	r.turnDuration.WithLabelValues(string(status)).Observe(d.Seconds())
}

// ObserveStep records one terminal plan step. Steps that never ran (skipped,
// cancelled before dispatch) carry a zero duration and are counted only.
func (r *Recorder) ObserveStep(agentName string, status core.StepStatus, d time.Duration) {
	r.stepsTotal.WithLabelValues(agentName, string(status)).Inc()
	if d > 0 {
		r.stepDuration.WithLabelValues(agentName).Observe(d.Seconds())
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
