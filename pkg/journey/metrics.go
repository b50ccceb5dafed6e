package journey

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver exports session counters and wait timings to a
// Prometheus registry. One observer can serve many concurrent
// sessions; the underlying collectors are already goroutine safe.
type MetricsObserver struct {
	sessions *prometheus.CounterVec
	steps    prometheus.Counter
	friction *prometheus.CounterVec
	waits    prometheus.Histogram
}

// NewMetricsObserver registers the session collectors with reg.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	m := &MetricsObserver{
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfarer_sessions_total",
				Help: "Completed sessions by outcome.",
			},
			[]string{"outcome"},
		),
		steps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wayfarer_steps_total",
				Help: "Navigation steps taken across all sessions.",
			},
		),
		friction: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfarer_friction_total",
				Help: "Friction points by kind.",
			},
			[]string{"kind"},
		),
		waits: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wayfarer_wait_seconds",
				Help:    "Simulated dwell time per screen.",
				Buckets: []float64{0.5, 1, 2, 3, 4, 6},
			},
		),
	}
	reg.MustRegister(m.sessions, m.steps, m.friction, m.waits)
	return m
}

func (m *MetricsObserver) OnEvent(e Event) {
	switch e.Type {
	case EventAction:
		m.steps.Inc()
	case EventWait:
		m.waits.Observe(e.WaitSeconds)
	case EventTerminal:
		m.sessions.WithLabelValues(e.Outcome).Inc()
	}
}

// CountFriction records one friction point of the given kind. Friction
// lives on the finished trace rather than in the event stream, so
// callers tally it after a session completes.
func (m *MetricsObserver) CountFriction(kind string) {
	m.friction.WithLabelValues(kind).Inc()
}
