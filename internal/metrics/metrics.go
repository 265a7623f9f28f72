// Package metrics holds the Prometheus collectors for the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reportit"

type Metrics struct {
	votes        *prometheus.CounterVec
	screenLoads  *prometheus.CounterVec
	analyses     *prometheus.CounterVec
	statusWrites prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote transactions by direction and outcome.",
		}, []string{"direction", "outcome"}),
		screenLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screen_loads_total",
			Help:      "Screen fetches by screen and resulting state.",
		}, []string{"screen", "state"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_analyses_total",
			Help:      "AI photo analyses by result.",
		}, []string{"result"}),
		statusWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Complaint status changes written by administrators.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.votes, m.screenLoads, m.analyses, m.statusWrites)
	}
	return m
}

// Vote outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
	OutcomeError   = "error"
)

func (m *Metrics) ObserveVote(direction, outcome string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(direction, outcome).Inc()
}

func (m *Metrics) ObserveScreen(screen, state string) {
	if m == nil {
		return
	}
	m.screenLoads.WithLabelValues(screen, state).Inc()
}

func (m *Metrics) ObserveAnalysis(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.analyses.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveStatusChange() {
	if m == nil {
		return
	}
	m.statusWrites.Inc()
}
