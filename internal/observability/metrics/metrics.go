// Package metrics exposes prometheus counters for call and turn outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the call orchestrator counters. A nil *Metrics is valid and
// records nothing, so the core never depends on a registry being present.
type Metrics struct {
	callsStarted    *prometheus.CounterVec
	callsConnected  *prometheus.CounterVec
	callsTerminated *prometheus.CounterVec
	turnsCompleted  prometheus.Counter
	turnFailures    *prometheus.CounterVec
}

// New registers the counters against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		callsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talkline_calls_started_total",
			Help: "Call sessions created, by initiator.",
		}, []string{"initiator"}),
		callsConnected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talkline_calls_connected_total",
			Help: "Call sessions that reached the connected state, by initiator.",
		}, []string{"initiator"}),
		callsTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talkline_calls_terminated_total",
			Help: "Call sessions finalized, by termination reason.",
		}, []string{"reason"}),
		turnsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkline_turns_completed_total",
			Help: "Turns that reached successful playback.",
		}),
		turnFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talkline_turn_failures_total",
			Help: "Turns aborted by a pipeline stage failure.",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.callsStarted, m.callsConnected, m.callsTerminated, m.turnsCompleted, m.turnFailures)
	return m
}

func (m *Metrics) CallStarted(initiator string) {
	if m == nil {
		return
	}
	m.callsStarted.WithLabelValues(initiator).Inc()
}

func (m *Metrics) CallConnected(initiator string) {
	if m == nil {
		return
	}
	m.callsConnected.WithLabelValues(initiator).Inc()
}

func (m *Metrics) CallTerminated(reason string) {
	if m == nil {
		return
	}
	m.callsTerminated.WithLabelValues(reason).Inc()
}

func (m *Metrics) TurnCompleted() {
	if m == nil {
		return
	}
	m.turnsCompleted.Inc()
}

func (m *Metrics) TurnFailed(stage string) {
	if m == nil {
		return
	}
	m.turnFailures.WithLabelValues(stage).Inc()
}
