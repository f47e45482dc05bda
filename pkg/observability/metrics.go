package observability

import (
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by editor hooks.
type Metrics struct {
	Operations   *prometheus.CounterVec
	History      *prometheus.CounterVec
	HistoryDepth *prometheus.GaugeVec
	RedoDepth    *prometheus.GaugeVec
	Intents      *prometheus.GaugeVec
	Transitions  *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intentflow_operations_total",
				Help: "Total number of graph operations by outcome",
			},
			[]string{"bot", "op", "outcome"},
		),
		History: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intentflow_history_events_total",
				Help: "Total number of history commits, undos and redos",
			},
			[]string{"bot", "type"},
		),
		HistoryDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intentflow_history_depth",
				Help: "Number of recorded graph states",
			},
			[]string{"bot"},
		),
		RedoDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intentflow_redo_depth",
				Help: "Number of states available to redo",
			},
			[]string{"bot"},
		),
		Intents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intentflow_intents",
				Help: "Number of intents in the last recorded graph",
			},
			[]string{"bot"},
		),
		Transitions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intentflow_transitions",
				Help: "Number of transitions in the last recorded graph",
			},
			[]string{"bot"},
		),
	}
	reg.MustRegister(m.Operations, m.History, m.HistoryDepth, m.RedoDepth, m.Intents, m.Transitions)
	return m
}

// Hooks returns editor hooks recording into m under the bot label.
func (m *Metrics) Hooks(bot string) domain.Hooks {
	return domain.Hooks{
		OnOperation: func(e *domain.OperationEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.Operations.WithLabelValues(bot, e.Op, outcome).Inc()
		},
		OnHistory: func(e *domain.HistoryEvent) {
			m.History.WithLabelValues(bot, string(e.Type)).Inc()
			m.HistoryDepth.WithLabelValues(bot).Set(float64(e.Depth))
			m.RedoDepth.WithLabelValues(bot).Set(float64(e.RedoDepth))
			m.Intents.WithLabelValues(bot).Set(float64(e.Nodes))
			m.Transitions.WithLabelValues(bot).Set(float64(e.Edges))
		},
	}
}
