package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"babymeasure/internal/domain"
)

// Metrics holds the Prometheus collectors of the chat pipeline.
//
// Metrics:
//   - babymeasure_instructions_total{action,category} - instructions dispatched
//   - babymeasure_dispatch_failures_total{stage} - store, render and edit failures
//   - babymeasure_publish_tasks_total{result} - publish task outcomes
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Instructions     *prometheus.CounterVec
	DispatchFailures *prometheus.CounterVec
	PublishTasks     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Instructions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "babymeasure_instructions_total",
				Help: "Total number of chat instructions dispatched",
			},
			[]string{"action", "category"},
		),
		DispatchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "babymeasure_dispatch_failures_total",
				Help: "Total number of failures while answering an instruction",
			},
			[]string{"stage"}, // "read", "append", "render", "edit", "panic"
		),
		PublishTasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "babymeasure_publish_tasks_total",
				Help: "Total number of publish tasks by result",
			},
			[]string{"result"}, // "ok", "error", "coalesced"
		),
	}
}

// RecordInstruction counts a dispatched instruction.
func (m *Metrics) RecordInstruction(ins domain.Instruction) {
	if m == nil {
		return
	}
	m.Instructions.WithLabelValues(ins.Action.String(), ins.Category.String()).Inc()
}

// RecordFailure counts a failure in the given stage.
func (m *Metrics) RecordFailure(stage string) {
	if m == nil {
		return
	}
	m.DispatchFailures.WithLabelValues(stage).Inc()
}

// RecordPublish counts a publish task outcome.
func (m *Metrics) RecordPublish(result string) {
	if m == nil {
		return
	}
	m.PublishTasks.WithLabelValues(result).Inc()
}
