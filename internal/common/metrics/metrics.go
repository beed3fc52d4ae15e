// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_processed_total",
			Help: "Total number of inbound events processed by kind",
		},
		[]string{"kind", "outcome"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_validation_failures_total",
			Help: "Total number of answers rejected by validation",
		},
		[]string{"field_type"},
	)

	SessionsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_sessions_completed_total",
			Help: "Total number of sessions that reached the final step",
		},
	)

	TriggerFires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_completion_trigger_total",
			Help: "Completion trigger invocations by outcome",
		},
		[]string{"outcome"},
	)

	EventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bot_event_duration_seconds",
			Help: "Duration of event handling in seconds",
		},
		[]string{"kind"},
	)
)
