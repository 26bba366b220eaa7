// Package metrics exposes Prometheus instrumentation for the analysis agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts completed turns by routed intent and outcome.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_turns_total",
		Help: "Completed conversation turns by intent and outcome.",
	}, []string{"intent", "outcome"})

	// SQLAttemptsTotal counts individual SQL generation attempts by result.
	SQLAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_sql_attempts_total",
		Help: "SQL generation attempts by execution result.",
	}, []string{"result"})

	// RetryExhaustionsTotal counts turns that ran out of SQL retries.
	RetryExhaustionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_sql_retry_exhaustions_total",
		Help: "Turns that exhausted the SQL retry budget.",
	})

	// TurnDuration observes end-to-end turn latency in seconds.
	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_turn_duration_seconds",
		Help:    "End-to-end turn latency by intent.",
		Buckets: prometheus.DefBuckets,
	}, []string{"intent"})
)

// ObserveSQLAttempt records one SQL attempt.
func ObserveSQLAttempt(success bool) {
	result := "error"
	if success {
		result = "ok"
	}
	SQLAttemptsTotal.WithLabelValues(result).Inc()
}

// ObserveTurn records a finished turn.
func ObserveTurn(intent, outcome string, seconds float64) {
	if intent == "" {
		intent = "unknown"
	}
	TurnsTotal.WithLabelValues(intent, outcome).Inc()
	TurnDuration.WithLabelValues(intent).Observe(seconds)
}
