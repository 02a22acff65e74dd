package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sessions started, by outcome: started, no_questions, error
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_sessions_started_total",
			Help: "Practice session start requests by outcome",
		},
		[]string{"outcome"},
	)

	SessionsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "practice_sessions_completed_total",
			Help: "Practice sessions whose last question was answered",
		},
	)

	// Answers submitted, by correctness: correct, incorrect
	AnswersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_answers_submitted_total",
			Help: "Answers recorded by correctness",
		},
		[]string{"result"},
	)

	// Pool strategy attempts: outcome is selected or a failure reason
	PoolStrategyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_pool_strategy_outcomes_total",
			Help: "Candidate pool strategy outcomes",
		},
		[]string{"strategy", "outcome"},
	)

	MasteryUpdateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_mastery_update_failures_total",
			Help: "Attempts recorded without a mastery update, by stage",
		},
		[]string{"stage"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "practice_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)
