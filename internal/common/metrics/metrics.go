// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderScoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "provider_score_duration_seconds",
			Help: "Duration of a single signal provider score call",
		},
		[]string{"provider"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_failures_total",
			Help: "Signal provider calls that ended in ProviderUnavailable",
		},
		[]string{"provider"},
	)

	ScoreCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_cache_hits_total",
			Help: "Component score cache hits",
		},
		[]string{"provider"},
	)

	ScoreCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_cache_misses_total",
			Help: "Component score cache misses",
		},
		[]string{"provider"},
	)

	RankingsComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rankings_computed_total",
			Help: "Completed candidate ranking runs",
		},
	)

	ScoringFailedCandidates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_failed_candidates_total",
			Help: "Candidates excluded from ranking because every provider failed",
		},
	)

	BiasIndicators = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bias_indicators_total",
			Help: "Bias indicators emitted by the auditor",
		},
		[]string{"bias_type"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
