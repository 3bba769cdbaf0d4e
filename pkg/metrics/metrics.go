// Package metrics provides Prometheus instrumentation for ratepool components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for ratepool components.
type Registry struct {
	// Rate Limiting Metrics
	RateLimitAllowed  *prometheus.CounterVec
	RateLimitDenied   *prometheus.CounterVec
	RateLimitWaitTime *prometheus.HistogramVec
	RateLimitTokens   *prometheus.GaugeVec
	RateLimitRefills  *prometheus.CounterVec

	// Worker Pool Metrics
	JobsScheduled    *prometheus.CounterVec
	JobsCompleted    *prometheus.CounterVec
	JobsPanicked     *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	JobQueueWait     *prometheus.HistogramVec
	WorkerPoolSize   *prometheus.GaugeVec
	WorkerPoolQueued *prometheus.GaugeVec

	// Progress Metrics
	ProgressCompleted *prometheus.GaugeVec
	ProgressTotal     *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with the given Prometheus
// registerer under the default "ratepool" namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithNamespace(reg, DefaultNamespace)
}

// NewRegistryWithNamespace is NewRegistry with a custom metric namespace.
// A nil registerer gets a fresh private prometheus.Registry.
func NewRegistryWithNamespace(reg prometheus.Registerer, namespace string) *Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Registry{
		RateLimitAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "allowed_total",
				Help:      "Total number of tokens handed out",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "denied_total",
				Help:      "Total number of waits abandoned by cancellation or close",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for a rate limit token",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitTokens: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "tokens_available",
				Help:      "Number of tokens currently available",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitRefills: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "refills_total",
				Help:      "Total number of window refills observed",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		JobsScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "jobs_scheduled_total",
				Help:      "Total number of jobs submitted",
			},
			[]string{"pool_name"},
		),

		JobsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "jobs_completed_total",
				Help:      "Total number of jobs that ran to completion",
			},
			[]string{"pool_name"},
		),

		JobsPanicked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "jobs_panicked_total",
				Help:      "Total number of jobs whose panic was recovered",
			},
			[]string{"pool_name"},
		),

		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "job_duration_seconds",
				Help:      "Time spent executing jobs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		JobQueueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "job_queue_wait_seconds",
				Help:      "Time between submission and start of execution",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Number of workers in the pool",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "queued_jobs",
				Help:      "Number of jobs waiting to be picked up",
			},
			[]string{"pool_name"},
		),

		ProgressCompleted: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "progress",
				Name:      "completed",
				Help:      "Jobs completed as of the last progress report",
			},
			[]string{"pool_name"},
		),

		ProgressTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "progress",
				Name:      "total",
				Help:      "Jobs scheduled as of the last progress report",
			},
			[]string{"pool_name"},
		),
	}
}
