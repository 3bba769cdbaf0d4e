package workerpool

import (
	"context"
	"time"

	"github.com/vnykmshr/ratepool/pkg/metrics"
	"github.com/vnykmshr/ratepool/pkg/ratelimit/window"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
	limiter  window.Limiter // instrumented limiter owned by the wrapper, if any
}

// NewWithMetrics creates a worker pool from config and instruments it under
// name. When config.Limiter is nil the built-in window limiter is
// instrumented too. A nil registry returns an uninstrumented pool. It panics
// on invalid configuration, like NewWithConfig.
func NewWithMetrics(config Config, name string, registry *metrics.Registry) Pool {
	pool, err := NewWithMetricsSafe(config, name, registry)
	if err != nil {
		panic(err.Error())
	}
	return pool
}

// NewWithMetricsSafe is NewWithMetrics returning validation errors.
func NewWithMetricsSafe(config Config, name string, registry *metrics.Registry) (Pool, error) {
	if registry == nil {
		return NewSafe(config)
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	mp := &MetricsPool{name: name, registry: registry}

	if config.Limiter == nil {
		mp.limiter = window.NewWithMetrics(window.Config{
			Capacity: config.RateCapacity,
			Interval: config.RateInterval,
		}, name, registry)
		config.Limiter = mp.limiter
	}

	panicHandler := config.PanicHandler
	config.PanicHandler = func(job Job, recovered interface{}) {
		registry.JobsPanicked.WithLabelValues(name).Inc()
		if panicHandler != nil {
			panicHandler(unwrapJob(job), recovered)
		}
	}

	onStart := config.OnJobStart
	config.OnJobStart = func(workerID int, job Job) {
		if mj, ok := job.(*metricsJob); ok {
			registry.JobQueueWait.WithLabelValues(name).Observe(time.Since(mj.submitted).Seconds())
		}
		if onStart != nil {
			onStart(workerID, unwrapJob(job))
		}
	}

	onComplete := config.OnJobComplete
	config.OnJobComplete = func(workerID int, job Job, duration time.Duration) {
		registry.JobsCompleted.WithLabelValues(name).Inc()
		registry.JobDuration.WithLabelValues(name).Observe(duration.Seconds())
		mp.updateMetrics()
		if onComplete != nil {
			onComplete(workerID, unwrapJob(job), duration)
		}
	}

	config.Progress = &metricsProgress{next: config.Progress, name: name, registry: registry}

	pool, err := NewSafe(config)
	if err != nil {
		if mp.limiter != nil {
			_ = mp.limiter.Close()
		}
		return nil, err
	}
	mp.pool = pool
	mp.updateMetrics()
	return mp, nil
}

// updateMetrics refreshes the size and queue gauges.
func (mp *MetricsPool) updateMetrics() {
	if mp.pool == nil {
		return
	}
	mp.registry.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	mp.registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a job to the pool and records it as scheduled.
func (mp *MetricsPool) Submit(job Job) error {
	if job == nil {
		return mp.pool.Submit(nil)
	}
	if err := mp.pool.Submit(&metricsJob{job: job, submitted: time.Now()}); err != nil {
		return err
	}
	mp.registry.JobsScheduled.WithLabelValues(mp.name).Inc()
	mp.updateMetrics()
	return nil
}

// Wait blocks until every submitted job has completed.
func (mp *MetricsPool) Wait() {
	mp.pool.Wait()
	mp.updateMetrics()
}

// Shutdown drains and stops the pool, then closes the instrumented limiter.
func (mp *MetricsPool) Shutdown() error {
	if err := mp.pool.Shutdown(); err != nil {
		return err
	}
	mp.updateMetrics()
	if mp.limiter != nil {
		return mp.limiter.Close()
	}
	return nil
}

// State returns the current lifecycle state.
func (mp *MetricsPool) State() State { return mp.pool.State() }

// Size returns the number of workers.
func (mp *MetricsPool) Size() int { return mp.pool.Size() }

// QueueSize returns the number of queued jobs.
func (mp *MetricsPool) QueueSize() int { return mp.pool.QueueSize() }

// Scheduled returns the total number of jobs submitted.
func (mp *MetricsPool) Scheduled() int64 { return mp.pool.Scheduled() }

// Completed returns the total number of jobs that have run.
func (mp *MetricsPool) Completed() int64 { return mp.pool.Completed() }

// metricsJob remembers when a job was submitted.
type metricsJob struct {
	job       Job
	submitted time.Time
}

func (mj *metricsJob) Run(ctx context.Context) {
	mj.job.Run(ctx)
}

func unwrapJob(job Job) Job {
	if mj, ok := job.(*metricsJob); ok {
		return mj.job
	}
	return job
}

// metricsProgress mirrors progress reports into gauges before forwarding.
type metricsProgress struct {
	next     ProgressSink
	name     string
	registry *metrics.Registry
}

func (m *metricsProgress) Report(p Progress) {
	m.registry.ProgressCompleted.WithLabelValues(m.name).Set(float64(p.Completed))
	m.registry.ProgressTotal.WithLabelValues(m.name).Set(float64(p.Total))
	if m.next != nil {
		m.next.Report(p)
	}
}
