package workerpool

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/vnykmshr/ratepool/pkg/common/validation"
	"github.com/vnykmshr/ratepool/pkg/logx"
	"github.com/vnykmshr/ratepool/pkg/ratelimit/window"
)

// Job is an opaque unit of work. The pool runs each submitted job exactly
// once and does not observe its outcome; jobs that need to report success or
// failure do so through a channel or collection owned by the caller.
type Job interface {
	// Run executes the job. The context carries the pool's JobTimeout, if any.
	Run(ctx context.Context)
}

// JobFunc is a function type that implements the Job interface.
type JobFunc func(ctx context.Context)

// Run implements the Job interface for JobFunc.
func (f JobFunc) Run(ctx context.Context) {
	f(ctx)
}

// Limiter gates job starts. Both window.Limiter and smooth.Limiter satisfy it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Progress is a snapshot delivered to a ProgressSink.
type Progress struct {
	// Completed is the number of jobs that have run.
	Completed int64

	// Total is the number of jobs scheduled so far.
	Total int64

	// Delta is the number of completions since the previous report.
	Delta int64
}

// Done reports whether every scheduled job has completed.
func (p Progress) Done() bool {
	return p.Completed == p.Total
}

// ProgressSink receives progress reports. Reports are delivered from a
// single goroutine at a time.
type ProgressSink interface {
	Report(p Progress)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(p Progress)

// Report implements ProgressSink.
func (f ProgressFunc) Report(p Progress) {
	f(p)
}

// State is the lifecycle state of a pool. Transitions only move forward.
type State int32

const (
	// Running accepts submissions and executes jobs.
	Running State = iota

	// Draining refuses submissions and waits for queued jobs to finish.
	Draining

	// Stopped means every worker and background loop has been joined.
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Pool runs submitted jobs on a fixed set of workers, never starting more
// than the limiter allows per window.
type Pool interface {
	// Submit appends a job to the queue. It never blocks. It returns an error
	// wrapping errors.ErrPoolClosed once Shutdown has begun.
	Submit(job Job) error

	// Wait blocks until every job submitted so far has completed.
	Wait()

	// Shutdown drains the queue, then stops and joins every worker and
	// background loop. It must be called exactly once; later calls return an
	// error wrapping errors.ErrPoolClosed.
	Shutdown() error

	// State returns the current lifecycle state.
	State() State

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the number of jobs not yet picked up by a worker.
	QueueSize() int

	// Scheduled returns the total number of jobs submitted.
	Scheduled() int64

	// Completed returns the total number of jobs that have run.
	Completed() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Workers is the number of worker goroutines. Must be greater than 0.
	Workers int

	// RateCapacity is the maximum number of job starts per RateInterval.
	// Ignored when Limiter is set.
	RateCapacity int

	// RateInterval is the refill period of the built-in window limiter.
	// Ignored when Limiter is set.
	RateInterval time.Duration

	// Limiter replaces the built-in window limiter. The pool does not close
	// a limiter it did not create.
	Limiter Limiter

	// Progress receives periodic progress reports once Wait is entered.
	// Nil disables progress reporting.
	Progress ProgressSink

	// ProgressInterval is the polling cadence for Progress. Zero means 250ms.
	ProgressInterval time.Duration

	// JobTimeout bounds the context passed to each job. Zero means no timeout.
	JobTimeout time.Duration

	// Logger receives lifecycle events and recovered panics.
	Logger logx.Logger

	// PanicHandler is called when a job panics. The panic is swallowed and
	// the job still counts as completed.
	PanicHandler func(job Job, recovered interface{})

	// OnJobStart is called after a worker obtains a rate limit token and
	// before the job runs.
	OnJobStart func(workerID int, job Job)

	// OnJobComplete is called after a job returns or panics.
	//
	// A panic inside any of the three hooks is logged and swallowed.
	OnJobComplete func(workerID int, job Job, duration time.Duration)
}

// DefaultConfig returns 100 workers sharing 25 starts per second.
func DefaultConfig() Config {
	return Config{
		Workers:          100,
		RateCapacity:     25,
		RateInterval:     time.Second,
		ProgressInterval: 250 * time.Millisecond,
	}
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config
	log    logx.Logger

	queue    *jobQueue
	tracker  *completionTracker
	limiter  Limiter
	closer   io.Closer // non-nil only for a limiter the pool created
	progress *progressReporter

	// lifecycle serializes Submit against the Running -> Draining transition.
	lifecycle sync.RWMutex
	state     State

	workerWg sync.WaitGroup
}

// New creates a worker pool with the given number of workers, allowing at
// most capacity job starts per interval. It panics on non-positive arguments.
func New(workers, capacity int, interval time.Duration) Pool {
	config := DefaultConfig()
	config.Workers = workers
	config.RateCapacity = capacity
	config.RateInterval = interval
	return NewWithConfig(config)
}

// NewWithConfig creates a worker pool with the specified configuration.
// It panics on invalid configuration; use NewSafe to get an error instead.
func NewWithConfig(config Config) Pool {
	pool, err := NewSafe(config)
	if err != nil {
		panic(err.Error())
	}
	return pool
}

// NewSafe validates config and creates a worker pool. Workers and the
// rate limiter loop are running when it returns.
func NewSafe(config Config) (Pool, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.ProgressInterval == 0 {
		config.ProgressInterval = DefaultConfig().ProgressInterval
	}

	pool := &workerPool{
		config:  config,
		log:     config.Logger.With(logx.String("component", "workerpool")),
		queue:   newJobQueue(),
		tracker: newCompletionTracker(),
		limiter: config.Limiter,
		state:   Running,
	}

	if pool.limiter == nil {
		wl, err := window.NewSafe(config.RateCapacity, config.RateInterval)
		if err != nil {
			return nil, err
		}
		pool.limiter = wl
		pool.closer = wl
	}

	if config.Progress != nil {
		pool.progress = newProgressReporter(config.Progress, config.ProgressInterval, pool.tracker)
	}

	pool.workerWg.Add(config.Workers)
	for i := 0; i < config.Workers; i++ {
		go pool.worker(i)
	}

	pool.log.Debug("worker pool started",
		logx.Int("workers", config.Workers),
		logx.Int("rate_capacity", config.RateCapacity),
		logx.Duration("rate_interval", config.RateInterval),
	)
	return pool, nil
}

func validateConfig(config Config) error {
	if err := validation.ValidatePositive("workerpool", "workers", config.Workers); err != nil {
		return err
	}
	if config.Limiter == nil {
		if err := validation.ValidatePositive("workerpool", "rate_capacity", config.RateCapacity); err != nil {
			return err
		}
		if err := validation.ValidatePositiveDuration("workerpool", "rate_interval", config.RateInterval); err != nil {
			return err
		}
	}
	if config.ProgressInterval < 0 {
		return validation.ValidatePositiveDuration("workerpool", "progress_interval", config.ProgressInterval)
	}
	if config.JobTimeout < 0 {
		return validation.ValidatePositiveDuration("workerpool", "job_timeout", config.JobTimeout)
	}
	return nil
}
