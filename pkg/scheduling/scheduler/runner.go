package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/ratepool/pkg/common/errors"
	"github.com/vnykmshr/ratepool/pkg/logx"
)

// Batch is one scheduled run. The context is canceled when the runner stops.
type Batch func(ctx context.Context) error

// Config holds configuration options for a Runner.
type Config struct {
	// Schedule is a six-field cron expression or descriptor.
	Schedule string

	// Interval runs the batch at a fixed period. Used when Schedule is empty.
	Interval time.Duration

	// Location evaluates Schedule in this time zone. Defaults to time.Local.
	Location *time.Location

	// Logger receives batch lifecycle events.
	Logger logx.Logger

	// OnSkip is called when a firing is skipped because a batch is running.
	OnSkip func(at time.Time)

	// OnError is called when a batch returns an error.
	OnError func(err error)
}

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether expr parses with the runner's parser.
func ValidateSchedule(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// Runner fires a Batch on a schedule, never running two at once.
type Runner struct {
	config   Config
	batch    Batch
	schedule cron.Schedule
	log      logx.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool

	running atomic.Bool
	wg      sync.WaitGroup
	runs    atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// NewRunner validates config and builds a stopped Runner.
func NewRunner(config Config, batch Batch) (*Runner, error) {
	if batch == nil {
		return nil, errors.NewValidationError("scheduler", "batch", nil, "cannot be nil")
	}

	var schedule cron.Schedule
	switch {
	case config.Schedule != "":
		s, err := parser.Parse(config.Schedule)
		if err != nil {
			return nil, errors.NewValidationError("scheduler", "schedule", config.Schedule, err.Error()).
				WithHint("use six fields with seconds first, e.g. \"0 */5 * * * *\", or @every 5m")
		}
		schedule = s
	case config.Interval > 0:
		schedule = interval(config.Interval)
	default:
		return nil, errors.NewValidationError("scheduler", "schedule", config.Schedule, "schedule or interval required")
	}

	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	log := config.Logger.With(logx.String("component", "scheduler"))
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		config:   config,
		batch:    batch,
		schedule: schedule,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	r.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithParser(parser),
		cron.WithLogger(cronLogger{log: log}),
		cron.WithChain(cron.Recover(cronLogger{log: log})),
	)
	r.cron.Schedule(schedule, cron.FuncJob(r.fire))
	return r, nil
}

// Start begins firing. It fails if the runner was already started.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return fmt.Errorf("cannot start runner: %w", errors.ErrClosed)
	}
	if r.started {
		return fmt.Errorf("runner already started")
	}
	r.started = true
	r.cron.Start()
	r.log.Info("scheduler started", logx.String("next", r.Next().Format(time.RFC3339)))
	return nil
}

// Stop cancels the running batch's context and prevents further firings.
// The returned channel is closed once any running batch has returned.
func (r *Runner) Stop() <-chan struct{} {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	r.cancel()
	cronDone := r.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		r.wg.Wait()
		close(done)
	}()
	return done
}

// RunNow runs the batch immediately on the calling goroutine. It returns
// false without running if a batch is already in progress.
func (r *Runner) RunNow() (bool, error) {
	if !r.running.CompareAndSwap(false, true) {
		return false, nil
	}
	r.wg.Add(1)
	defer r.wg.Done()
	defer r.running.Store(false)
	return true, r.run()
}

// Next returns the next scheduled firing after now.
func (r *Runner) Next() time.Time {
	return r.schedule.Next(time.Now())
}

// Runs returns the number of batches started.
func (r *Runner) Runs() int64 { return r.runs.Load() }

// Skipped returns the number of firings skipped because a batch was running.
func (r *Runner) Skipped() int64 { return r.skipped.Load() }

// Failed returns the number of batches that returned an error.
func (r *Runner) Failed() int64 { return r.failed.Load() }

func (r *Runner) fire() {
	if !r.running.CompareAndSwap(false, true) {
		r.skipped.Add(1)
		r.log.Warn("previous batch still running, skipping")
		if r.config.OnSkip != nil {
			r.config.OnSkip(time.Now())
		}
		return
	}
	r.wg.Add(1)
	defer r.wg.Done()
	defer r.running.Store(false)

	_ = r.run()
}

func (r *Runner) run() error {
	if r.ctx.Err() != nil {
		return r.ctx.Err()
	}

	n := r.runs.Add(1)
	start := time.Now()
	log := r.log.With(logx.Int64("batch", n))
	log.Info("batch started")

	err := r.batch(r.ctx)
	elapsed := time.Since(start)
	if err != nil {
		r.failed.Add(1)
		log.Error("batch failed", logx.Err(err), logx.Duration("elapsed", elapsed))
		if r.config.OnError != nil {
			r.config.OnError(err)
		}
		return err
	}

	log.Info("batch finished", logx.Duration("elapsed", elapsed))
	return nil
}

// interval fires every d after the previous firing. Unlike cron.Every it
// keeps sub-second periods.
type interval time.Duration

func (d interval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}

// cronLogger adapts logx to cron.Logger. cron's chatty info events go to debug.
type cronLogger struct {
	log logx.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	fields := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logx.Any(key, kv[i+1]))
	}
	return fields
}
