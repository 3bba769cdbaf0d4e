package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vnykmshr/ratepool/pkg/common/errors"
	"github.com/vnykmshr/ratepool/pkg/logx"
)

// Submit implements Pool.Submit.
func (p *workerPool) Submit(job Job) error {
	if job == nil {
		return errors.ErrNilJob
	}

	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()

	if p.state != Running {
		return fmt.Errorf("cannot submit job: %w", errors.ErrPoolClosed)
	}

	p.tracker.schedule()
	p.queue.push(job)
	return nil
}

// Wait implements Pool.Wait.
func (p *workerPool) Wait() {
	p.progress.start()

	scheduled, _ := p.tracker.counts()
	p.log.Debug("waiting for jobs to finish", logx.Int64("scheduled", scheduled))

	p.tracker.wait()
	p.progress.poll()
}

// Shutdown implements Pool.Shutdown.
func (p *workerPool) Shutdown() error {
	p.lifecycle.Lock()
	if p.state != Running {
		p.lifecycle.Unlock()
		return fmt.Errorf("cannot shut down: %w", errors.ErrPoolClosed)
	}
	p.state = Draining
	p.lifecycle.Unlock()

	p.Wait()
	p.log.Debug("all jobs done, shutting down")

	p.queue.stop(p.config.Workers)
	p.workerWg.Wait()

	if p.closer != nil {
		if err := p.closer.Close(); err != nil {
			p.log.Warn("closing rate limiter", logx.Err(err))
		}
	}
	p.progress.stop()

	p.lifecycle.Lock()
	p.state = Stopped
	p.lifecycle.Unlock()

	p.log.Debug("shut down")
	return nil
}

// State implements Pool.State.
func (p *workerPool) State() State {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()
	return p.state
}

// Size implements Pool.Size.
func (p *workerPool) Size() int {
	return p.config.Workers
}

// QueueSize implements Pool.QueueSize.
func (p *workerPool) QueueSize() int {
	return p.queue.len()
}

// Scheduled implements Pool.Scheduled.
func (p *workerPool) Scheduled() int64 {
	scheduled, _ := p.tracker.counts()
	return scheduled
}

// Completed implements Pool.Completed.
func (p *workerPool) Completed() int64 {
	_, completed := p.tracker.counts()
	return completed
}

// worker takes jobs until it consumes a stop signal.
func (p *workerPool) worker(id int) {
	defer p.workerWg.Done()

	for {
		job, ok := p.queue.take()
		if !ok {
			return
		}
		p.execute(id, job)
		p.tracker.complete()
	}
}

// execute waits for a start token and runs job, swallowing any panic.
func (p *workerPool) execute(workerID int, job Job) {
	if err := p.limiter.Wait(context.Background()); err != nil {
		p.log.Error("rate limiter unavailable, dropping job",
			logx.Int("worker", workerID),
			logx.Err(err),
		)
		return
	}

	if p.config.OnJobStart != nil {
		p.runHook(workerID, "on_job_start", func() { p.config.OnJobStart(workerID, job) })
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("job panicked",
				logx.Int("worker", workerID),
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())),
			)
			if p.config.PanicHandler != nil {
				p.runHook(workerID, "panic_handler", func() { p.config.PanicHandler(job, r) })
			}
		}
		if p.config.OnJobComplete != nil {
			elapsed := time.Since(start)
			p.runHook(workerID, "on_job_complete", func() { p.config.OnJobComplete(workerID, job, elapsed) })
		}
	}()

	ctx := context.Background()
	if p.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.JobTimeout)
		defer cancel()
	}

	job.Run(ctx)
}

// runHook calls a user callback. A panicking hook is logged and swallowed so
// the worker survives and the job is still marked complete.
func (p *workerPool) runHook(workerID int, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("hook panicked",
				logx.Int("worker", workerID),
				logx.String("hook", name),
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())),
			)
		}
	}()
	fn()
}
