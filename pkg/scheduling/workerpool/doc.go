/*
Package workerpool runs a batch of opaque jobs on a fixed set of workers
while capping how many jobs may start in each rate-limit window.

Basic usage:

	pool := workerpool.New(100, 25, time.Second) // 100 workers, 25 starts per second

	for _, id := range ids {
		id := id
		pool.Submit(workerpool.JobFunc(func(ctx context.Context) {
			fetch(ctx, id)
		}))
	}

	if err := pool.Shutdown(); err != nil { // drains, then joins every goroutine
		log.Fatal(err)
	}

Jobs do not return anything to the pool. A job that needs to report an
outcome writes it to a channel or a synchronized collection owned by the
caller, for example results.Collector.

Lifecycle:

A pool moves from Running to Draining when Shutdown is called, and to
Stopped once every worker, the limiter refill loop and the progress loop
have been joined. Submit fails with errors.ErrPoolClosed from Draining on.
A pool is single use; build a new one for the next batch.

Ordering:

Workers take jobs off the queue in submission order. With one worker, jobs
also start in that order. With several workers, each dequeued job then
waits for its own token, and the race for tokens can reorder starts. A job
can start before at most Workers-1 jobs that were submitted ahead of it.

Rate limiting:

By default each worker blocks on a window limiter before running a job, so
at most RateCapacity jobs start per RateInterval. Any Limiter can be passed
in Config.Limiter instead, such as smooth.Limiter for evenly spaced starts.
The window limiter resets abruptly, so up to twice the capacity may start
across a window boundary.

Progress:

When Config.Progress is set, the first call to Wait starts a loop that
polls completion counts every ProgressInterval and reports deltas. A final
report with Completed == Total is sent once the pool drains.

Panics:

A panicking job is recovered, logged with its stack, handed to
Config.PanicHandler and counted as completed. The worker keeps running.
A panic raised by OnJobStart, OnJobComplete or PanicHandler itself is
logged and swallowed the same way.
*/
package workerpool
