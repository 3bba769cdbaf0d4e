/*
Package scheduling provides job execution and batch scheduling primitives.

  - workerpool: Fixed worker pool with a shared start-rate limit
  - progress: Sinks that render pool progress reports
  - scheduler: Runs a batch on a cron expression or fixed interval

Worker Pool:

Jobs run in submission order, and no more than the limiter's budget start
per window:

	pool := workerpool.New(100, 25, time.Second)

	pool.Submit(workerpool.JobFunc(func(ctx context.Context) {
		// Do work
	}))

	pool.Wait()     // block until everything submitted so far has run
	pool.Shutdown() // drain, then stop the workers

Progress:

	pool, _ := workerpool.NewSafe(workerpool.Config{
		Workers:      100,
		RateCapacity: 25,
		RateInterval: time.Second,
		Progress:     progress.NewBar(os.Stderr, 40),
	})

Batch Scheduler:

	runner, _ := scheduler.NewRunner(scheduler.Config{Schedule: "0 0/15 * * * *"}, batch)
	runner.Start()
	defer func() { <-runner.Stop() }()

A firing that arrives while the previous batch is still running is skipped.
*/
package scheduling
