/*
Package scheduler runs a batch function on a cron schedule.

A worker pool is single use, so each batch builds its own pool, submits its
jobs and shuts the pool down before returning. The Runner guarantees that
batches never overlap: a batch that is still running when the next one
comes due causes that firing to be skipped and logged.

Basic usage:

	runner, err := scheduler.NewRunner(scheduler.Config{
		Schedule: "0 0/15 * * * *", // every 15 minutes, seconds field first
	}, func(ctx context.Context) error {
		pool := workerpool.New(100, 25, time.Second)
		for _, id := range nextIDs() {
			pool.Submit(fetchJob(id))
		}
		return pool.Shutdown()
	})
	if err != nil {
		log.Fatal(err)
	}

	runner.Start()
	defer func() { <-runner.Stop() }()

Schedules use six fields (seconds first) or a descriptor such as @hourly or
@every 30s. Config.Interval is a shorthand for @every.
*/
package scheduler
