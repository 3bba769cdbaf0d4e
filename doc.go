/*
Package ratepool runs large batches of independent jobs on a fixed set of
workers while capping how many jobs may start per time window.

Rate Limiting (pkg/ratelimit):
  - window: Fixed-window limiter that resets its budget every interval
  - smooth: Paced limiter spreading the same budget evenly

Task Scheduling (pkg/scheduling):
  - workerpool: Rate-limited FIFO worker pool with drain and shutdown
  - progress: Progress sinks (log lines, terminal bar)
  - scheduler: Cron and interval batch runner

Results (pkg/results):
  - Outcome collection and CSV, SQLite or Redis sinks

The pgcr-scrape command (cmd/pgcr-scrape) uses all of the above to fetch
Destiny 2 post-game carnage reports for a range of activity ids.

Example usage:

	import "github.com/vnykmshr/ratepool/pkg/scheduling/workerpool"

	pool := workerpool.New(100, 25, time.Second) // 100 workers, 25 starts/s
	for _, id := range ids {
		pool.Submit(fetch(id))
	}
	pool.Wait()
	pool.Shutdown()
*/
package ratepool
