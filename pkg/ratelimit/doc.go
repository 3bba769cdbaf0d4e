/*
Package ratelimit groups the limiters that pace job starts.

Both limiters satisfy workerpool.Limiter with a blocking, context-aware Wait:

  - window: at most Capacity starts per Interval, budget reset in one step
  - smooth: an average of Capacity per Interval, one start at a time

Window vs Smooth:

The window limiter lets a full budget go out back to back when each window
opens, which matches APIs that count requests per fixed window:

	limiter := window.New(25, time.Second)
	defer limiter.Close()

The smooth limiter spaces the same budget evenly, one start every
Interval/Capacity, for APIs that punish bursts:

	limiter := smooth.New(25, time.Second) // one start every 40ms
	defer limiter.Close()

Both are safe for concurrent use and return ctx.Err() when the context ends
before a token is available.
*/
package ratelimit
