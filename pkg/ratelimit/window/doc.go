/*
Package window provides a fixed-window rate limiter with a hard reset.

A Limiter holds a budget of Capacity tokens. A background loop fires every
Interval and resets the budget to Capacity, waking every blocked caller at
once. Wait blocks until the budget is positive and then takes one token.

Basic usage:

	limiter := window.New(25, time.Second) // 25 starts per second
	defer limiter.Close()

	for _, req := range requests {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		go send(req)
	}

Behaviour:

The limiter bounds starts per refill window. It is not a smoothing algorithm:

  - The first window starts full.
  - Up to Capacity callers may proceed back to back right after a refill.
  - Because the reset is aligned to the refill loop rather than to the caller,
    up to 2*Capacity starts may fall inside a span shorter than Interval that
    straddles a reset.
  - Unused tokens do not carry over; a refill sets the budget, it never adds.
  - After a refill, which blocked caller wins a token is unspecified.

This is intended for coarse API quota compliance. For evenly spaced starts use
package smooth, which exposes the same Wait contract.

Waiting never busy-polls: callers block on a channel that the refill loop
closes, so Wait is also cancellable through its context.

Lifecycle:

The refill loop is started by the constructor and owned by the limiter. Close
stops it, joins it, and releases every waiter with errors.ErrClosed.
*/
package window
