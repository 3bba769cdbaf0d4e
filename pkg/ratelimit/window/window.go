package window

import (
	"context"
	"time"

	"github.com/vnykmshr/ratepool/pkg/common/errors"
)

// Wait blocks until a token is available in the current window.
func (wl *windowLimiter) Wait(ctx context.Context) error {
	_, err := wl.acquire(ctx)
	return err
}

// acquire takes one token and reports the generation it was taken from.
func (wl *windowLimiter) acquire(ctx context.Context) (uint64, error) {
	for {
		wl.mu.Lock()
		if wl.closed {
			wl.mu.Unlock()
			return 0, errors.ErrClosed
		}
		if wl.tokens > 0 {
			wl.tokens--
			gen := wl.generation
			wl.mu.Unlock()
			return gen, nil
		}
		refilled := wl.refilled
		wl.mu.Unlock()

		select {
		case <-refilled:
			// Re-check: other waiters may have drained the new window.
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Tokens returns the number of tokens left in the current window.
func (wl *windowLimiter) Tokens() int {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	return wl.tokens
}

// Capacity returns the per-window budget.
func (wl *windowLimiter) Capacity() int {
	return wl.capacity
}

// Interval returns the refill period.
func (wl *windowLimiter) Interval() time.Duration {
	return wl.interval
}

// Generation returns the number of refills performed so far.
func (wl *windowLimiter) Generation() uint64 {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	return wl.generation
}

// Close stops the refill loop, waits for it to exit and wakes all waiters.
func (wl *windowLimiter) Close() error {
	wl.closeOnce.Do(func() {
		wl.mu.Lock()
		wl.closed = true
		close(wl.refilled)
		wl.mu.Unlock()

		close(wl.stopCh)
		<-wl.loopDone
		if wl.ticker != nil {
			wl.ticker.Stop()
		}
	})
	return nil
}

// run is the refill loop.
func (wl *windowLimiter) run() {
	defer close(wl.loopDone)

	for {
		select {
		case <-wl.stopCh:
			return
		case <-wl.tick:
			wl.refill()
		}
	}
}

// refill resets the budget to capacity and wakes every waiter.
func (wl *windowLimiter) refill() {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	if wl.closed {
		return
	}
	wl.tokens = wl.capacity
	wl.generation++
	close(wl.refilled)
	wl.refilled = make(chan struct{})
}
