// Package smooth provides a paced limiter with the same Wait contract as
// package window, backed by golang.org/x/time/rate.
//
// Where window lets a full budget start back to back at the top of each
// interval, smooth spaces starts evenly: capacity per interval becomes one
// start every interval/capacity, with a burst of one.
package smooth

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vnykmshr/ratepool/pkg/common/errors"
	"github.com/vnykmshr/ratepool/pkg/common/validation"
)

// Limiter paces events to an average of Capacity per Interval.
type Limiter struct {
	limiter  *rate.Limiter
	capacity int
	interval time.Duration
	closed   atomic.Bool
}

// New creates a paced limiter. It panics on non-positive arguments.
func New(capacity int, interval time.Duration) *Limiter {
	l, err := NewSafe(capacity, interval)
	if err != nil {
		panic(err.Error())
	}
	return l
}

// NewSafe creates a paced limiter with validation that returns an error instead of panicking.
func NewSafe(capacity int, interval time.Duration) (*Limiter, error) {
	if err := validation.ValidatePositive("smooth", "capacity", capacity); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("smooth", "interval", interval); err != nil {
		return nil, err
	}

	every := interval / time.Duration(capacity)
	if every <= 0 {
		return nil, errors.NewValidationError("smooth", "capacity", capacity, "exceeds one start per nanosecond of interval").
			WithHint("lower capacity or lengthen interval")
	}
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Every(every), 1),
		capacity: capacity,
		interval: interval,
	}, nil
}

// Wait blocks until the next start is permitted.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.closed.Load() {
		return errors.ErrClosed
	}
	return l.limiter.Wait(ctx)
}

// Capacity returns the average number of starts per interval.
func (l *Limiter) Capacity() int { return l.capacity }

// Interval returns the averaging period.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Close makes later Wait calls fail with errors.ErrClosed. There is no
// background goroutine to stop.
func (l *Limiter) Close() error {
	l.closed.Store(true)
	return nil
}
