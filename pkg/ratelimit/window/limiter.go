package window

import (
	"context"
	"sync"
	"time"

	"github.com/vnykmshr/ratepool/pkg/common/validation"
)

// Limiter caps the number of events that may start within each fixed
// refill window. Every Interval the budget is reset to Capacity; it is a
// hard reset, not an additive refill.
type Limiter interface {
	// Wait blocks until a token is available and consumes it. It returns
	// ctx.Err() if the context is done first, or errors.ErrClosed once the
	// limiter has been closed.
	Wait(ctx context.Context) error

	// Tokens returns the number of tokens left in the current window.
	Tokens() int

	// Capacity returns the per-window token budget.
	Capacity() int

	// Interval returns the refill period.
	Interval() time.Duration

	// Generation returns the number of refills performed so far.
	Generation() uint64

	// Close stops the refill loop and releases all waiters. It is safe to
	// call more than once.
	Close() error
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Capacity is the maximum number of tokens handed out per window.
	Capacity int

	// Interval is the refill period.
	Interval time.Duration

	// Tick, if non-nil, replaces the internal ticker. Each value received
	// triggers one refill. Intended for deterministic tests.
	Tick <-chan time.Time
}

// DefaultConfig returns 25 starts per second.
func DefaultConfig() Config {
	return Config{
		Capacity: 25,
		Interval: time.Second,
	}
}

// windowLimiter implements Limiter with a mutex-guarded budget and a
// broadcast channel that is closed and replaced on every refill.
type windowLimiter struct {
	mu         sync.Mutex
	capacity   int
	interval   time.Duration
	tokens     int
	generation uint64
	refilled   chan struct{}
	closed     bool

	tick      <-chan time.Time
	ticker    *time.Ticker
	stopCh    chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// New creates a limiter allowing capacity starts per interval.
// It panics on non-positive arguments; use NewSafe to get an error instead.
func New(capacity int, interval time.Duration) Limiter {
	l, err := NewSafe(capacity, interval)
	if err != nil {
		panic(err.Error())
	}
	return l
}

// NewSafe creates a limiter with validation that returns an error instead of panicking.
func NewSafe(capacity int, interval time.Duration) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Capacity: capacity,
		Interval: interval,
	})
}

// NewWithConfigSafe creates a limiter from config. The refill loop starts
// immediately and runs until Close. The first window starts full.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if err := validation.ValidatePositive("window", "capacity", config.Capacity); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("window", "interval", config.Interval); err != nil {
		return nil, err
	}

	wl := &windowLimiter{
		capacity: config.Capacity,
		interval: config.Interval,
		tokens:   config.Capacity,
		refilled: make(chan struct{}),
		tick:     config.Tick,
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	if wl.tick == nil {
		wl.ticker = time.NewTicker(config.Interval)
		wl.tick = wl.ticker.C
	}

	go wl.run()
	return wl, nil
}
