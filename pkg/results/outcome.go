package results

import (
	"sync"
	"time"
)

// Status tells whether a job produced a value.
type Status int

const (
	// OK means the job produced a value.
	OK Status = iota
	// Failed means the job produced no value; Err says why.
	Failed
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one job, keyed by whatever identifies the job.
type Outcome[T any] struct {
	Key      string
	Value    T
	Status   Status
	Err      error
	Duration time.Duration
}

// Succeed builds an OK outcome.
func Succeed[T any](key string, value T) Outcome[T] {
	return Outcome[T]{Key: key, Value: value, Status: OK}
}

// Fail builds a Failed outcome.
func Fail[T any](key string, err error) Outcome[T] {
	return Outcome[T]{Key: key, Status: Failed, Err: err}
}

// Collector is a goroutine-safe, append-only list of outcomes.
type Collector[T any] struct {
	mu       sync.Mutex
	outcomes []Outcome[T]
}

// NewCollector creates an empty collector.
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{}
}

// Add records an outcome.
func (c *Collector[T]) Add(o Outcome[T]) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, o)
	c.mu.Unlock()
}

// Collect adds every outcome received from ch until it is closed.
func (c *Collector[T]) Collect(ch <-chan Outcome[T]) {
	for o := range ch {
		c.Add(o)
	}
}

// Len returns the number of recorded outcomes.
func (c *Collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

// Snapshot returns a copy of every outcome in the order they were added.
func (c *Collector[T]) Snapshot() []Outcome[T] {
	return c.filter(func(Outcome[T]) bool { return true })
}

// OK returns the successful outcomes.
func (c *Collector[T]) OK() []Outcome[T] {
	return c.filter(func(o Outcome[T]) bool { return o.Status == OK })
}

// Failed returns the failed outcomes.
func (c *Collector[T]) Failed() []Outcome[T] {
	return c.filter(func(o Outcome[T]) bool { return o.Status == Failed })
}

func (c *Collector[T]) filter(keep func(Outcome[T]) bool) []Outcome[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Outcome[T], 0, len(c.outcomes))
	for _, o := range c.outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// Values extracts the values of outcomes, in order.
func Values[T any](outcomes []Outcome[T]) []T {
	values := make([]T, len(outcomes))
	for i, o := range outcomes {
		values[i] = o.Value
	}
	return values
}
