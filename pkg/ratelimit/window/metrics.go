package window

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/ratepool/pkg/metrics"
)

const limiterType = "window"

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
	lastGen  atomic.Uint64
}

// NewWithMetrics creates a limiter from config and instruments it under name.
// It panics on invalid config, like New.
func NewWithMetrics(config Config, name string, registry *metrics.Registry) Limiter {
	base, err := NewWithConfigSafe(config)
	if err != nil {
		panic("invalid window limiter configuration: " + err.Error())
	}
	return Instrument(base, name, registry)
}

// Instrument wraps an existing limiter. A nil registry returns l unchanged.
func Instrument(l Limiter, name string, registry *metrics.Registry) Limiter {
	if registry == nil {
		return l
	}
	ml := &MetricsLimiter{
		limiter:  l,
		name:     name,
		registry: registry,
	}
	ml.lastGen.Store(l.Generation())
	ml.updateMetrics()
	return ml
}

// updateMetrics refreshes the tokens gauge and folds observed refills into
// the refill counter.
func (ml *MetricsLimiter) updateMetrics() {
	ml.registry.RateLimitTokens.WithLabelValues(limiterType, ml.name).Set(float64(ml.limiter.Tokens()))

	gen := ml.limiter.Generation()
	for {
		last := ml.lastGen.Load()
		if gen <= last {
			return
		}
		if ml.lastGen.CompareAndSwap(last, gen) {
			ml.registry.RateLimitRefills.WithLabelValues(limiterType, ml.name).Add(float64(gen - last))
			return
		}
	}
}

// Wait blocks for a token and records the wait time and outcome.
func (ml *MetricsLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	err := ml.limiter.Wait(ctx)

	ml.registry.RateLimitWaitTime.WithLabelValues(limiterType, ml.name).Observe(time.Since(start).Seconds())
	if err != nil {
		ml.registry.RateLimitDenied.WithLabelValues(limiterType, ml.name).Inc()
	} else {
		ml.registry.RateLimitAllowed.WithLabelValues(limiterType, ml.name).Inc()
	}
	ml.updateMetrics()
	return err
}

// Tokens returns the number of tokens left in the current window.
func (ml *MetricsLimiter) Tokens() int {
	tokens := ml.limiter.Tokens()
	ml.registry.RateLimitTokens.WithLabelValues(limiterType, ml.name).Set(float64(tokens))
	return tokens
}

// Capacity returns the per-window budget.
func (ml *MetricsLimiter) Capacity() int {
	return ml.limiter.Capacity()
}

// Interval returns the refill period.
func (ml *MetricsLimiter) Interval() time.Duration {
	return ml.limiter.Interval()
}

// Generation returns the number of refills performed so far.
func (ml *MetricsLimiter) Generation() uint64 {
	return ml.limiter.Generation()
}

// Close closes the wrapped limiter.
func (ml *MetricsLimiter) Close() error {
	return ml.limiter.Close()
}
