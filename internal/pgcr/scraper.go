package pgcr

import (
	"context"
	"fmt"

	"github.com/vnykmshr/ratepool/pkg/logx"
	"github.com/vnykmshr/ratepool/pkg/metrics"
	"github.com/vnykmshr/ratepool/pkg/results"
	"github.com/vnykmshr/ratepool/pkg/scheduling/workerpool"
)

// Range is a contiguous block of activity instance ids.
type Range struct {
	Start int64
	Count int64
}

// Scraper runs one pool per batch over a range of instance ids.
type Scraper struct {
	Fetcher  Fetcher
	Manifest *Manifest
	Filter   string

	// Pool is copied for every batch. Progress and Limiter are honored.
	Pool workerpool.Config

	// Metrics instruments each batch's pool under the name "pgcr" when set.
	Metrics *metrics.Registry

	Log logx.Logger
}

// Scrape fetches every id in r and returns the collector once the pool has
// drained and stopped. Canceling ctx stops submitting new ids; jobs already
// queued still run.
func (s *Scraper) Scrape(ctx context.Context, r Range) (*results.Collector[results.Row], error) {
	collector := results.NewCollector[results.Row]()

	config := s.Pool
	config.Logger = s.Log
	pool, err := newPool(config, s.Metrics)
	if err != nil {
		return nil, err
	}

	s.Log.Info("batch submitting",
		logx.Int64("start", r.Start),
		logx.Int64("count", r.Count),
		logx.String("filter", s.Filter),
	)

	var submitErr error
	for id := r.Start; id < r.Start+r.Count; id++ {
		if ctx.Err() != nil {
			submitErr = ctx.Err()
			break
		}
		task := Task{
			InstanceID: id,
			Filter:     s.Filter,
			Fetcher:    s.Fetcher,
			Manifest:   s.Manifest,
			Results:    collector,
			Log:        s.Log,
		}
		if err := pool.Submit(task); err != nil {
			submitErr = err
			break
		}
	}

	if err := pool.Shutdown(); err != nil {
		return collector, err
	}

	s.Log.Info("batch drained",
		logx.Int("kept", len(collector.OK())),
		logx.Int("failed", len(collector.Failed())),
	)
	if submitErr != nil {
		return collector, fmt.Errorf("batch interrupted: %w", submitErr)
	}
	return collector, nil
}

func newPool(config workerpool.Config, registry *metrics.Registry) (workerpool.Pool, error) {
	if registry == nil {
		return workerpool.NewSafe(config)
	}
	return workerpool.NewWithMetricsSafe(config, "pgcr", registry)
}
