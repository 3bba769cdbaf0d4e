package pgcr

import (
	"context"
	"strconv"
	"time"

	"github.com/vnykmshr/ratepool/pkg/logx"
	"github.com/vnykmshr/ratepool/pkg/results"
)

// Fetcher is the part of Client a Task needs.
type Fetcher interface {
	PostGameCarnageReport(ctx context.Context, instanceID int64) (*Report, error)
}

// Task fetches one report and records its flattened row. It is a value
// type; everything it shares with other tasks is behind a pointer or an
// interface and safe for concurrent use.
type Task struct {
	InstanceID int64

	// Filter keeps only reports whose activity name matches. Empty keeps all.
	Filter string

	Fetcher  Fetcher
	Manifest *Manifest
	Results  *results.Collector[results.Row]
	Log      logx.Logger
}

// Run implements workerpool.Job. Fetch errors are recorded as Failed
// outcomes; reports rejected by Filter are not recorded.
func (t Task) Run(ctx context.Context) {
	key := strconv.FormatInt(t.InstanceID, 10)
	start := time.Now()

	report, err := t.Fetcher.PostGameCarnageReport(ctx, t.InstanceID)
	if err != nil {
		t.Log.Debug("fetch failed", logx.String("instance_id", key), logx.Err(err))
		o := results.Fail[results.Row](key, err)
		o.Duration = time.Since(start)
		t.Results.Add(o)
		return
	}

	name, ok := t.Manifest.ActivityName(report.ActivityDetails.DirectorActivityHash)
	if !ok {
		t.Log.Debug("activity not in manifest",
			logx.String("instance_id", key),
			logx.Any("hash", report.ActivityDetails.DirectorActivityHash),
		)
	}
	if t.Filter != "" && name != t.Filter {
		return
	}

	o := results.Succeed(key, report.Flatten(t.InstanceID, name))
	o.Duration = time.Since(start)
	t.Results.Add(o)
}
