package workerpool

import (
	"sync"
	"time"
)

// progressReporter polls the tracker and forwards deltas to a sink. It is
// started by the first Wait and joined by Shutdown. A nil reporter is inert.
type progressReporter struct {
	sink     ProgressSink
	interval time.Duration
	tracker  *completionTracker

	startOnce sync.Once
	stopOnce  sync.Once
	started   chan struct{}
	stopCh    chan struct{}
	done      chan struct{}

	mu        sync.Mutex
	reported  int64
	lastTotal int64
}

func newProgressReporter(sink ProgressSink, interval time.Duration, tracker *completionTracker) *progressReporter {
	return &progressReporter{
		sink:      sink,
		interval:  interval,
		tracker:   tracker,
		started:   make(chan struct{}),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		lastTotal: -1,
	}
}

func (r *progressReporter) start() {
	if r == nil {
		return
	}
	r.startOnce.Do(func() {
		close(r.started)
		go r.run()
	})
}

func (r *progressReporter) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.poll()
		case <-r.stopCh:
			r.poll()
			return
		}
	}
}

// poll reports if anything changed since the previous report.
func (r *progressReporter) poll() {
	if r == nil {
		return
	}
	total, completed := r.tracker.counts()

	r.mu.Lock()
	defer r.mu.Unlock()

	delta := completed - r.reported
	if delta == 0 && total == r.lastTotal {
		return
	}
	r.reported = completed
	r.lastTotal = total
	r.sink.Report(Progress{Completed: completed, Total: total, Delta: delta})
}

// stop joins the polling loop if it was ever started.
func (r *progressReporter) stop() {
	if r == nil {
		return
	}
	select {
	case <-r.started:
	default:
		return
	}
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	<-r.done
}
