// Package progress provides sinks for workerpool progress reports.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vnykmshr/ratepool/pkg/logx"
	"github.com/vnykmshr/ratepool/pkg/scheduling/workerpool"
)

// LogSink writes each report as a structured log line.
type LogSink struct {
	Log logx.Logger
}

// Report implements workerpool.ProgressSink.
func (s LogSink) Report(p workerpool.Progress) {
	s.Log.Info("progress",
		logx.Int64("completed", p.Completed),
		logx.Int64("total", p.Total),
		logx.Int64("delta", p.Delta),
		logx.Bool("done", p.Done()),
	)
}

const defaultBarWidth = 30

// BarSink redraws a single-line progress bar on every report.
type BarSink struct {
	out   io.Writer
	width int
	now   func() time.Time

	mu    sync.Mutex
	start time.Time
}

// NewBar creates a BarSink writing to out. A width of zero or less uses 30
// cells.
func NewBar(out io.Writer, width int) *BarSink {
	if width <= 0 {
		width = defaultBarWidth
	}
	return &BarSink{out: out, width: width, now: time.Now}
}

// Report implements workerpool.ProgressSink.
func (b *BarSink) Report(p workerpool.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.start.IsZero() {
		b.start = now
	}

	line := b.render(p, now.Sub(b.start))
	if p.Done() {
		line += "\n"
	}
	fmt.Fprint(b.out, line)
}

func (b *BarSink) render(p workerpool.Progress, elapsed time.Duration) string {
	frac := 1.0
	if p.Total > 0 {
		frac = float64(p.Completed) / float64(p.Total)
	}
	filled := int(frac * float64(b.width))

	var sb strings.Builder
	sb.WriteString("\r[")
	sb.WriteString(strings.Repeat("#", filled))
	sb.WriteString(strings.Repeat("-", b.width-filled))
	sb.WriteString("] ")
	sb.WriteString(humanize.Comma(p.Completed))
	sb.WriteString("/")
	sb.WriteString(humanize.Comma(p.Total))
	fmt.Fprintf(&sb, " %3.0f%%", frac*100)

	if elapsed > 0 && p.Completed > 0 {
		rate := float64(p.Completed) / elapsed.Seconds()
		fmt.Fprintf(&sb, " %s/s", humanize.FormatFloat("#,###.#", rate))
		if remaining := p.Total - p.Completed; remaining > 0 {
			eta := time.Duration(float64(remaining) / rate * float64(time.Second))
			fmt.Fprintf(&sb, " eta %s", eta.Round(time.Second))
		}
	}
	return sb.String()
}

// Multi fans every report out to each sink in order.
func Multi(sinks ...workerpool.ProgressSink) workerpool.ProgressSink {
	var live []workerpool.ProgressSink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return multi(live)
}

type multi []workerpool.ProgressSink

func (m multi) Report(p workerpool.Progress) {
	for _, s := range m {
		s.Report(p)
	}
}
