package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/ratepool/internal/testutil"
)

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	testutil.AssertTrue(t, l.IsZero())
	// Must not panic.
	l.Info("ignored", String("k", "v"))
	l.With(Int("n", 1)).Error("ignored")
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Out: &buf}).With(String("component", "pool"))

	l.Debug("drained", Int64("completed", 42), Duration("elapsed", time.Second), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	testutil.AssertEqual(t, rec["message"], any("drained"))
	testutil.AssertEqual(t, rec["component"], any("pool"))
	testutil.AssertEqual(t, rec["completed"], any(float64(42)))
	testutil.AssertEqual(t, rec["err"], any("boom"))
	testutil.AssertEqual(t, rec["level"], any("debug"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Out: &buf})

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	testutil.AssertTrue(t, !strings.Contains(out, "hidden"))
	testutil.AssertTrue(t, strings.Contains(out, "shown"))
	testutil.AssertTrue(t, !l.Enabled(LevelDebug))
	testutil.AssertTrue(t, l.Enabled(LevelError))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARN ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			testutil.AssertEqual(t, ParseLevel(tt.in, LevelInfo), tt.want)
		})
	}

	testutil.AssertTrue(t, ValidLevel(""))
	testutil.AssertTrue(t, !ValidLevel("loud"))
}
