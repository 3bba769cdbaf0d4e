package testutil

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// ManualTicker is a hand-driven replacement for time.Ticker. Tests pass C()
// to a component that accepts a tick channel and call Tick to fire it.
type ManualTicker struct {
	ch chan time.Time
}

// NewManualTicker creates a ticker whose channel is unbuffered, so Tick
// returns only after the consumer has received the tick.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time)}
}

// C returns the tick channel.
func (m *ManualTicker) C() <-chan time.Time {
	return m.ch
}

// Tick delivers one tick and blocks until it is received.
func (m *ManualTicker) Tick() {
	m.ch <- time.Now()
}

// MockWriter is a test writer that can simulate write failures.
type MockWriter struct {
	buf        bytes.Buffer
	mu         sync.Mutex
	writeCount int
	errorOnNth int
	err        error
}

// NewMockWriter creates a new MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements io.Writer interface with configurable behavior.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writeCount++

	if mw.err != nil {
		return 0, mw.err
	}
	if mw.errorOnNth > 0 && mw.writeCount == mw.errorOnNth {
		return 0, errors.New("simulated error")
	}

	return mw.buf.Write(p)
}

// String returns the current buffer contents.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.String()
}

// WriteCount returns the number of Write calls.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.writeCount
}

// SetErrorOnNth configures the writer to error on the nth write.
func (mw *MockWriter) SetErrorOnNth(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.errorOnNth = n
}

// SetAlwaysError configures the writer to always return the given error.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.err = err
}
