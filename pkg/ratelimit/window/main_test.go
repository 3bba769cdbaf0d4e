package window

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in this package.
// Every limiter owns a refill goroutine, so a missing Close shows up here.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
