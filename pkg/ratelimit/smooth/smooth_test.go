package smooth

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/vnykmshr/ratepool/internal/testutil"
	"github.com/vnykmshr/ratepool/pkg/common/errors"
)

func TestNewSafeValidation(t *testing.T) {
	_, err := NewSafe(0, time.Second)
	testutil.AssertTrue(t, errors.IsValidationError(err))

	_, err = NewSafe(10, 0)
	testutil.AssertTrue(t, errors.IsValidationError(err))

	// A spacing that rounds to zero would mean no limit at all.
	_, err = NewSafe(1001, time.Microsecond)
	testutil.AssertTrue(t, errors.IsValidationError(err))

	l, err := NewSafe(1000, time.Microsecond)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, l.Close())

	l, err = NewSafe(10, time.Second)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, l.Capacity(), 10)
	testutil.AssertEqual(t, l.Interval(), time.Second)
}

func TestStartsAreSpaced(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	// 10 per 100ms means one start every 10ms, burst 1.
	l := New(10, 100*time.Millisecond)
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	start := time.Now()
	for i := 0; i < 6; i++ {
		testutil.AssertNoError(t, l.Wait(ctx))
	}
	if elapsed := time.Since(start); elapsed < 45*time.Millisecond {
		t.Fatalf("6 paced starts finished in %v, want >= 50ms", elapsed)
	}
}

func TestClose(t *testing.T) {
	l := New(1, time.Second)
	testutil.AssertNoError(t, l.Close())
	testutil.AssertTrue(t, stderrors.Is(l.Wait(context.Background()), errors.ErrClosed))
}
