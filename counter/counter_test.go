package counter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	kvmem "github.com/jcvera13/radiology-worklist/kv/memory"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newCounter() (*testClock, *Counter) {
	return newCounterWithPeriodEnd(0)
}

func newCounterWithPeriodEnd(periodEnd int) (*testClock, *Counter) {
	clock := &testClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	kv := kvmem.NewWithClock(clock.Now)

	return clock, NewWithClock(kv, "worklist", periodEnd, clock.Now)
}

func TestCounter_GetDefaultsToZero(t *testing.T) {
	_, counter := newCounter()

	load, err := counter.Get(t.Context(), "worker-1")
	require.NoError(t, err)
	require.Zero(t, load)
}

func TestCounter_Increment(t *testing.T) {
	ctx := t.Context()
	_, counter := newCounter()

	load, err := counter.Increment(ctx, "worker-1", 0.78)
	require.NoError(t, err)
	require.InDelta(t, 0.78, load, 1e-9)

	load, err = counter.Increment(ctx, "worker-1", 2.15)
	require.NoError(t, err)
	require.InDelta(t, 2.93, load, 1e-9)

	load, err = counter.Get(ctx, "worker-1")
	require.NoError(t, err)
	require.InDelta(t, 2.93, load, 1e-9)
}

func TestCounter_ExpiresAtEndOfPeriod(t *testing.T) {
	ctx := t.Context()
	clock, counter := newCounter()

	_, err := counter.Increment(ctx, "worker-1", 5)
	require.NoError(t, err)

	// Still inside the same day.
	clock.Advance(15 * time.Hour)

	load, err := counter.Get(ctx, "worker-1")
	require.NoError(t, err)
	require.InDelta(t, 5, load, 1e-9)

	// Past midnight the counter resets on its own.
	clock.Advance(2 * time.Hour)

	load, err = counter.Get(ctx, "worker-1")
	require.NoError(t, err)
	require.Zero(t, load)
}

func TestCounter_CustomPeriodEnd(t *testing.T) {
	ctx := t.Context()

	// Shift change at 18:00; the clock starts at 08:00.
	clock, counter := newCounterWithPeriodEnd(18)

	_, err := counter.Increment(ctx, "worker-1", 5)
	require.NoError(t, err)

	clock.Advance(9 * time.Hour) // 17:00

	load, err := counter.Get(ctx, "worker-1")
	require.NoError(t, err)
	require.InDelta(t, 5, load, 1e-9)

	clock.Advance(2 * time.Hour) // 19:00, past the shift change

	load, err = counter.Get(ctx, "worker-1")
	require.NoError(t, err)
	require.Zero(t, load)

	// A counter written after the shift change rolls to tomorrow's 18:00.
	_, err = counter.Increment(ctx, "worker-1", 2)
	require.NoError(t, err)

	clock.Advance(22 * time.Hour) // next day 17:00

	load, err = counter.Get(ctx, "worker-1")
	require.NoError(t, err)
	require.InDelta(t, 2, load, 1e-9)
}

func TestCounter_Set(t *testing.T) {
	ctx := t.Context()
	_, counter := newCounter()

	_, err := counter.Increment(ctx, "worker-1", 9.5)
	require.NoError(t, err)

	// Reconciliation overwrites the drifted mirror from durable state.
	require.NoError(t, counter.Set(ctx, "worker-1", 4.25))

	load, err := counter.Get(ctx, "worker-1")
	require.NoError(t, err)
	require.InDelta(t, 4.25, load, 1e-9)
}

func TestCounter_Reset(t *testing.T) {
	ctx := t.Context()
	_, counter := newCounter()

	_, err := counter.Increment(ctx, "worker-1", 3)
	require.NoError(t, err)

	require.NoError(t, counter.Reset(ctx, "worker-1"))

	load, err := counter.Get(ctx, "worker-1")
	require.NoError(t, err)
	require.Zero(t, load)
}
