package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	kvmem "github.com/jcvera13/radiology-worklist/kv/memory"
)

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestManager_Acquire(t *testing.T) {
	ctx := t.Context()

	t.Run("first acquire succeeds", func(t *testing.T) {
		mgr := New(kvmem.New(), "worklist")

		ok, err := mgr.Acquire(ctx, "item-1", "worker-a", 30*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		locked, err := mgr.IsLocked(ctx, "item-1")
		require.NoError(t, err)
		require.True(t, locked)

		owner, err := mgr.Owner(ctx, "item-1")
		require.NoError(t, err)
		require.Equal(t, "worker-a", owner)
	})

	t.Run("second holder is refused and owner unchanged", func(t *testing.T) {
		mgr := New(kvmem.New(), "worklist")

		ok, err := mgr.Acquire(ctx, "item-1", "worker-a", 30*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = mgr.Acquire(ctx, "item-1", "worker-b", 30*time.Minute)
		require.NoError(t, err)
		require.False(t, ok)

		owner, err := mgr.Owner(ctx, "item-1")
		require.NoError(t, err)
		require.Equal(t, "worker-a", owner)
	})

	t.Run("same holder re-acquire is refused", func(t *testing.T) {
		mgr := New(kvmem.New(), "worklist")

		ok, err := mgr.Acquire(ctx, "item-1", "worker-a", 30*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = mgr.Acquire(ctx, "item-1", "worker-a", 30*time.Minute)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		mgr := New(kvmem.New(), "worklist")

		_, err := mgr.Acquire(ctx, "item-1", "worker-a", 0)
		require.ErrorIs(t, err, ErrInvalidTTL)
	})

	t.Run("acquire after expiry", func(t *testing.T) {
		clock := newTestClock()
		mgr := New(kvmem.NewWithClock(clock.Now), "worklist")

		ok, err := mgr.Acquire(ctx, "item-1", "worker-a", 30*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		clock.Advance(31 * time.Minute)

		ok, err = mgr.Acquire(ctx, "item-1", "worker-b", 30*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestManager_Release(t *testing.T) {
	ctx := t.Context()
	mgr := New(kvmem.New(), "worklist")

	ok, err := mgr.Acquire(ctx, "item-1", "worker-a", 30*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, mgr.Release(ctx, "item-1"))

	locked, err := mgr.IsLocked(ctx, "item-1")
	require.NoError(t, err)
	require.False(t, locked)

	// Releasing an unlocked item is a no-op, not an error.
	require.NoError(t, mgr.Release(ctx, "item-1"))
}

func TestManager_Owner_Unlocked(t *testing.T) {
	mgr := New(kvmem.New(), "worklist")

	owner, err := mgr.Owner(t.Context(), "item-1")
	require.NoError(t, err)
	require.Empty(t, owner)
}

func TestManager_Extend(t *testing.T) {
	ctx := t.Context()

	t.Run("extends a held lock", func(t *testing.T) {
		clock := newTestClock()
		kv := kvmem.NewWithClock(clock.Now)
		mgr := New(kv, "worklist")

		ok, err := mgr.Acquire(ctx, "item-1", "worker-a", 10*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, mgr.Extend(ctx, "item-1", 10*time.Minute))

		// Past the original lease but inside the extension.
		clock.Advance(15 * time.Minute)

		locked, err := mgr.IsLocked(ctx, "item-1")
		require.NoError(t, err)
		require.True(t, locked)
	})

	t.Run("fails when not held", func(t *testing.T) {
		mgr := New(kvmem.New(), "worklist")

		err := mgr.Extend(ctx, "item-1", time.Minute)
		require.ErrorIs(t, err, ErrNotHeld)
	})

	t.Run("rejects non-positive extension", func(t *testing.T) {
		mgr := New(kvmem.New(), "worklist")

		require.ErrorIs(t, mgr.Extend(ctx, "item-1", 0), ErrInvalidTTL)
	})
}
