package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jcvera13/radiology-worklist/types"
)

// testClock is a manually advanced clock for TTL tests.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestStore_SetIfAbsent(t *testing.T) {
	ctx := t.Context()
	clock := newTestClock()
	store := NewWithClock(clock.Now)

	t.Run("creates absent key", func(t *testing.T) {
		ok, err := store.SetIfAbsent(ctx, "lock:a", "holder-1", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		value, err := store.Get(ctx, "lock:a")
		require.NoError(t, err)
		require.Equal(t, "holder-1", value)
	})

	t.Run("refuses existing key", func(t *testing.T) {
		ok, err := store.SetIfAbsent(ctx, "lock:a", "holder-2", time.Minute)
		require.NoError(t, err)
		require.False(t, ok)

		value, err := store.Get(ctx, "lock:a")
		require.NoError(t, err)
		require.Equal(t, "holder-1", value)
	})

	t.Run("succeeds after expiry", func(t *testing.T) {
		clock.Advance(2 * time.Minute)

		ok, err := store.SetIfAbsent(ctx, "lock:a", "holder-2", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestStore_GetMissing(t *testing.T) {
	store := New()

	_, err := store.Get(t.Context(), "nope")
	require.ErrorIs(t, err, types.ErrKeyNotFound)
}

func TestStore_IncrByFloat(t *testing.T) {
	ctx := t.Context()
	clock := newTestClock()
	store := NewWithClock(clock.Now)

	value, err := store.IncrByFloat(ctx, "load:w1", 1.5)
	require.NoError(t, err)
	require.InDelta(t, 1.5, value, 1e-9)

	value, err = store.IncrByFloat(ctx, "load:w1", 2.25)
	require.NoError(t, err)
	require.InDelta(t, 3.75, value, 1e-9)

	t.Run("preserves expiry across increments", func(t *testing.T) {
		ok, err := store.Expire(ctx, "load:w1", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = store.IncrByFloat(ctx, "load:w1", 1)
		require.NoError(t, err)

		ttl, err := store.TTL(ctx, "load:w1")
		require.NoError(t, err)
		require.Equal(t, time.Hour, ttl)
	})

	t.Run("rejects non-numeric value", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "text", "abc", 0))

		_, err := store.IncrByFloat(ctx, "text", 1)
		require.Error(t, err)
	})
}

func TestStore_Expiry(t *testing.T) {
	ctx := t.Context()
	clock := newTestClock()
	store := NewWithClock(clock.Now)

	require.NoError(t, store.Set(ctx, "presence:w1", "online", 5*time.Minute))

	ok, err := store.Exists(ctx, "presence:w1")
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(5 * time.Minute)

	ok, err = store.Exists(ctx, "presence:w1")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = store.TTL(ctx, "presence:w1")
	require.ErrorIs(t, err, types.ErrKeyNotFound)
}

func TestStore_TTLWithoutExpiry(t *testing.T) {
	ctx := t.Context()
	store := New()

	require.NoError(t, store.Set(ctx, "forever", "v", 0))

	ttl, err := store.TTL(ctx, "forever")
	require.NoError(t, err)
	require.Zero(t, ttl)
}

func TestStore_Keys(t *testing.T) {
	ctx := t.Context()
	clock := newTestClock()
	store := NewWithClock(clock.Now)

	require.NoError(t, store.Set(ctx, "presence:w1", "online", time.Minute))
	require.NoError(t, store.Set(ctx, "presence:w2", "online", time.Minute))
	require.NoError(t, store.Set(ctx, "lock:item:a", "w1", time.Minute))

	keys, err := store.Keys(ctx, "presence:*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"presence:w1", "presence:w2"}, keys)

	clock.Advance(2 * time.Minute)

	keys, err = store.Keys(ctx, "presence:*")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestStore_Delete(t *testing.T) {
	ctx := t.Context()
	store := New()

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k")) // absent delete is a no-op

	ok, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
