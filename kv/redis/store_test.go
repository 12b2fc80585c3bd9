package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jcvera13/radiology-worklist/types"
)

// newTestStore starts an in-process Redis server and returns a connected
// store. Server and client are cleaned up with the test.
func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewWithClient(client)
	t.Cleanup(func() {
		_ = store.Close()
	})

	return mr, store
}

func TestStore_SetIfAbsent(t *testing.T) {
	ctx := t.Context()
	mr, store := newTestStore(t)

	t.Run("creates absent key with ttl", func(t *testing.T) {
		ok, err := store.SetIfAbsent(ctx, "lock:item:a", "worker-1", 30*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		value, err := store.Get(ctx, "lock:item:a")
		require.NoError(t, err)
		require.Equal(t, "worker-1", value)

		ttl, err := store.TTL(ctx, "lock:item:a")
		require.NoError(t, err)
		require.Equal(t, 30*time.Minute, ttl)
	})

	t.Run("refuses existing key", func(t *testing.T) {
		ok, err := store.SetIfAbsent(ctx, "lock:item:a", "worker-2", 30*time.Minute)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("succeeds after expiry", func(t *testing.T) {
		mr.FastForward(31 * time.Minute)

		ok, err := store.SetIfAbsent(ctx, "lock:item:a", "worker-2", 30*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestStore_GetMissing(t *testing.T) {
	_, store := newTestStore(t)

	_, err := store.Get(t.Context(), "nope")
	require.ErrorIs(t, err, types.ErrKeyNotFound)
}

func TestStore_IncrByFloat(t *testing.T) {
	ctx := t.Context()
	mr, store := newTestStore(t)

	value, err := store.IncrByFloat(ctx, "load:shift:w1", 0.78)
	require.NoError(t, err)
	require.InDelta(t, 0.78, value, 1e-9)

	value, err = store.IncrByFloat(ctx, "load:shift:w1", 2.15)
	require.NoError(t, err)
	require.InDelta(t, 2.93, value, 1e-9)

	t.Run("expiry set after increment", func(t *testing.T) {
		ok, err := store.Expire(ctx, "load:shift:w1", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)

		mr.FastForward(2 * time.Hour)

		_, err = store.Get(ctx, "load:shift:w1")
		require.ErrorIs(t, err, types.ErrKeyNotFound)
	})
}

func TestStore_ExpireMissingKey(t *testing.T) {
	_, store := newTestStore(t)

	ok, err := store.Expire(t.Context(), "nope", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_TTL(t *testing.T) {
	ctx := t.Context()
	_, store := newTestStore(t)

	t.Run("missing key", func(t *testing.T) {
		_, err := store.TTL(ctx, "nope")
		require.ErrorIs(t, err, types.ErrKeyNotFound)
	})

	t.Run("key without expiry", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "forever", "v", 0))

		ttl, err := store.TTL(ctx, "forever")
		require.NoError(t, err)
		require.Zero(t, ttl)
	})
}

func TestStore_Keys(t *testing.T) {
	ctx := t.Context()
	_, store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "presence:w1", "online", time.Minute))
	require.NoError(t, store.Set(ctx, "presence:w2", "online", time.Minute))
	require.NoError(t, store.Set(ctx, "lock:item:a", "w1", time.Minute))

	keys, err := store.Keys(ctx, "presence:*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"presence:w1", "presence:w2"}, keys)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	ctx := t.Context()
	_, store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	ok, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_Ping(t *testing.T) {
	mr, store := newTestStore(t)

	require.NoError(t, store.Ping(t.Context()))

	mr.Close()
	require.ErrorIs(t, store.Ping(t.Context()), types.ErrStoreUnavailable)
}
