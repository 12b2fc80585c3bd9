package testing

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	kvredis "github.com/jcvera13/radiology-worklist/kv/redis"
)

// StartMiniredis starts an in-process Redis server and returns it together
// with a coordination store connected to it. Both are cleaned up when the
// test completes.
//
// miniredis supports time travel: use mr.FastForward to expire TTL keys
// without sleeping in tests.
//
// Example:
//
//	func TestLocks(t *testing.T) {
//	    mr, kv := wltest.StartMiniredis(t)
//	    // ... acquire a lock with a 5s TTL ...
//	    mr.FastForward(6 * time.Second)
//	    // lock is now expired
//	}
func StartMiniredis(t *testing.T) (*miniredis.Miniredis, *kvredis.Store) {
	t.Helper()

	mr := miniredis.RunT(t)

	store := kvredis.New(kvredis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = store.Close()
	})

	return mr, store
}
