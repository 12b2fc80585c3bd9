// Package presence tracks which workers are currently online.
//
// Presence is a short-TTL key per worker in the coordination store; a worker
// that stops refreshing its key simply drops off the active set when the TTL
// lapses. Nothing here is durable and nothing is swept.
package presence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcvera13/radiology-worklist/types"
)

const onlineValue = "online"

// Tracker reads and writes worker presence keys.
type Tracker struct {
	kv     types.CoordinationStore
	prefix string
	ttl    time.Duration
}

// New creates a presence tracker.
//
// Parameters:
//   - kv: Coordination store
//   - prefix: Key prefix, e.g. "worklist" produces "worklist:presence:<id>"
//   - ttl: Presence lease; a worker is offline once its key expires
func New(kv types.CoordinationStore, prefix string, ttl time.Duration) *Tracker {
	return &Tracker{kv: kv, prefix: prefix, ttl: ttl}
}

// Online marks a worker present, refreshing its lease.
func (t *Tracker) Online(ctx context.Context, workerID string) error {
	if err := t.kv.Set(ctx, t.key(workerID), onlineValue, t.ttl); err != nil {
		return fmt.Errorf("set presence for %s: %w", workerID, err)
	}

	return nil
}

// Offline removes a worker's presence key immediately instead of waiting for
// the TTL to lapse.
func (t *Tracker) Offline(ctx context.Context, workerID string) error {
	if err := t.kv.Delete(ctx, t.key(workerID)); err != nil {
		return fmt.Errorf("clear presence for %s: %w", workerID, err)
	}

	return nil
}

// IsOnline reports whether a worker has a live presence key.
func (t *Tracker) IsOnline(ctx context.Context, workerID string) (bool, error) {
	ok, err := t.kv.Exists(ctx, t.key(workerID))
	if err != nil {
		return false, fmt.Errorf("check presence for %s: %w", workerID, err)
	}

	return ok, nil
}

// ActiveWorkers returns the IDs of all workers with a live presence key.
func (t *Tracker) ActiveWorkers(ctx context.Context) ([]string, error) {
	prefix := t.key("")

	keys, err := t.kv.Keys(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("list presence keys: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, prefix))
	}

	return ids, nil
}

func (t *Tracker) key(workerID string) string {
	return fmt.Sprintf("%s:presence:%s", t.prefix, workerID)
}
