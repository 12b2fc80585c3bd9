// Package lock grants exclusive, time-bounded ownership of work items.
//
// A lock is a single key in the coordination store holding the owner's ID.
// Acquisition is one atomic conditional-set; absence of the key means
// unlocked. Locks are never reconciled here — a holder that vanishes simply
// lets the key expire, and the reconciliation sweep in the root package
// demotes the durable item status afterwards.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jcvera13/radiology-worklist/types"
)

// Common errors for lock operations.
var (
	// ErrNotHeld is returned by Extend when no lock exists for the item.
	ErrNotHeld = errors.New("lock not held")

	// ErrInvalidTTL is returned for non-positive lease durations.
	ErrInvalidTTL = errors.New("invalid lock ttl")
)

// Manager issues and releases item locks against a coordination store.
//
// The manager trusts its callers: Release deletes the lock regardless of the
// current holder, because the service layer only calls it on behalf of the
// true holder or on administrative override.
type Manager struct {
	kv     types.CoordinationStore
	prefix string
}

// New creates a lock manager.
//
// Parameters:
//   - kv: Coordination store providing the atomic conditional-set
//   - prefix: Key prefix, e.g. "worklist" produces "worklist:lock:item:<id>"
func New(kv types.CoordinationStore, prefix string) *Manager {
	return &Manager{kv: kv, prefix: prefix}
}

// Acquire attempts to take the lock for an item.
//
// Issues one atomic "set if absent with expiry". Returns true only if this
// call created the lock; false means some holder (possibly the requester)
// already owns it.
//
// Parameters:
//   - ctx: Context for timeout
//   - itemID: Item to lock
//   - holderID: Requesting worker
//   - ttl: Lease duration; the lock silently expires after this
//
// Returns:
//   - bool: true if the lock was acquired by this call
//   - error: ErrInvalidTTL or a store failure
func (m *Manager) Acquire(ctx context.Context, itemID, holderID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	ok, err := m.kv.SetIfAbsent(ctx, m.key(itemID), holderID, ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lock for item %s: %w", itemID, err)
	}

	return ok, nil
}

// Release deletes the lock for an item, regardless of holder. Releasing an
// unlocked item is a no-op.
func (m *Manager) Release(ctx context.Context, itemID string) error {
	if err := m.kv.Delete(ctx, m.key(itemID)); err != nil {
		return fmt.Errorf("release lock for item %s: %w", itemID, err)
	}

	return nil
}

// IsLocked reports whether a live lock exists for the item.
func (m *Manager) IsLocked(ctx context.Context, itemID string) (bool, error) {
	ok, err := m.kv.Exists(ctx, m.key(itemID))
	if err != nil {
		return false, fmt.Errorf("check lock for item %s: %w", itemID, err)
	}

	return ok, nil
}

// Owner returns the current lock holder, or "" when the item is unlocked.
func (m *Manager) Owner(ctx context.Context, itemID string) (string, error) {
	holder, err := m.kv.Get(ctx, m.key(itemID))
	if err != nil {
		if errors.Is(err, types.ErrKeyNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("read lock owner for item %s: %w", itemID, err)
	}

	return holder, nil
}

// Extend adds extra time to a held lock's remaining TTL.
//
// Only succeeds while the lock exists; an expired or released lock yields
// ErrNotHeld rather than resurrecting the key.
func (m *Manager) Extend(ctx context.Context, itemID string, extra time.Duration) error {
	if extra <= 0 {
		return ErrInvalidTTL
	}

	key := m.key(itemID)

	remaining, err := m.kv.TTL(ctx, key)
	if err != nil {
		if errors.Is(err, types.ErrKeyNotFound) {
			return fmt.Errorf("%w: item %s", ErrNotHeld, itemID)
		}

		return fmt.Errorf("extend lock for item %s: %w", itemID, err)
	}

	ok, err := m.kv.Expire(ctx, key, remaining+extra)
	if err != nil {
		return fmt.Errorf("extend lock for item %s: %w", itemID, err)
	}
	if !ok {
		// Expired between the TTL read and the expire call.
		return fmt.Errorf("%w: item %s", ErrNotHeld, itemID)
	}

	return nil
}

// key generates the coordination-store key for an item's lock.
func (m *Manager) key(itemID string) string {
	return fmt.Sprintf("%s:lock:item:%s", m.prefix, itemID)
}
