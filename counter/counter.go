// Package counter mirrors per-worker shift load in the coordination store.
//
// The mirror exists so read-heavy dashboards can poll load without touching
// the durable worker registry. It is a cache: the assignment engine decides
// against the durable value, and the reconciliation sweep overwrites the
// mirror from durable state on divergence. Keys expire at the end of the
// current period so counters reset daily on their own.
package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jcvera13/radiology-worklist/types"
)

// Counter tracks mirrored shift load for workers.
type Counter struct {
	kv        types.CoordinationStore
	prefix    string
	periodEnd int
	now       func() time.Time
}

// New creates a counter using the wall clock.
//
// Parameters:
//   - kv: Coordination store
//   - prefix: Key prefix, e.g. "worklist" produces "worklist:load:shift:<id>"
//   - periodEnd: Hour of day (0-23) at which counters expire; 0 is midnight
func New(kv types.CoordinationStore, prefix string, periodEnd int) *Counter {
	return NewWithClock(kv, prefix, periodEnd, time.Now)
}

// NewWithClock creates a counter with an injectable clock, used by tests to
// control the end-of-period expiry calculation.
func NewWithClock(kv types.CoordinationStore, prefix string, periodEnd int, now func() time.Time) *Counter {
	return &Counter{kv: kv, prefix: prefix, periodEnd: periodEnd, now: now}
}

// Get returns the mirrored load for a worker, or zero when no counter exists.
func (c *Counter) Get(ctx context.Context, workerID string) (float64, error) {
	value, err := c.kv.Get(ctx, c.key(workerID))
	if err != nil {
		if errors.Is(err, types.ErrKeyNotFound) {
			return 0, nil
		}

		return 0, fmt.Errorf("read load counter for %s: %w", workerID, err)
	}

	load, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("load counter for %s is not a number: %w", workerID, err)
	}

	return load, nil
}

// Increment atomically adds amount to a worker's mirrored load and pins the
// key's expiry to the end of the current period. Returns the new value.
func (c *Counter) Increment(ctx context.Context, workerID string, amount float64) (float64, error) {
	key := c.key(workerID)

	value, err := c.kv.IncrByFloat(ctx, key, amount)
	if err != nil {
		return 0, fmt.Errorf("increment load counter for %s: %w", workerID, err)
	}

	if _, err := c.kv.Expire(ctx, key, c.untilPeriodEnd()); err != nil {
		return value, fmt.Errorf("set load counter expiry for %s: %w", workerID, err)
	}

	return value, nil
}

// Set overwrites a worker's mirrored load, used by reconciliation to restore
// the mirror from durable state.
func (c *Counter) Set(ctx context.Context, workerID string, load float64) error {
	value := strconv.FormatFloat(load, 'f', -1, 64)
	if err := c.kv.Set(ctx, c.key(workerID), value, c.untilPeriodEnd()); err != nil {
		return fmt.Errorf("overwrite load counter for %s: %w", workerID, err)
	}

	return nil
}

// Reset deletes a worker's counter, used by shift reset.
func (c *Counter) Reset(ctx context.Context, workerID string) error {
	if err := c.kv.Delete(ctx, c.key(workerID)); err != nil {
		return fmt.Errorf("reset load counter for %s: %w", workerID, err)
	}

	return nil
}

// untilPeriodEnd returns the time remaining until the next occurrence of the
// configured period-end hour in the clock's location.
func (c *Counter) untilPeriodEnd() time.Duration {
	now := c.now()
	end := time.Date(now.Year(), now.Month(), now.Day(), c.periodEnd, 0, 0, 0, now.Location())
	if !end.After(now) {
		end = end.AddDate(0, 0, 1)
	}

	return end.Sub(now)
}

func (c *Counter) key(workerID string) string {
	return fmt.Sprintf("%s:load:shift:%s", c.prefix, workerID)
}
