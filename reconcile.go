package worklist

import (
	"context"
	"fmt"
	"time"

	"github.com/jcvera13/radiology-worklist/types"
)

// ReconcileLocks sweeps durably locked items and demotes any whose lease has
// expired in the coordination store. Returns the number of demotions.
//
// Demotion also happens lazily on the next Lock attempt for the item; this
// sweep bounds how long a straggler can sit locked with nobody asking.
func (c *Coordinator) ReconcileLocks(ctx context.Context) (int, error) {
	locked, err := c.items.ListByStatus(ctx, types.StatusLocked)
	if err != nil {
		return 0, fmt.Errorf("list locked items: %w", err)
	}

	demoted := 0
	for _, item := range locked {
		live, err := c.locks.IsLocked(ctx, item.ID)
		if err != nil {
			return demoted, fmt.Errorf("check lock for item %s: %w", item.ID, err)
		}
		if live {
			continue
		}

		if err := c.demoteExpiredLock(ctx, item); err != nil {
			return demoted, err
		}
		demoted++
	}

	if demoted > 0 {
		c.metrics.RecordReconcileDemotions(demoted)
		c.logger.Info("demoted expired locks", "count", demoted)
	}

	return demoted, nil
}

// demoteExpiredLock returns one stale durably-locked item to assigned and
// emits the unlocked event the missing release never produced.
func (c *Coordinator) demoteExpiredLock(ctx context.Context, item *types.Item) error {
	if err := c.items.Unlock(ctx, item.ID); err != nil {
		return fmt.Errorf("demote expired lock on item %s: %w", item.ID, err)
	}

	at := c.now()
	c.logger.Warn("lock lease expired, item demoted to assigned",
		"item_id", item.ID,
		"holder_id", item.LockedBy)

	c.publish(types.Event{Type: types.EventItemUnlocked, ItemID: item.ID, WorkerID: item.LockedBy, At: at})
	c.recordAudit(ctx, types.AuditEntry{
		Actor:        types.ActorSystem,
		Action:       types.ActionLockExpired,
		ResourceType: "item",
		ResourceID:   item.ID,
		Context:      fmt.Sprintf("lock on item %s held by %s expired", item.ID, item.LockedBy),
		At:           at,
	})

	return nil
}

// ReconcileLoad overwrites every worker's mirrored load counter with the
// durable value. The durable registry is ground truth; the mirror exists for
// cheap reads and may drift when best-effort increments are lost.
func (c *Coordinator) ReconcileLoad(ctx context.Context) error {
	workers, err := c.workers.List(ctx)
	if err != nil {
		return fmt.Errorf("list workers: %w", err)
	}

	for _, w := range workers {
		if err := c.loads.Set(ctx, w.ID, w.CurrentLoad); err != nil {
			return fmt.Errorf("reconcile load for worker %s: %w", w.ID, err)
		}
	}

	return nil
}

func (c *Coordinator) sweepLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(c.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.OperationTimeout)

			if _, err := c.ReconcileLocks(ctx); err != nil {
				c.logger.Warn("lock reconcile sweep failed", "error", err)
			}
			if err := c.ReconcileLoad(ctx); err != nil {
				c.logger.Warn("load reconcile sweep failed", "error", err)
			}

			cancel()
		}
	}
}
