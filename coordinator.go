package worklist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jcvera13/radiology-worklist/audit"
	"github.com/jcvera13/radiology-worklist/broadcast"
	"github.com/jcvera13/radiology-worklist/counter"
	"github.com/jcvera13/radiology-worklist/internal/logger"
	"github.com/jcvera13/radiology-worklist/internal/metrics"
	"github.com/jcvera13/radiology-worklist/lock"
	"github.com/jcvera13/radiology-worklist/presence"
	"github.com/jcvera13/radiology-worklist/types"
)

// Deps bundles the required storage dependencies of a Coordinator.
type Deps struct {
	// Workers is the durable worker registry.
	Workers types.WorkerStore

	// Items is the durable item store.
	Items types.ItemStore

	// Records is the append-only assignment history.
	Records types.AssignmentLog

	// KV is the ephemeral coordination store backing locks, mirrored load
	// counters, presence, and assignment guards.
	KV types.CoordinationStore
}

// AssignResult is the outcome of an automatic or manual assignment attempt.
//
// Business outcomes (item not pending, no eligible worker, every candidate
// over ceiling) are unsuccessful results with a reason, not errors; errors
// are reserved for store failures.
type AssignResult struct {
	// Success reports whether the item was assigned by this call.
	Success bool `json:"success"`

	// ItemID is the item the attempt was made for.
	ItemID string `json:"itemId"`

	// WorkerID is the selected worker when Success is true.
	WorkerID string `json:"workerId,omitempty"`

	// Mechanism is automatic or manual when Success is true.
	Mechanism types.Mechanism `json:"mechanism,omitempty"`

	// LoadAfter is the worker's durable load immediately after the charge.
	LoadAfter float64 `json:"loadAfter,omitempty"`

	// Reason is a human-readable justification or failure explanation.
	Reason string `json:"reason"`
}

// Coordinator is the assignment and exclusive-access engine.
//
// It owns the fairness-based assignment algorithm, the distributed item
// locks, the mirrored per-worker load counters, and the event propagation
// hub. All methods are safe for concurrent use; no method holds an in-process
// lock across a store round trip.
type Coordinator struct {
	cfg     Config
	workers types.WorkerStore
	items   types.ItemStore
	records types.AssignmentLog
	kv      types.CoordinationStore

	locks    *lock.Manager
	loads    *counter.Counter
	presence *presence.Tracker
	hub      *broadcast.Hub

	logger  types.Logger
	metrics types.MetricsCollector
	audit   types.AuditSink
	now     func() time.Time

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a Coordinator.
//
// The configuration is defaulted and validated; nil optional dependencies
// fall back to no-op implementations.
//
// Example:
//
//	cfg := worklist.DefaultConfig()
//	c, err := worklist.New(&cfg, worklist.Deps{
//	    Workers: db.Workers(),
//	    Items:   db.Items(),
//	    Records: db.Assignments(),
//	    KV:      kvredis.New(kvredis.Options{Addr: "localhost:6379"}),
//	}, worklist.WithLogger(logging.NewSlogDefault()))
func New(cfg *Config, deps Deps, opts ...Option) (*Coordinator, error) {
	if deps.Workers == nil {
		return nil, ErrWorkerStoreRequired
	}
	if deps.Items == nil {
		return nil, ErrItemStoreRequired
	}
	if deps.Records == nil {
		return nil, ErrAssignmentLogRequired
	}
	if deps.KV == nil {
		return nil, ErrCoordinationStoreRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &coordinatorOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = logger.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}
	if options.audit == nil {
		options.audit = audit.NewNopSink()
	}
	if options.now == nil {
		options.now = time.Now
	}

	return &Coordinator{
		cfg:      *cfg,
		workers:  deps.Workers,
		items:    deps.Items,
		records:  deps.Records,
		kv:       deps.KV,
		locks:    lock.New(deps.KV, cfg.KeyPrefix),
		loads:    counter.NewWithClock(deps.KV, cfg.KeyPrefix, cfg.PeriodEnd, options.now),
		presence: presence.New(deps.KV, cfg.KeyPrefix, cfg.PresenceTTL),
		hub:      broadcast.NewHub(cfg.EventBuffer, options.logger, options.metrics),
		logger:   options.logger,
		metrics:  options.metrics,
		audit:    options.audit,
		now:      options.now,
	}, nil
}

// Hub returns the propagation hub, for attaching a NATS bridge or other
// in-process consumers.
func (c *Coordinator) Hub() *broadcast.Hub {
	return c.hub
}

// Presence returns the presence tracker, for wiring worker heartbeaters.
func (c *Coordinator) Presence() *presence.Tracker {
	return c.presence
}

// Loads returns the mirrored load counter, for read-heavy dashboards that
// must not touch the durable registry.
func (c *Coordinator) Loads() *counter.Counter {
	return c.loads
}

// Locks returns the lock manager, for read-only lock queries and lease
// extension.
func (c *Coordinator) Locks() *lock.Manager {
	return c.locks
}

// CreateItem inserts a new pending item, broadcasts a created event, and
// audits the ingestion.
func (c *Coordinator) CreateItem(ctx context.Context, item *types.Item) error {
	if err := c.items.Create(ctx, item); err != nil {
		return err
	}

	c.logger.Info("item created",
		"item_id", item.ID,
		"ref_code", item.RefCode,
		"skill", item.Skill,
		"weight", item.Weight)

	c.publish(types.Event{Type: types.EventItemCreated, ItemID: item.ID, At: c.now(), Item: item.Clone()})
	c.recordAudit(ctx, types.AuditEntry{
		Actor:        types.ActorSystem,
		Action:       types.ActionItemCreated,
		ResourceType: "item",
		ResourceID:   item.ID,
		Context:      fmt.Sprintf("item %s created with ref %s", item.ID, item.RefCode),
		At:           c.now(),
	})

	return nil
}

// Assign selects a worker for a pending item by fairness ordering and commits
// the decision.
//
// The algorithm: load the item, collect available workers, filter by skill
// (the General wildcard matches any item), sort ascending by current load
// with worker ID as the tie breaker, and pick the first candidate whose load
// plus the item's weight stays at or under its ceiling. The commit charges
// the durable load first, then flips the item's status through the atomic
// pending-only gate, then appends the assignment record; mirror update,
// broadcast, and audit follow best-effort.
//
// Concurrent Assign and ManualAssign calls for the same item are serialized
// by a short-TTL guard key in the coordination store; the loser observes
// "assignment in progress" or "already assigned".
func (c *Coordinator) Assign(ctx context.Context, itemID string) (AssignResult, error) {
	start := c.now()

	result, err := c.assign(ctx, itemID)

	c.metrics.RecordAssignDuration(c.now().Sub(start).Seconds())
	c.metrics.RecordAssignment(string(types.MechanismAutomatic), result.Success)

	return result, err
}

func (c *Coordinator) assign(ctx context.Context, itemID string) (AssignResult, error) {
	fail := func(reason string) AssignResult {
		return AssignResult{ItemID: itemID, Reason: reason}
	}

	release, acquired, err := c.guardAssignment(ctx, itemID)
	if err != nil {
		return fail("coordination store unavailable"), err
	}
	if !acquired {
		return fail("assignment already in progress"), nil
	}
	defer release()

	item, err := c.items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, types.ErrItemNotFound) {
			return fail("item not found"), nil
		}

		return fail("item store unavailable"), err
	}
	if item.Status != types.StatusPending {
		return fail(fmt.Sprintf("item is %s, not pending", item.Status)), nil
	}

	workers, err := c.workers.List(ctx)
	if err != nil {
		return fail("worker registry unavailable"), err
	}

	eligible := make([]*types.Worker, 0, len(workers))
	for _, w := range workers {
		if w.IsAvailable() && w.HasSkill(item.Skill) {
			eligible = append(eligible, w)
		}
	}
	if len(eligible) == 0 {
		return fail(fmt.Sprintf("no available worker with skill %q", item.Skill)), nil
	}

	// Fairness rule: always prefer the least-loaded eligible worker. Ties
	// break on worker ID so the ordering is stable and auditable.
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].CurrentLoad == eligible[j].CurrentLoad {
			return eligible[i].ID < eligible[j].ID
		}

		return eligible[i].CurrentLoad < eligible[j].CurrentLoad
	})

	var selected *types.Worker
	for _, w := range eligible {
		if w.CanAccept(item.Weight) {
			selected = w
			break
		}
	}
	if selected == nil {
		return fail(fmt.Sprintf("all %d eligible workers would exceed their ceiling", len(eligible))), nil
	}

	loadAfter, err := c.commitAssignment(ctx, item, selected.ID, types.MechanismAutomatic, types.ActorSystem)
	if err != nil {
		return fail("assignment commit failed"), err
	}

	return AssignResult{
		Success:   true,
		ItemID:    itemID,
		WorkerID:  selected.ID,
		Mechanism: types.MechanismAutomatic,
		LoadAfter: loadAfter,
		Reason: fmt.Sprintf("assigned to %s (least loaded eligible worker, load %.2f/%.2f after charge)",
			selected.Name, loadAfter, selected.Ceiling),
	}, nil
}

// ManualAssign assigns an item to a specific worker, bypassing eligibility
// and capacity checks. The item must still be pending, and the override is
// recorded with mechanism manual and the acting administrator.
func (c *Coordinator) ManualAssign(ctx context.Context, itemID, workerID, actor string) (AssignResult, error) {
	fail := func(reason string) AssignResult {
		return AssignResult{ItemID: itemID, Reason: reason}
	}

	result, err := func() (AssignResult, error) {
		release, acquired, err := c.guardAssignment(ctx, itemID)
		if err != nil {
			return fail("coordination store unavailable"), err
		}
		if !acquired {
			return fail("assignment already in progress"), nil
		}
		defer release()

		item, err := c.items.Get(ctx, itemID)
		if err != nil {
			if errors.Is(err, types.ErrItemNotFound) {
				return fail("item not found"), nil
			}

			return fail("item store unavailable"), err
		}
		if item.Status != types.StatusPending {
			return fail(fmt.Sprintf("item is %s, not pending", item.Status)), nil
		}

		worker, err := c.workers.Get(ctx, workerID)
		if err != nil {
			if errors.Is(err, types.ErrWorkerNotFound) {
				return fail("worker not found"), nil
			}

			return fail("worker registry unavailable"), err
		}

		loadAfter, err := c.commitAssignment(ctx, item, worker.ID, types.MechanismManual, actor)
		if err != nil {
			return fail("assignment commit failed"), err
		}

		return AssignResult{
			Success:   true,
			ItemID:    itemID,
			WorkerID:  worker.ID,
			Mechanism: types.MechanismManual,
			LoadAfter: loadAfter,
			Reason:    fmt.Sprintf("manually assigned to %s by %s", worker.Name, actor),
		}, nil
	}()

	c.metrics.RecordAssignment(string(types.MechanismManual), result.Success)

	return result, err
}

// guardAssignment serializes assignment attempts for one item with a
// short-TTL key. The TTL bounds how long a crashed attempt can block the
// item; the happy path deletes the key on the way out.
func (c *Coordinator) guardAssignment(ctx context.Context, itemID string) (release func(), acquired bool, err error) {
	key := fmt.Sprintf("%s:assign:item:%s", c.cfg.KeyPrefix, itemID)

	acquired, err = c.kv.SetIfAbsent(ctx, key, "1", c.cfg.AssignGuardTTL)
	if err != nil {
		return nil, false, fmt.Errorf("acquire assignment guard for item %s: %w", itemID, err)
	}
	if !acquired {
		return nil, false, nil
	}

	return func() {
		if err := c.kv.Delete(ctx, key); err != nil {
			c.logger.Warn("failed to release assignment guard", "item_id", itemID, "error", err)
		}
	}, true, nil
}

// commitAssignment applies the durable commit sequence: charge the worker's
// load, flip the item through the pending-only gate, append the assignment
// record. The charge comes first so a failure after it can be compensated by
// a reverse charge; a failure after the status flip leaves the assignment
// record as ground truth for reconciliation.
func (c *Coordinator) commitAssignment(ctx context.Context, item *types.Item, workerID string, mechanism types.Mechanism, actor string) (float64, error) {
	loadAfter, err := c.workers.ChargeLoad(ctx, workerID, item.Weight)
	if err != nil {
		return 0, fmt.Errorf("charge load: %w", err)
	}

	if err := c.items.Assign(ctx, item.ID, workerID); err != nil {
		if _, revertErr := c.workers.ChargeLoad(ctx, workerID, -item.Weight); revertErr != nil {
			c.logger.Error("failed to revert load charge after assignment failure",
				"item_id", item.ID,
				"worker_id", workerID,
				"amount", item.Weight,
				"error", revertErr)
		}

		return 0, fmt.Errorf("assign item: %w", err)
	}

	at := c.now()
	if err := c.records.Append(ctx, &types.AssignmentRecord{
		ItemID:     item.ID,
		WorkerID:   workerID,
		Mechanism:  mechanism,
		LoadAfter:  loadAfter,
		AssignedAt: at,
	}); err != nil {
		// The assignment itself is committed; a missing record is a gap in
		// the fairness history, not a broken item. Log loudly and move on.
		c.logger.Error("failed to append assignment record",
			"item_id", item.ID,
			"worker_id", workerID,
			"error", err)
	}

	if _, err := c.loads.Increment(ctx, workerID, item.Weight); err != nil {
		c.logger.Warn("failed to update mirrored load counter",
			"worker_id", workerID,
			"error", err)
	}

	c.logger.Info("item assigned",
		"item_id", item.ID,
		"worker_id", workerID,
		"mechanism", mechanism,
		"load_after", loadAfter)

	updated := item.Clone()
	updated.Status = types.StatusAssigned
	updated.AssignedTo = workerID
	updated.UpdatedAt = at

	c.publish(types.Event{Type: types.EventItemAssigned, ItemID: item.ID, WorkerID: workerID, At: at, Item: updated})

	action := types.ActionAutoAssign
	if mechanism == types.MechanismManual {
		action = types.ActionManualAssign
	}
	c.recordAudit(ctx, types.AuditEntry{
		Actor:        actor,
		Action:       action,
		ResourceType: "item",
		ResourceID:   item.ID,
		Context:      fmt.Sprintf("item %s assigned to worker %s", item.ID, workerID),
		Metadata: map[string]string{
			"worker_id":  workerID,
			"mechanism":  string(mechanism),
			"load_after": fmt.Sprintf("%.2f", loadAfter),
		},
		At: at,
	})

	return loadAfter, nil
}

// Lock grants holderID exclusive access to an item.
//
// The item must be durably assigned. A durable "locked" status with no live
// lock key is a straggler from an expired lease and is demoted before the
// attempt. Any live lock, including the requester's own, yields
// ErrLockConflict. The broadcast locked event carries the measured delta
// between acquisition start and emission.
func (c *Coordinator) Lock(ctx context.Context, itemID, holderID string) error {
	start := c.now()

	item, err := c.items.Get(ctx, itemID)
	if err != nil {
		return err
	}

	if item.Status == types.StatusLocked {
		live, err := c.locks.IsLocked(ctx, itemID)
		if err != nil {
			return err
		}
		if live {
			c.metrics.RecordLockAcquire(false)
			owner, _ := c.locks.Owner(ctx, itemID)

			return fmt.Errorf("%w: item %s held by %s", types.ErrLockConflict, itemID, owner)
		}

		// Lease expired but the durable status still says locked. Demote so
		// the acquisition below runs against an assigned item.
		if err := c.demoteExpiredLock(ctx, item); err != nil {
			return err
		}
		item.Status = types.StatusAssigned
	}

	if item.Status != types.StatusAssigned {
		return fmt.Errorf("%w: cannot lock %s item %s", types.ErrPreconditionFailed, item.Status, itemID)
	}

	acquired, err := c.locks.Acquire(ctx, itemID, holderID, c.cfg.LockTTL)
	if err != nil {
		return err
	}
	c.metrics.RecordLockAcquire(acquired)
	if !acquired {
		owner, _ := c.locks.Owner(ctx, itemID)

		return fmt.Errorf("%w: item %s held by %s", types.ErrLockConflict, itemID, owner)
	}

	at := c.now()
	if err := c.items.Lock(ctx, itemID, holderID, at); err != nil {
		// The durable transition failed; don't leave a live lock behind.
		if releaseErr := c.locks.Release(ctx, itemID); releaseErr != nil {
			c.logger.Error("failed to release lock after durable transition failure",
				"item_id", itemID,
				"error", releaseErr)
		}

		return err
	}

	propagation := c.now().Sub(start)
	c.logger.Info("item locked",
		"item_id", itemID,
		"holder_id", holderID,
		"propagation_ms", propagation.Milliseconds())

	c.publish(types.Event{
		Type:        types.EventItemLocked,
		ItemID:      itemID,
		WorkerID:    holderID,
		At:          at,
		Propagation: propagation,
	})
	c.recordAudit(ctx, types.AuditEntry{
		Actor:        holderID,
		Action:       types.ActionLockAcquired,
		ResourceType: "item",
		ResourceID:   itemID,
		Context:      fmt.Sprintf("item %s locked by %s", itemID, holderID),
		At:           at,
	})

	return nil
}

// Unlock releases holderID's lock on an item and returns it to assigned.
// Unlocking an item that is not locked is a no-op, not an error.
func (c *Coordinator) Unlock(ctx context.Context, itemID, holderID string) error {
	item, err := c.items.Get(ctx, itemID)
	if err != nil {
		return err
	}

	if err := c.locks.Release(ctx, itemID); err != nil {
		return err
	}

	if item.Status != types.StatusLocked {
		return nil
	}

	if err := c.items.Unlock(ctx, itemID); err != nil {
		return err
	}
	c.metrics.RecordLockRelease()

	at := c.now()
	c.publish(types.Event{Type: types.EventItemUnlocked, ItemID: itemID, WorkerID: holderID, At: at})
	c.recordAudit(ctx, types.AuditEntry{
		Actor:        holderID,
		Action:       types.ActionLockReleased,
		ResourceType: "item",
		ResourceID:   itemID,
		Context:      fmt.Sprintf("item %s unlocked by %s", itemID, holderID),
		At:           at,
	})

	return nil
}

// Complete terminally finishes an item, force-clearing any lock. Pending and
// already-completed items are rejected with ErrPreconditionFailed.
func (c *Coordinator) Complete(ctx context.Context, itemID, holderID string) error {
	at := c.now()
	if err := c.items.Complete(ctx, itemID, at); err != nil {
		return err
	}

	if err := c.locks.Release(ctx, itemID); err != nil {
		c.logger.Warn("failed to clear lock on completion", "item_id", itemID, "error", err)
	}
	c.metrics.RecordCompletion()

	c.logger.Info("item completed", "item_id", itemID, "holder_id", holderID)

	c.publish(types.Event{Type: types.EventItemCompleted, ItemID: itemID, WorkerID: holderID, At: at})
	c.recordAudit(ctx, types.AuditEntry{
		Actor:        holderID,
		Action:       types.ActionItemCompleted,
		ResourceType: "item",
		ResourceID:   itemID,
		Context:      fmt.Sprintf("item %s completed by %s", itemID, holderID),
		At:           at,
	})

	return nil
}

// SetAvailability updates a worker's availability and its presence key.
func (c *Coordinator) SetAvailability(ctx context.Context, workerID string, availability types.Availability) error {
	if err := c.workers.SetAvailability(ctx, workerID, availability); err != nil {
		return err
	}

	var presenceErr error
	if availability == types.Offline {
		presenceErr = c.presence.Offline(ctx, workerID)
	} else {
		presenceErr = c.presence.Online(ctx, workerID)
	}
	if presenceErr != nil {
		c.logger.Warn("failed to update presence key",
			"worker_id", workerID,
			"availability", availability,
			"error", presenceErr)
	}

	c.recordAudit(ctx, types.AuditEntry{
		Actor:        workerID,
		Action:       types.ActionAvailability,
		ResourceType: "worker",
		ResourceID:   workerID,
		Context:      fmt.Sprintf("worker %s is now %s", workerID, availability),
		At:           c.now(),
	})

	return nil
}

// ResetShift zeroes a worker's durable load and deletes the mirrored counter.
func (c *Coordinator) ResetShift(ctx context.Context, workerID string) error {
	if err := c.workers.ResetLoad(ctx, workerID); err != nil {
		return err
	}

	if err := c.loads.Reset(ctx, workerID); err != nil {
		c.logger.Warn("failed to reset mirrored load counter", "worker_id", workerID, "error", err)
	}

	c.logger.Info("shift reset", "worker_id", workerID)
	c.recordAudit(ctx, types.AuditEntry{
		Actor:        types.ActorSystem,
		Action:       types.ActionShiftReset,
		ResourceType: "worker",
		ResourceID:   workerID,
		Context:      fmt.Sprintf("shift load reset for worker %s", workerID),
		At:           c.now(),
	})

	return nil
}

// Items returns every item, newest first.
func (c *Coordinator) Items(ctx context.Context) ([]*types.Item, error) {
	return c.items.ListAll(ctx)
}

// ItemsByWorker returns the items assigned to one worker, newest first.
func (c *Coordinator) ItemsByWorker(ctx context.Context, workerID string) ([]*types.Item, error) {
	return c.items.ListByWorker(ctx, workerID)
}

// Item returns a single item.
func (c *Coordinator) Item(ctx context.Context, itemID string) (*types.Item, error) {
	return c.items.Get(ctx, itemID)
}

// Workers returns every registered worker ordered by name.
func (c *Coordinator) Workers(ctx context.Context) ([]*types.Worker, error) {
	return c.workers.List(ctx)
}

// Worker returns a single worker.
func (c *Coordinator) Worker(ctx context.Context, workerID string) (*types.Worker, error) {
	return c.workers.Get(ctx, workerID)
}

// Subscribe registers an observer. The returned snapshot is the full current
// item list taken before the live channel goes hot, so a new observer can
// build a consistent view: apply the snapshot, then the events.
func (c *Coordinator) Subscribe(ctx context.Context) ([]*types.Item, <-chan types.Event, func(), error) {
	snapshot, err := c.items.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	ch, unsubscribe := c.hub.Subscribe()

	return snapshot, ch, unsubscribe, nil
}

// Start launches the background reconcile sweep. Returns ErrAlreadyStarted if
// running and a nil error immediately when ReconcileInterval is zero.
func (c *Coordinator) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	if c.cfg.ReconcileInterval <= 0 {
		c.logger.Info("reconcile sweep disabled")

		return nil
	}

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	go c.sweepLoop(c.stopCh, c.doneCh)

	return nil
}

// Stop halts the background sweep and closes the propagation hub,
// disconnecting every observer. Returns ErrNotStarted when the coordinator
// was never started.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()

		return ErrNotStarted
	}
	c.started = false
	stopCh, doneCh := c.stopCh, c.doneCh
	c.stopCh, c.doneCh = nil, nil
	c.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	c.hub.Close()

	return nil
}

func (c *Coordinator) publish(event types.Event) {
	c.hub.Publish(event)
}

// recordAudit reports to the audit sink. Failures are logged and swallowed;
// the state change already succeeded.
func (c *Coordinator) recordAudit(ctx context.Context, entry types.AuditEntry) {
	if err := c.audit.Record(ctx, entry); err != nil {
		c.logger.Warn("audit record failed",
			"action", entry.Action,
			"resource_id", entry.ResourceID,
			"error", err)
	}
}
