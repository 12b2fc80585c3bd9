package types

import (
	"context"
	"time"
)

// WorkerStore is the durable worker registry.
//
// Only the assignment engine may increase load (ChargeLoad) and only an
// explicit shift reset may zero it; implementations do not enforce the caller
// but must make each mutation atomic with respect to concurrent calls.
type WorkerStore interface {
	// Create inserts a new worker. The worker's ID is generated when empty.
	Create(ctx context.Context, worker *Worker) error

	// List returns all workers ordered by name.
	List(ctx context.Context) ([]*Worker, error)

	// Get returns the worker or ErrWorkerNotFound.
	Get(ctx context.Context, id string) (*Worker, error)

	// SetAvailability updates the availability state.
	SetAvailability(ctx context.Context, id string, availability Availability) error

	// ChargeLoad atomically adds amount to the worker's current load and
	// returns the post-charge value. Negative amounts revert a charge.
	ChargeLoad(ctx context.Context, id string, amount float64) (float64, error)

	// ResetLoad zeroes the worker's current load.
	ResetLoad(ctx context.Context, id string) error
}

// ItemStore is the durable item store. Each transition method is narrow and
// validated: it applies exactly one edge of the item state machine and
// returns ErrPreconditionFailed when the item is in any other state.
type ItemStore interface {
	// Create inserts a new pending item. The item's ID is generated when
	// empty; a duplicate RefCode yields ErrDuplicateRef.
	Create(ctx context.Context, item *Item) error

	// Get returns the item or ErrItemNotFound.
	Get(ctx context.Context, id string) (*Item, error)

	// ListAll returns all items ordered newest-first.
	ListAll(ctx context.Context) ([]*Item, error)

	// ListByWorker returns the items assigned to a worker, newest-first.
	ListByWorker(ctx context.Context, workerID string) ([]*Item, error)

	// ListByStatus returns the items in a given status, newest-first.
	ListByStatus(ctx context.Context, status ItemStatus) ([]*Item, error)

	// Assign transitions pending → assigned. This is the atomic gate that
	// enforces at-most-one assignment per item.
	Assign(ctx context.Context, id, workerID string) error

	// Lock transitions assigned → locked and stamps the lock time.
	Lock(ctx context.Context, id, holderID string, at time.Time) error

	// Unlock transitions locked → assigned, clearing the holder.
	Unlock(ctx context.Context, id string) error

	// Complete transitions assigned|locked → completed, clearing any lock
	// fields. Terminal.
	Complete(ctx context.Context, id string, at time.Time) error
}

// AssignmentLog is the append-only assignment-history relation.
type AssignmentLog interface {
	// Append records a new assignment fact. The record's ID is generated
	// when empty.
	Append(ctx context.Context, record *AssignmentRecord) error

	// ByItem returns the records for an item, oldest-first.
	ByItem(ctx context.Context, itemID string) ([]*AssignmentRecord, error)

	// ByWorker returns the records for a worker, oldest-first.
	ByWorker(ctx context.Context, workerID string) ([]*AssignmentRecord, error)

	// All returns every record, oldest-first.
	All(ctx context.Context) ([]*AssignmentRecord, error)
}
