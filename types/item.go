package types

import (
	"fmt"
	"time"
)

// ItemStatus is an item's lifecycle state.
type ItemStatus string

const (
	// StatusPending items await assignment.
	StatusPending ItemStatus = "pending"

	// StatusAssigned items belong to a worker but are not being handled.
	StatusAssigned ItemStatus = "assigned"

	// StatusLocked items are under exclusive handling by the lock holder.
	StatusLocked ItemStatus = "locked"

	// StatusCompleted is terminal.
	StatusCompleted ItemStatus = "completed"
)

// Urgency tags carried by items, for display only. They do not influence
// assignment order.
const (
	UrgencyStat    = "stat"
	UrgencyUrgent  = "urgent"
	UrgencyRoutine = "routine"
)

// Item is a unit of work to be assigned and exclusively handled.
//
// Invariants, maintained by the Mark* transition methods:
//   - AssignedTo is set iff Status is assigned, locked, or completed
//   - LockedBy and LockedAt are set iff Status is locked
//   - a completed item never transitions again
type Item struct {
	ID          string     `json:"id"`
	RefCode     string     `json:"refCode"`
	TypeCode    string     `json:"typeCode"`
	Weight      float64    `json:"weight"`
	Urgency     string     `json:"urgency"`
	Skill       string     `json:"skill"`
	Status      ItemStatus `json:"status"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	LockedBy    string     `json:"lockedBy,omitempty"`
	LockedAt    *time.Time `json:"lockedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// MarkAssigned transitions pending → assigned.
func (i *Item) MarkAssigned(workerID string, at time.Time) error {
	if i.Status != StatusPending {
		return fmt.Errorf("%w: cannot assign %s item %s", ErrPreconditionFailed, i.Status, i.ID)
	}

	i.Status = StatusAssigned
	i.AssignedTo = workerID
	i.UpdatedAt = at

	return nil
}

// MarkLocked transitions assigned → locked and stamps the lock time.
func (i *Item) MarkLocked(holderID string, at time.Time) error {
	if i.Status != StatusAssigned {
		return fmt.Errorf("%w: cannot lock %s item %s", ErrPreconditionFailed, i.Status, i.ID)
	}

	i.Status = StatusLocked
	i.LockedBy = holderID
	lockedAt := at
	i.LockedAt = &lockedAt
	i.UpdatedAt = at

	return nil
}

// MarkUnlocked transitions locked → assigned, clearing the holder and lock
// time. The assigned worker is unchanged.
func (i *Item) MarkUnlocked(at time.Time) error {
	if i.Status != StatusLocked {
		return fmt.Errorf("%w: cannot unlock %s item %s", ErrPreconditionFailed, i.Status, i.ID)
	}

	i.Status = StatusAssigned
	i.LockedBy = ""
	i.LockedAt = nil
	i.UpdatedAt = at

	return nil
}

// MarkCompleted transitions assigned|locked → completed, force-clearing any
// lock fields. Completed is terminal; completing a pending or already
// completed item is rejected.
func (i *Item) MarkCompleted(at time.Time) error {
	if i.Status != StatusAssigned && i.Status != StatusLocked {
		return fmt.Errorf("%w: cannot complete %s item %s", ErrPreconditionFailed, i.Status, i.ID)
	}

	i.Status = StatusCompleted
	i.LockedBy = ""
	i.LockedAt = nil
	completedAt := at
	i.CompletedAt = &completedAt
	i.UpdatedAt = at

	return nil
}

// Clone returns a deep copy of the item. Stores hand out clones so callers
// never share mutable state with the store.
func (i *Item) Clone() *Item {
	clone := *i
	if i.LockedAt != nil {
		lockedAt := *i.LockedAt
		clone.LockedAt = &lockedAt
	}
	if i.CompletedAt != nil {
		completedAt := *i.CompletedAt
		clone.CompletedAt = &completedAt
	}

	return &clone
}
