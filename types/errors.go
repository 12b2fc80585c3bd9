package types

import "errors"

// Error taxonomy shared by all components.
//
// Business outcomes of the assignment path (no eligible worker, item already
// assigned) are returned as data, not as errors; these sentinels cover the
// cases where the caller is expected to branch with errors.Is.
var (
	// ErrWorkerNotFound is returned for an unknown worker ID.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrItemNotFound is returned for an unknown item ID.
	ErrItemNotFound = errors.New("item not found")

	// ErrLockConflict is returned when a lock is already held by another party.
	ErrLockConflict = errors.New("item locked by another holder")

	// ErrPreconditionFailed is returned when an item is in the wrong lifecycle
	// state for the requested transition.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrDuplicateRef is returned when creating an item whose external
	// reference code already exists.
	ErrDuplicateRef = errors.New("duplicate reference code")

	// ErrStoreUnavailable wraps coordination or durable store failures.
	// Fatal to the current operation; the engine does not retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrKeyNotFound is returned by CoordinationStore reads for absent keys.
	ErrKeyNotFound = errors.New("key not found")
)
