package worklist

import (
	"errors"

	"github.com/jcvera13/radiology-worklist/types"
)

// Sentinel errors returned by the Coordinator.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrWorkerStoreRequired is returned when the worker store is nil.
	ErrWorkerStoreRequired = errors.New("worker store is required")

	// ErrItemStoreRequired is returned when the item store is nil.
	ErrItemStoreRequired = errors.New("item store is required")

	// ErrAssignmentLogRequired is returned when the assignment log is nil.
	ErrAssignmentLogRequired = errors.New("assignment log is required")

	// ErrCoordinationStoreRequired is returned when the coordination store is nil.
	ErrCoordinationStoreRequired = errors.New("coordination store is required")

	// ErrAlreadyStarted is returned when Start is called on a running coordinator.
	ErrAlreadyStarted = errors.New("coordinator already started")

	// ErrNotStarted is returned when Stop is called on a coordinator that
	// hasn't been started.
	ErrNotStarted = errors.New("coordinator not started")
)

// Re-export the shared error taxonomy so callers can branch with errors.Is
// without importing the types subpackage.
var (
	ErrWorkerNotFound     = types.ErrWorkerNotFound
	ErrItemNotFound       = types.ErrItemNotFound
	ErrLockConflict       = types.ErrLockConflict
	ErrPreconditionFailed = types.ErrPreconditionFailed
	ErrDuplicateRef       = types.ErrDuplicateRef
	ErrStoreUnavailable   = types.ErrStoreUnavailable
	ErrKeyNotFound        = types.ErrKeyNotFound
)
