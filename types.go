package worklist

import "github.com/jcvera13/radiology-worklist/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing leaf packages to
// depend on `types` without depending on the root `worklist` package, while
// still providing a convenient `worklist.Worker`, `worklist.Logger`, etc. for
// users.
type (
	Worker           = types.Worker
	Item             = types.Item
	AssignmentRecord = types.AssignmentRecord
	AuditEntry       = types.AuditEntry
	Event            = types.Event
	EventType        = types.EventType
	ItemStatus       = types.ItemStatus
	Availability     = types.Availability
	Mechanism        = types.Mechanism
)

// Re-export interfaces from the internal types package for convenience.
type (
	WorkerStore       = types.WorkerStore
	ItemStore         = types.ItemStore
	AssignmentLog     = types.AssignmentLog
	CoordinationStore = types.CoordinationStore
	AuditSink         = types.AuditSink
	Logger            = types.Logger
	MetricsCollector  = types.MetricsCollector
)

// Re-export item status constants.
const (
	StatusPending   = types.StatusPending
	StatusAssigned  = types.StatusAssigned
	StatusLocked    = types.StatusLocked
	StatusCompleted = types.StatusCompleted
)

// Re-export availability constants.
const (
	Available = types.Available
	Busy      = types.Busy
	Offline   = types.Offline
)

// Re-export assignment mechanism constants.
const (
	MechanismAutomatic = types.MechanismAutomatic
	MechanismManual    = types.MechanismManual
)

// Re-export event type constants.
const (
	EventItemCreated   = types.EventItemCreated
	EventItemAssigned  = types.EventItemAssigned
	EventItemLocked    = types.EventItemLocked
	EventItemUnlocked  = types.EventItemUnlocked
	EventItemCompleted = types.EventItemCompleted
)

// SkillGeneral is the wildcard skill tag matching any item.
const SkillGeneral = types.SkillGeneral
