package types

import (
	"context"
	"time"
)

// Audit actions recorded by the engine.
const (
	ActionAutoAssign    = "AUTO_ASSIGN"
	ActionManualAssign  = "MANUAL_ASSIGN"
	ActionLockAcquired  = "LOCK_ACQUIRED"
	ActionLockReleased  = "LOCK_RELEASED"
	ActionLockExpired   = "LOCK_EXPIRED"
	ActionItemCreated   = "ITEM_CREATED"
	ActionItemCompleted = "ITEM_COMPLETED"
	ActionShiftReset    = "SHIFT_RESET"
	ActionAvailability  = "AVAILABILITY_CHANGED"
)

// ActorSystem is the actor recorded for actions the engine takes on its own,
// such as automatic assignment and reconciliation demotions.
const ActorSystem = "SYSTEM"

// AuditEntry is a single append-only audit fact.
type AuditEntry struct {
	Actor        string            `json:"actor"`
	Action       string            `json:"action"`
	ResourceType string            `json:"resourceType,omitempty"`
	ResourceID   string            `json:"resourceId,omitempty"`
	Context      string            `json:"context,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	At           time.Time         `json:"at"`
}

// AuditSink consumes audit entries as a write-only side effect of every
// mutating operation. Calls are fire-and-forget: the engine logs failures and
// never lets them affect the state change that already succeeded.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}
