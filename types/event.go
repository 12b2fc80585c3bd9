package types

import "time"

// EventType identifies a state-transition event pushed to observers.
type EventType string

const (
	// EventItemCreated fires when an item enters the worklist pending.
	EventItemCreated EventType = "item.created"

	// EventItemAssigned fires after a successful automatic or manual assignment.
	EventItemAssigned EventType = "item.assigned"

	// EventItemLocked fires after a lock is acquired. Carries the measured
	// propagation time so observers can verify the sub-second contract.
	EventItemLocked EventType = "item.locked"

	// EventItemUnlocked fires after a release, including demotions of items
	// whose ephemeral lock expired.
	EventItemUnlocked EventType = "item.unlocked"

	// EventItemCompleted fires on terminal completion.
	EventItemCompleted EventType = "item.completed"
)

// Event is the typed notification broadcast to all connected observers on
// every state transition.
//
// Delivery is at-most-once and best-effort; the durable item store remains
// the source of truth for observers that reconnect and resynchronize.
type Event struct {
	Type     EventType  `json:"type"`
	ItemID   string     `json:"itemId"`
	WorkerID string     `json:"workerId,omitempty"`
	At       time.Time  `json:"at"`

	// Propagation is the wall-clock delta between the start of the state
	// change and broadcast emission. Populated for lock events.
	Propagation time.Duration `json:"propagation,omitempty"`

	// Item is a snapshot of the item after the transition, when available.
	Item *Item `json:"item,omitempty"`
}
