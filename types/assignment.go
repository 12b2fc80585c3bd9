package types

import "time"

// Mechanism records how an assignment was made.
type Mechanism string

const (
	// MechanismAutomatic marks assignments made by the fairness algorithm.
	MechanismAutomatic Mechanism = "automatic"

	// MechanismManual marks administrative overrides.
	MechanismManual Mechanism = "manual"
)

// AssignmentRecord is the immutable, append-only fact linking an item to a
// worker. It is the ground truth for the fairness metric: unlike a worker's
// CurrentLoad, records survive shift resets and are never mutated or deleted.
type AssignmentRecord struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"itemId"`
	WorkerID   string    `json:"workerId"`
	Mechanism  Mechanism `json:"mechanism"`
	LoadAfter  float64   `json:"loadAfter"`
	AssignedAt time.Time `json:"assignedAt"`
}
