package types

import "time"

// Availability is a worker's current availability state.
type Availability string

const (
	// Available workers are considered by the assignment engine.
	Available Availability = "available"

	// Busy workers stay registered but receive no new assignments.
	Busy Availability = "busy"

	// Offline workers receive no new assignments and have no presence key.
	Offline Availability = "offline"
)

// Valid reports whether a is one of the known availability states.
func (a Availability) Valid() bool {
	switch a {
	case Available, Busy, Offline:
		return true
	default:
		return false
	}
}

// SkillGeneral is the wildcard skill tag. A worker carrying it is eligible
// for items of any required skill.
const SkillGeneral = "General"

// Worker is a registered handler of work items.
//
// CurrentLoad is the cumulative fairness weight charged during the active
// period. It is mutated only by the assignment engine (increment) and by an
// explicit shift reset (zero).
type Worker struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Skills       []string     `json:"skills"`
	Ceiling      float64      `json:"ceiling"`
	CurrentLoad  float64      `json:"currentLoad"`
	Availability Availability `json:"availability"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// HasSkill reports whether the worker is eligible for an item requiring the
// given skill, either by carrying the skill itself or the General wildcard.
func (w *Worker) HasSkill(skill string) bool {
	for _, s := range w.Skills {
		if s == skill || s == SkillGeneral {
			return true
		}
	}

	return false
}

// CanAccept reports whether charging weight would keep the worker at or under
// its ceiling.
func (w *Worker) CanAccept(weight float64) bool {
	return w.CurrentLoad+weight <= w.Ceiling
}

// IsAvailable reports whether the worker may receive new assignments.
func (w *Worker) IsAvailable() bool {
	return w.Availability == Available
}
