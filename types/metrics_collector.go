package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations must be non-blocking and thread-safe; methods are called
// inline on the engine's hot paths and from background goroutines.
type MetricsCollector interface {
	// RecordAssignment records an assignment attempt by mechanism
	// ("automatic" or "manual") and outcome.
	RecordAssignment(mechanism string, success bool)

	// RecordAssignDuration records how long an assignment decision took.
	//
	// Parameters:
	//   - seconds: Time taken in seconds
	RecordAssignDuration(seconds float64)

	// RecordLockAcquire records a lock acquisition attempt and its outcome.
	RecordLockAcquire(acquired bool)

	// RecordLockRelease records a lock release.
	RecordLockRelease()

	// RecordCompletion records a terminal item completion.
	RecordCompletion()

	// RecordPropagation records event fan-out latency by event type.
	//
	// Parameters:
	//   - event: Event type string (e.g. "item.locked")
	//   - seconds: Wall-clock delta from transition start to broadcast
	RecordPropagation(event string, seconds float64)

	// RecordEventDropped records an event dropped because an observer's
	// buffer was full.
	RecordEventDropped()

	// RecordObserverCount sets the current number of connected observers.
	RecordObserverCount(count int)

	// RecordReconcileDemotions records how many durably-locked items a
	// reconciliation sweep demoted back to assigned.
	RecordReconcileDemotions(count int)
}
