// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/jcvera13/radiology-worklist/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordAssignment discards the assignment outcome metric.
func (n *NopMetrics) RecordAssignment(_ /* mechanism */ string, _ /* success */ bool) {
	// No-op
}

// RecordAssignDuration discards the assignment duration metric.
func (n *NopMetrics) RecordAssignDuration(_ /* seconds */ float64) {
	// No-op
}

// RecordLockAcquire discards the lock acquisition metric.
func (n *NopMetrics) RecordLockAcquire(_ /* acquired */ bool) {
	// No-op
}

// RecordLockRelease discards the lock release metric.
func (n *NopMetrics) RecordLockRelease() {
	// No-op
}

// RecordCompletion discards the completion metric.
func (n *NopMetrics) RecordCompletion() {
	// No-op
}

// RecordPropagation discards the propagation latency metric.
func (n *NopMetrics) RecordPropagation(_ /* event */ string, _ /* seconds */ float64) {
	// No-op
}

// RecordEventDropped discards the dropped event counter.
func (n *NopMetrics) RecordEventDropped() {
	// No-op
}

// RecordObserverCount discards the observer count gauge.
func (n *NopMetrics) RecordObserverCount(_ /* count */ int) {
	// No-op
}

// RecordReconcileDemotions discards the reconcile demotion metric.
func (n *NopMetrics) RecordReconcileDemotions(_ /* count */ int) {
	// No-op
}
