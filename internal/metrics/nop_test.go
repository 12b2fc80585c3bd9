package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewNop(t *testing.T) {
	metrics := NewNop()

	require.NotNil(t, metrics)
	require.IsType(t, &NopMetrics{}, metrics)
}

func TestNopMetrics_AllMethods(t *testing.T) {
	metrics := NewNop()

	// Should not panic with various inputs
	require.NotPanics(t, func() {
		metrics.RecordAssignment("automatic", true)
		metrics.RecordAssignment("", false)
		metrics.RecordAssignDuration(0.25)
		metrics.RecordAssignDuration(-1)
		metrics.RecordLockAcquire(true)
		metrics.RecordLockAcquire(false)
		metrics.RecordLockRelease()
		metrics.RecordCompletion()
		metrics.RecordPropagation("item.locked", 0.1)
		metrics.RecordEventDropped()
		metrics.RecordObserverCount(3)
		metrics.RecordObserverCount(-1)
		metrics.RecordReconcileDemotions(2)
	})
}

func BenchmarkNopMetrics_RecordAssignment(b *testing.B) {
	metrics := NewNop()
	for b.Loop() {
		metrics.RecordAssignment("automatic", true)
	}
}

func BenchmarkNopMetrics_RecordPropagation(b *testing.B) {
	metrics := NewNop()
	for b.Loop() {
		metrics.RecordPropagation("item.locked", 0.05)
	}
}
