package worklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jcvera13/radiology-worklist/types"
)

func TestWorkload(t *testing.T) {
	env := newTestEngine(t)
	env.addWorker(t, "w-a", "Alice", []string{types.SkillGeneral}, 10, 0)
	env.addItem(t, "item-1", "Chest", 2.0)
	env.addItem(t, "item-2", "Chest", 1.0)
	env.addItem(t, "item-3", "Chest", 1.0)

	for _, id := range []string{"item-1", "item-2", "item-3"} {
		result, err := env.coord.Assign(t.Context(), id)
		require.NoError(t, err)
		require.True(t, result.Success)
	}
	require.NoError(t, env.coord.Lock(t.Context(), "item-2", "w-a"))
	require.NoError(t, env.coord.Complete(t.Context(), "item-3", "w-a"))

	w, err := env.coord.Workload(t.Context(), "w-a")
	require.NoError(t, err)
	require.Equal(t, "w-a", w.WorkerID)
	require.Equal(t, "Alice", w.WorkerName)
	require.InDelta(t, 4.0, w.CurrentLoad, 1e-9)
	require.InDelta(t, 10.0, w.Ceiling, 1e-9)
	require.InDelta(t, 40.0, w.UtilizationPct, 1e-9)
	require.Equal(t, 1, w.Assigned)
	require.Equal(t, 1, w.Locked)
	require.Equal(t, 1, w.Completed)
}

func TestWorkloadUnknownWorker(t *testing.T) {
	env := newTestEngine(t)

	_, err := env.coord.Workload(t.Context(), "ghost")
	require.ErrorIs(t, err, types.ErrWorkerNotFound)
}

func TestFairnessReport(t *testing.T) {
	t.Run("shares and totals", func(t *testing.T) {
		env := newTestEngine(t)
		env.addWorker(t, "w-a", "Alice", []string{types.SkillGeneral}, 100, 0)
		env.addWorker(t, "w-b", "Bob", []string{types.SkillGeneral}, 100, 0)

		// Four equal-weight items alternate between the two workers under
		// the fairness rule.
		for _, id := range []string{"item-1", "item-2", "item-3", "item-4"} {
			env.addItem(t, id, "Chest", 2.0)
			result, err := env.coord.Assign(t.Context(), id)
			require.NoError(t, err)
			require.True(t, result.Success)
		}

		from := env.clock.Now().Add(-time.Hour)
		to := env.clock.Now().Add(time.Hour)

		report, err := env.coord.FairnessReport(t.Context(), from, to)
		require.NoError(t, err)
		require.Equal(t, 4, report.TotalAssignments)
		require.InDelta(t, 8.0, report.TotalCharged, 1e-9)
		require.Len(t, report.Shares, 2)
		for _, share := range report.Shares {
			require.Equal(t, 2, share.Assignments)
			require.InDelta(t, 4.0, share.Charged, 1e-9)
		}

		// Perfectly even spread.
		require.InDelta(t, 1.0, report.Score, 1e-9)
	})

	t.Run("skew lowers the score", func(t *testing.T) {
		env := newTestEngine(t)
		env.addWorker(t, "w-a", "Alice", []string{"Chest"}, 100, 0)
		env.addWorker(t, "w-b", "Bob", []string{"Neuro"}, 100, 0)

		env.addItem(t, "item-1", "Chest", 6.0)
		env.addItem(t, "item-2", "Chest", 2.0)
		env.addItem(t, "item-3", "Neuro", 1.0)

		for _, id := range []string{"item-1", "item-2", "item-3"} {
			result, err := env.coord.Assign(t.Context(), id)
			require.NoError(t, err)
			require.True(t, result.Success)
		}

		from := env.clock.Now().Add(-time.Hour)
		to := env.clock.Now().Add(time.Hour)

		report, err := env.coord.FairnessReport(t.Context(), from, to)
		require.NoError(t, err)
		require.Len(t, report.Shares, 2)

		// Ordered by charged weight descending: Alice had 8, Bob had 1.
		require.Equal(t, "w-a", report.Shares[0].WorkerID)
		require.InDelta(t, 8.0, report.Shares[0].Charged, 1e-9)
		require.Equal(t, "w-b", report.Shares[1].WorkerID)
		require.InDelta(t, 1.0, report.Shares[1].Charged, 1e-9)

		require.Less(t, report.Score, 0.5)
	})

	t.Run("window filters records", func(t *testing.T) {
		env := newTestEngine(t)
		env.addWorker(t, "w-a", "Alice", []string{types.SkillGeneral}, 100, 0)
		env.addItem(t, "item-1", "Chest", 1.0)

		result, err := env.coord.Assign(t.Context(), "item-1")
		require.NoError(t, err)
		require.True(t, result.Success)

		// A window entirely before the assignment sees nothing.
		to := env.clock.Now().Add(-time.Minute)
		from := to.Add(-time.Hour)

		report, err := env.coord.FairnessReport(t.Context(), from, to)
		require.NoError(t, err)
		require.Zero(t, report.TotalAssignments)
		require.Empty(t, report.Shares)
		require.InDelta(t, 1.0, report.Score, 1e-9)
	})
}

func TestFairnessScore(t *testing.T) {
	require.InDelta(t, 1.0, fairnessScore(nil), 1e-9)
	require.InDelta(t, 1.0, fairnessScore([]WorkerShare{{Charged: 0}, {Charged: 0}}), 1e-9)
	require.InDelta(t, 1.0, fairnessScore([]WorkerShare{{Charged: 5}, {Charged: 5}}), 1e-9)

	skewed := fairnessScore([]WorkerShare{{Charged: 10}, {Charged: 0}})
	require.Zero(t, skewed)
}
