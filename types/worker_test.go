package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorker_HasSkill(t *testing.T) {
	t.Run("direct skill match", func(t *testing.T) {
		w := &Worker{Skills: []string{"Chest", "Body"}}

		require.True(t, w.HasSkill("Chest"))
		require.True(t, w.HasSkill("Body"))
		require.False(t, w.HasSkill("Neuro"))
	})

	t.Run("wildcard matches any skill", func(t *testing.T) {
		w := &Worker{Skills: []string{SkillGeneral}}

		require.True(t, w.HasSkill("Chest"))
		require.True(t, w.HasSkill("Neuro"))
	})
}

func TestWorker_CanAccept(t *testing.T) {
	w := &Worker{Ceiling: 10, CurrentLoad: 8.5}

	require.True(t, w.CanAccept(1.5))
	require.False(t, w.CanAccept(1.6))
}

func TestWorker_IsAvailable(t *testing.T) {
	require.True(t, (&Worker{Availability: Available}).IsAvailable())
	require.False(t, (&Worker{Availability: Busy}).IsAvailable())
	require.False(t, (&Worker{Availability: Offline}).IsAvailable())
}

func TestAvailability_Valid(t *testing.T) {
	require.True(t, Available.Valid())
	require.True(t, Busy.Valid())
	require.True(t, Offline.Valid())
	require.False(t, Availability("sleeping").Valid())
}
