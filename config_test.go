package worklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	require.Equal(t, 30*time.Minute, cfg.LockTTL)
	require.Equal(t, 10*time.Second, cfg.AssignGuardTTL)
	require.Equal(t, 5*time.Minute, cfg.PresenceTTL)
	require.Equal(t, 90*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, time.Minute, cfg.ReconcileInterval)
	require.Equal(t, 16, cfg.EventBuffer)
	require.NotEmpty(t, cfg.KeyPrefix)
}

func TestSetDefaults(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)
		require.NoError(t, cfg.Validate())
	})

	t.Run("preserves explicit values", func(t *testing.T) {
		cfg := Config{LockTTL: time.Hour, EventBuffer: 64}
		SetDefaults(&cfg)
		require.Equal(t, time.Hour, cfg.LockTTL)
		require.Equal(t, 64, cfg.EventBuffer)
	})

	t.Run("zero reconcile interval survives", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ReconcileInterval = 0
		SetDefaults(&cfg)
		require.Zero(t, cfg.ReconcileInterval)
		require.NoError(t, cfg.Validate())
	})
}

func TestConfigValidate(t *testing.T) {
	mutate := func(f func(*Config)) Config {
		cfg := DefaultConfig()
		f(&cfg)

		return cfg
	}

	cases := []struct {
		name string
		cfg  Config
	}{
		{"non-positive lock ttl", mutate(func(c *Config) { c.LockTTL = 0 })},
		{"negative lock ttl", mutate(func(c *Config) { c.LockTTL = -time.Second })},
		{"non-positive guard ttl", mutate(func(c *Config) { c.AssignGuardTTL = 0 })},
		{"presence ttl shorter than two heartbeats", mutate(func(c *Config) {
			c.PresenceTTL = time.Second
			c.HeartbeatInterval = time.Second
		})},
		{"non-positive event buffer", mutate(func(c *Config) { c.EventBuffer = 0 })},
		{"negative reconcile interval", mutate(func(c *Config) { c.ReconcileInterval = -time.Second })},
		{"period end past 23", mutate(func(c *Config) { c.PeriodEnd = 24 })},
		{"negative period end", mutate(func(c *Config) { c.PeriodEnd = -1 })},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	require.NoError(t, cfg.Validate())
	require.Less(t, cfg.LockTTL, DefaultConfig().LockTTL)
}
