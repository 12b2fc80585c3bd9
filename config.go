package worklist

import (
	"fmt"
	"time"
)

// Config is the configuration for the Coordinator.
//
// All duration fields accept standard Go duration strings like "30s", "5m", "1h".
type Config struct {
	// KeyPrefix namespaces every key the engine writes to the coordination
	// store (locks, load counters, presence, assignment guards). Deployments
	// sharing one Redis instance must use distinct prefixes.
	KeyPrefix string `yaml:"keyPrefix"`

	// LockTTL is how long an item lock lives in the coordination store
	// without being extended. A worker that crashes while holding a lock
	// blocks the item for at most this long.
	// Recommended: 30 minutes (roughly the longest single handling session).
	LockTTL time.Duration `yaml:"lockTtl"`

	// AssignGuardTTL bounds how long a per-item assignment guard key can
	// outlive a crashed assignment attempt. The guard serializes concurrent
	// assign calls for the same item; it is deleted on completion, so the TTL
	// only matters when the process dies mid-decision.
	// Recommended: 10 seconds.
	AssignGuardTTL time.Duration `yaml:"assignGuardTtl"`

	// PresenceTTL is how long a worker's presence key remains valid without
	// a heartbeat refresh. Must be greater than HeartbeatInterval.
	// Recommended: 3-5x HeartbeatInterval.
	PresenceTTL time.Duration `yaml:"presenceTtl"`

	// HeartbeatInterval is how often a Heartbeater refreshes its worker's
	// presence key.
	// Recommended: PresenceTTL / 3.
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`

	// PeriodEnd is the hour of day (0-23, in the engine clock's location) at
	// which mirrored shift-load counters expire. Zero means midnight.
	PeriodEnd int `yaml:"periodEnd"`

	// ReconcileInterval is how often the background sweep started by
	// Coordinator.Start demotes stale durable locks and overwrites drifted
	// mirror counters. Zero disables the sweep entirely.
	ReconcileInterval time.Duration `yaml:"reconcileInterval"`

	// EventBuffer is the per-observer event channel capacity. An observer
	// that falls more than EventBuffer events behind starts losing events
	// and must resynchronize from the durable store.
	EventBuffer int `yaml:"eventBuffer"`

	// OperationTimeout bounds each coordination-store round trip made inside
	// an engine operation that was given an unbounded context.
	// Recommended: 10 seconds.
	OperationTimeout time.Duration `yaml:"operationTimeout"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:         "worklist",
		LockTTL:           30 * time.Minute,
		AssignGuardTTL:    10 * time.Second,
		PresenceTTL:       5 * time.Minute,
		HeartbeatInterval: 90 * time.Second,
		ReconcileInterval: time.Minute,
		EventBuffer:       16,
		OperationTimeout:  10 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.AssignGuardTTL == 0 {
		cfg.AssignGuardTTL = defaults.AssignGuardTTL
	}
	if cfg.PresenceTTL == 0 {
		cfg.PresenceTTL = defaults.PresenceTTL
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if cfg.EventBuffer == 0 {
		cfg.EventBuffer = defaults.EventBuffer
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	// Note: ReconcileInterval of 0 is valid (sweep disabled) and PeriodEnd of
	// 0 is valid (midnight), so neither gets a default.
}

// Validate checks configuration constraints and returns an error for invalid
// values.
//
// Rules:
//   - LockTTL > 0 (a lock must expire eventually)
//   - AssignGuardTTL > 0 (a crashed assignment must not block the item forever)
//   - PresenceTTL >= 2*HeartbeatInterval (allow one missed heartbeat)
//   - EventBuffer > 0 (an unbuffered channel would drop nearly everything)
//   - ReconcileInterval >= 0
//   - PeriodEnd in [0, 23]
func (cfg *Config) Validate() error {
	if cfg.LockTTL <= 0 {
		return fmt.Errorf("%w: LockTTL must be > 0, got %v", ErrInvalidConfig, cfg.LockTTL)
	}
	if cfg.AssignGuardTTL <= 0 {
		return fmt.Errorf("%w: AssignGuardTTL must be > 0, got %v", ErrInvalidConfig, cfg.AssignGuardTTL)
	}
	if cfg.PresenceTTL < 2*cfg.HeartbeatInterval {
		return fmt.Errorf(
			"%w: PresenceTTL (%v) must be >= 2*HeartbeatInterval (%v) to allow one missed heartbeat",
			ErrInvalidConfig, cfg.PresenceTTL, cfg.HeartbeatInterval,
		)
	}
	if cfg.EventBuffer <= 0 {
		return fmt.Errorf("%w: EventBuffer must be > 0, got %d", ErrInvalidConfig, cfg.EventBuffer)
	}
	if cfg.ReconcileInterval < 0 {
		return fmt.Errorf("%w: ReconcileInterval must be >= 0, got %v", ErrInvalidConfig, cfg.ReconcileInterval)
	}
	if cfg.PeriodEnd < 0 || cfg.PeriodEnd > 23 {
		return fmt.Errorf("%w: PeriodEnd must be an hour in [0, 23], got %d", ErrInvalidConfig, cfg.PeriodEnd)
	}

	return nil
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Test timings are 10-100x faster than production defaults to enable rapid
// iteration without sacrificing coverage. Use DefaultConfig() for production
// deployments.
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.KeyPrefix = "worklist-test"
	cfg.LockTTL = 5 * time.Second
	cfg.AssignGuardTTL = time.Second
	cfg.PresenceTTL = 2 * time.Second
	cfg.HeartbeatInterval = 500 * time.Millisecond
	cfg.ReconcileInterval = 100 * time.Millisecond
	cfg.OperationTimeout = 2 * time.Second

	return cfg
}
