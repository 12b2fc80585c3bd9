package worklist

import (
	"time"

	"github.com/jcvera13/radiology-worklist/types"
)

// Option configures a Coordinator with optional dependencies.
type Option func(*coordinatorOptions)

// coordinatorOptions holds optional Coordinator configuration.
type coordinatorOptions struct {
	logger  types.Logger
	metrics types.MetricsCollector
	audit   types.AuditSink
	now     func() time.Time
}

// WithLogger sets a logger. Defaults to a no-op logger.
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	c, err := worklist.New(&cfg, deps, worklist.WithLogger(logger))
func WithLogger(logger types.Logger) Option {
	return func(o *coordinatorOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector. Defaults to a no-op collector.
//
// Example:
//
//	collector := metrics.NewPrometheus(nil, "worklist")
//	c, err := worklist.New(&cfg, deps, worklist.WithMetrics(collector))
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *coordinatorOptions) {
		o.metrics = metrics
	}
}

// WithAudit sets the audit sink every mutating operation reports to.
// Defaults to a no-op sink.
//
// Example:
//
//	sink := db.Audit()
//	c, err := worklist.New(&cfg, deps, worklist.WithAudit(sink))
func WithAudit(sink types.AuditSink) Option {
	return func(o *coordinatorOptions) {
		o.audit = sink
	}
}

// WithClock overrides the wall clock. Intended for tests that need
// deterministic timestamps and propagation measurements.
func WithClock(now func() time.Time) Option {
	return func(o *coordinatorOptions) {
		o.now = now
	}
}
