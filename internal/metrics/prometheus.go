package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jcvera13/radiology-worklist/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metric registration is deferred until first use so that constructing the
// collector is cheap and never panics on a registry that already carries the
// metrics from a previous instance.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	assignments        *prometheus.CounterVec
	assignDuration     prometheus.Histogram
	lockAcquires       *prometheus.CounterVec
	lockReleases       prometheus.Counter
	completions        prometheus.Counter
	propagation        *prometheus.HistogramVec
	eventsDropped      prometheus.Counter
	observerCount      prometheus.Gauge
	reconcileDemotions prometheus.Counter
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "worklist" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "worklist"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "attempts_total",
			Help:      "Total assignment attempts by mechanism and outcome.",
		}, []string{"mechanism", "result"})

		p.assignDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "duration_seconds",
			Help:      "Latency of assignment decisions in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~4s
		})

		p.lockAcquires = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lock",
			Name:      "acquires_total",
			Help:      "Total lock acquisition attempts by outcome (acquired|conflict).",
		}, []string{"result"})

		p.lockReleases = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lock",
			Name:      "releases_total",
			Help:      "Total lock releases, including reconciliation demotions.",
		})

		p.completions = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "item",
			Name:      "completions_total",
			Help:      "Total terminal item completions.",
		})

		p.propagation = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "broadcast",
			Name:      "propagation_seconds",
			Help:      "Wall-clock delta from state transition to broadcast by event type.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"event"})

		p.eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "broadcast",
			Name:      "events_dropped_total",
			Help:      "Events dropped because an observer's buffer was full.",
		})

		p.observerCount = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "broadcast",
			Name:      "observers_current",
			Help:      "Current number of connected observers.",
		})

		p.reconcileDemotions = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "reconcile",
			Name:      "lock_demotions_total",
			Help:      "Durably locked items demoted because their ephemeral lock expired.",
		})

		p.reg.MustRegister(p.assignments)
		p.reg.MustRegister(p.assignDuration)
		p.reg.MustRegister(p.lockAcquires)
		p.reg.MustRegister(p.lockReleases)
		p.reg.MustRegister(p.completions)
		p.reg.MustRegister(p.propagation)
		p.reg.MustRegister(p.eventsDropped)
		p.reg.MustRegister(p.observerCount)
		p.reg.MustRegister(p.reconcileDemotions)
	})
}

// RecordAssignment records an assignment attempt by mechanism and outcome.
func (p *PrometheusCollector) RecordAssignment(mechanism string, success bool) {
	p.ensureRegistered()
	result := "failure"
	if success {
		result = "success"
	}
	p.assignments.WithLabelValues(mechanism, result).Inc()
}

// RecordAssignDuration observes an assignment decision latency.
func (p *PrometheusCollector) RecordAssignDuration(seconds float64) {
	p.ensureRegistered()
	p.assignDuration.Observe(seconds)
}

// RecordLockAcquire records a lock acquisition attempt outcome.
func (p *PrometheusCollector) RecordLockAcquire(acquired bool) {
	p.ensureRegistered()
	result := "conflict"
	if acquired {
		result = "acquired"
	}
	p.lockAcquires.WithLabelValues(result).Inc()
}

// RecordLockRelease increments the lock release counter.
func (p *PrometheusCollector) RecordLockRelease() {
	p.ensureRegistered()
	p.lockReleases.Inc()
}

// RecordCompletion increments the completion counter.
func (p *PrometheusCollector) RecordCompletion() {
	p.ensureRegistered()
	p.completions.Inc()
}

// RecordPropagation observes event fan-out latency by event type.
func (p *PrometheusCollector) RecordPropagation(event string, seconds float64) {
	p.ensureRegistered()
	p.propagation.WithLabelValues(event).Observe(seconds)
}

// RecordEventDropped increments the dropped event counter.
func (p *PrometheusCollector) RecordEventDropped() {
	p.ensureRegistered()
	p.eventsDropped.Inc()
}

// RecordObserverCount sets the connected observer gauge.
func (p *PrometheusCollector) RecordObserverCount(count int) {
	p.ensureRegistered()
	p.observerCount.Set(float64(count))
}

// RecordReconcileDemotions adds to the demotion counter.
func (p *PrometheusCollector) RecordReconcileDemotions(count int) {
	p.ensureRegistered()
	p.reconcileDemotions.Add(float64(count))
}
