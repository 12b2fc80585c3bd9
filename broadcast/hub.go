// Package broadcast fans out state-transition events to connected observers.
//
// The hub is the in-process propagation path: every mutating engine operation
// emits one Event, and every subscriber receives it on a buffered channel.
// Delivery is best-effort; a subscriber that cannot keep up loses events
// rather than slowing the engine, and resynchronizes from the durable store.
package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/jcvera13/radiology-worklist/types"
)

// Hub is the in-process event broadcaster.
type Hub struct {
	logger  types.Logger
	metrics types.MetricsCollector

	subscribers  *xsync.Map[uint64, *subscriber]
	nextSubID    atomic.Uint64
	subCount     atomic.Int64
	bufferSize   int
	closed       atomic.Bool
}

// subscriber wraps one observer channel. The mutex serializes sends against
// close so a dropped observer never panics the publisher.
type subscriber struct {
	ch     chan types.Event
	mu     sync.Mutex
	closed bool
}

// NewHub creates a hub whose subscriber channels buffer bufferSize events.
func NewHub(bufferSize int, logger types.Logger, metrics types.MetricsCollector) *Hub {
	return &Hub{
		logger:      logger,
		metrics:     metrics,
		subscribers: xsync.NewMap[uint64, *subscriber](),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers an observer and returns its event channel together with
// an unsubscribe function. The channel is closed on unsubscribe or hub close.
//
// Example:
//
//	ch, unsubscribe := hub.Subscribe()
//	defer unsubscribe()
//	for ev := range ch {
//	    handle(ev)
//	}
func (h *Hub) Subscribe() (<-chan types.Event, func()) {
	if h.closed.Load() {
		// The hub is shut down; hand back an already-closed channel so the
		// observer's range loop exits immediately.
		ch := make(chan types.Event)
		close(ch)

		return ch, func() {}
	}

	id := h.nextSubID.Add(1)

	sub := &subscriber{ch: make(chan types.Event, h.bufferSize)}
	h.subscribers.Store(id, sub)
	h.metrics.RecordObserverCount(int(h.subCount.Add(1)))

	// Close may have raced the Store above; re-check so the subscriber never
	// outlives the hub with an open channel.
	if h.closed.Load() {
		h.removeSubscriber(id)
	}

	unsubscribe := func() {
		h.removeSubscriber(id)
	}

	return sub.ch, unsubscribe
}

// Publish delivers the event to every subscriber without blocking. Slow
// subscribers with a full buffer lose the event.
func (h *Hub) Publish(event types.Event) {
	if h.closed.Load() {
		return
	}

	h.metrics.RecordPropagation(string(event.Type), event.Propagation.Seconds())

	h.subscribers.Range(func(_ uint64, sub *subscriber) bool {
		if !sub.trySend(event) {
			h.metrics.RecordEventDropped()
			h.logger.Warn("event dropped for slow observer",
				"event", event.Type,
				"item_id", event.ItemID)
		}

		return true
	})
}

// Observers returns the current number of connected observers.
func (h *Hub) Observers() int {
	return int(h.subCount.Load())
}

// Close disconnects every observer and stops further publishes.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}

	h.subscribers.Range(func(id uint64, _ *subscriber) bool {
		h.removeSubscriber(id)
		return true
	})
}

func (h *Hub) removeSubscriber(id uint64) {
	if sub, ok := h.subscribers.LoadAndDelete(id); ok {
		sub.close()
		h.metrics.RecordObserverCount(int(h.subCount.Add(-1)))
	}
}

// trySend reports whether the event was delivered.
func (s *subscriber) trySend(event types.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}

	select {
	case s.ch <- event:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
