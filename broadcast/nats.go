package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/jcvera13/radiology-worklist/types"
)

// ErrBridgeStarted is returned when Start is called on a running bridge.
var ErrBridgeStarted = errors.New("bridge already started")

// Bridge mirrors hub events onto NATS subjects so observers on other nodes
// see state transitions without polling the durable store.
//
// Each event is published as JSON to "<prefix>.events.<type>", e.g.
// "worklist.events.item.locked". Remote consumers subscribe with the
// "<prefix>.events.>" wildcard.
type Bridge struct {
	nc      *nats.Conn
	hub     *Hub
	prefix  string
	logger  types.Logger

	mu          sync.Mutex
	started     bool
	unsubscribe func()
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewBridge creates a bridge between the hub and a NATS connection. The
// connection is owned by the caller.
func NewBridge(nc *nats.Conn, hub *Hub, subjectPrefix string, logger types.Logger) *Bridge {
	return &Bridge{
		nc:     nc,
		hub:    hub,
		prefix: subjectPrefix,
		logger: logger,
	}
}

// Start subscribes to the hub and begins forwarding events to NATS.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return ErrBridgeStarted
	}

	ch, unsubscribe := b.hub.Subscribe()
	b.unsubscribe = unsubscribe
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	b.started = true

	go b.forwardLoop(ch, b.stopCh, b.doneCh)

	return nil
}

// Stop detaches from the hub and waits for the forward loop to drain.
// Stopping a bridge that was never started is a no-op.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	unsubscribe := b.unsubscribe
	stopCh, doneCh := b.stopCh, b.doneCh
	b.mu.Unlock()

	close(stopCh)
	unsubscribe()
	<-doneCh
}

// IsStarted reports whether the bridge is forwarding.
func (b *Bridge) IsStarted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.started
}

// Subject returns the NATS subject an event type is published on.
func (b *Bridge) Subject(eventType types.EventType) string {
	return fmt.Sprintf("%s.events.%s", b.prefix, eventType)
}

// WildcardSubject returns the subject pattern matching every event published
// by this bridge.
func (b *Bridge) WildcardSubject() string {
	return b.prefix + ".events.>"
}

// SubscribeRemote delivers events published by other nodes on the same
// subject prefix. The returned unsubscribe function must be called to release
// the NATS subscription.
func (b *Bridge) SubscribeRemote(handler func(types.Event)) (func(), error) {
	sub, err := b.nc.Subscribe(b.WildcardSubject(), func(msg *nats.Msg) {
		var event types.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.logger.Warn("discarding malformed remote event",
				"subject", msg.Subject,
				"error", err)

			return
		}

		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe remote events: %w", err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("failed to unsubscribe remote events", "error", err)
		}
	}, nil
}

func (b *Bridge) forwardLoop(ch <-chan types.Event, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			b.publish(event)
		}
	}
}

func (b *Bridge) publish(event types.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to marshal event", "event", event.Type, "error", err)

		return
	}

	if err := b.nc.Publish(b.Subject(event.Type), payload); err != nil {
		b.logger.Warn("failed to publish event",
			"event", event.Type,
			"item_id", event.ItemID,
			"error", err)
	}
}
