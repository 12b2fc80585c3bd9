package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jcvera13/radiology-worklist/internal/logger"
	"github.com/jcvera13/radiology-worklist/internal/metrics"
	"github.com/jcvera13/radiology-worklist/types"
)

func newTestHub() *Hub {
	return NewHub(4, logger.NewNop(), metrics.NewNop())
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	ch1, unsub1 := hub.Subscribe()
	defer unsub1()
	ch2, unsub2 := hub.Subscribe()
	defer unsub2()

	require.Equal(t, 2, hub.Observers())

	event := types.Event{Type: types.EventItemAssigned, ItemID: "i1", WorkerID: "w1", At: time.Now()}
	hub.Publish(event)

	for _, ch := range []<-chan types.Event{ch1, ch2} {
		select {
		case got := <-ch:
			require.Equal(t, types.EventItemAssigned, got.Type)
			require.Equal(t, "i1", got.ItemID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	unsubscribe()

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, hub.Observers())

	// Double unsubscribe is a no-op.
	require.NotPanics(t, unsubscribe)
}

func TestHub_SlowSubscriberLosesEvents(t *testing.T) {
	hub := NewHub(2, logger.NewNop(), metrics.NewNop())
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	// Fill the buffer and then some; excess events are dropped, never blocked on.
	for i := 0; i < 5; i++ {
		hub.Publish(types.Event{Type: types.EventItemCreated, ItemID: "i1"})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			require.Equal(t, 2, received)
			return
		}
	}
}

func TestHub_Close(t *testing.T) {
	hub := newTestHub()

	ch, _ := hub.Subscribe()
	hub.Close()

	_, ok := <-ch
	require.False(t, ok)

	// Publishing after close is a no-op.
	require.NotPanics(t, func() {
		hub.Publish(types.Event{Type: types.EventItemCreated})
	})

	// Close is idempotent.
	require.NotPanics(t, hub.Close)
}

func TestHub_SubscribeAfterClose(t *testing.T) {
	hub := newTestHub()
	hub.Close()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	// The channel comes back already closed so a range loop exits at once,
	// and the dead subscriber is not counted as an observer.
	_, ok := <-ch
	require.False(t, ok)
	require.Zero(t, hub.Observers())
}

func TestHub_LateSubscriberMissesEarlierEvents(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	hub.Publish(types.Event{Type: types.EventItemCreated, ItemID: "i1"})

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
