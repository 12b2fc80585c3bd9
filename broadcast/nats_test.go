package broadcast_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/jcvera13/radiology-worklist/broadcast"
	"github.com/jcvera13/radiology-worklist/internal/logger"
	"github.com/jcvera13/radiology-worklist/internal/metrics"
	wltest "github.com/jcvera13/radiology-worklist/testing"
	"github.com/jcvera13/radiology-worklist/types"
)

func TestBridge_ForwardsHubEvents(t *testing.T) {
	_, nc := wltest.StartEmbeddedNATS(t)

	hub := broadcast.NewHub(4, logger.NewNop(), metrics.NewNop())
	defer hub.Close()

	bridge := broadcast.NewBridge(nc, hub, "worklist", wltest.NewTestLogger(t))
	require.NoError(t, bridge.Start())
	defer bridge.Stop()

	require.ErrorIs(t, bridge.Start(), broadcast.ErrBridgeStarted)
	require.True(t, bridge.IsStarted())

	received := make(chan types.Event, 1)
	sub, err := nc.Subscribe(bridge.Subject(types.EventItemLocked), func(msg *nats.Msg) {
		var event types.Event
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		received <- event
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, nc.Flush())

	hub.Publish(types.Event{
		Type:        types.EventItemLocked,
		ItemID:      "i1",
		WorkerID:    "w1",
		At:          time.Now(),
		Propagation: 12 * time.Millisecond,
	})

	select {
	case event := <-received:
		require.Equal(t, types.EventItemLocked, event.Type)
		require.Equal(t, "i1", event.ItemID)
		require.Equal(t, "w1", event.WorkerID)
		require.Equal(t, 12*time.Millisecond, event.Propagation)
	case <-time.After(2 * time.Second):
		t.Fatal("event did not arrive over NATS")
	}
}

func TestBridge_SubscribeRemote(t *testing.T) {
	_, nc := wltest.StartEmbeddedNATS(t)

	hub := broadcast.NewHub(4, logger.NewNop(), metrics.NewNop())
	defer hub.Close()

	bridge := broadcast.NewBridge(nc, hub, "worklist", wltest.NewTestLogger(t))

	received := make(chan types.Event, 1)
	unsubscribe, err := bridge.SubscribeRemote(func(event types.Event) {
		received <- event
	})
	require.NoError(t, err)
	defer unsubscribe()
	require.NoError(t, nc.Flush())

	// Simulate another node publishing on the shared prefix.
	payload, err := json.Marshal(types.Event{Type: types.EventItemCompleted, ItemID: "i2"})
	require.NoError(t, err)
	require.NoError(t, nc.Publish("worklist.events.item.completed", payload))

	select {
	case event := <-received:
		require.Equal(t, types.EventItemCompleted, event.Type)
		require.Equal(t, "i2", event.ItemID)
	case <-time.After(2 * time.Second):
		t.Fatal("remote event did not arrive")
	}
}

func TestBridge_StopIsIdempotent(t *testing.T) {
	_, nc := wltest.StartEmbeddedNATS(t)

	hub := broadcast.NewHub(4, logger.NewNop(), metrics.NewNop())
	defer hub.Close()

	bridge := broadcast.NewBridge(nc, hub, "worklist", logger.NewNop())

	// Stop before start is a no-op.
	require.NotPanics(t, bridge.Stop)

	require.NoError(t, bridge.Start())
	bridge.Stop()
	require.False(t, bridge.IsStarted())
	require.NotPanics(t, bridge.Stop)

	// A stopped bridge can be started again.
	require.NoError(t, bridge.Start())
	bridge.Stop()
}
