package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradecli/internal/moderation"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	client := &Client{hub: hub, send: make(chan []byte, 4), id: "test-client"}
	hub.Register(client)

	// Registration goes through the run loop
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(TypeModerationComplete, ModerationEvent{
		GradebookID: "gb-1",
		RunID:       "run-1",
		Summary:     moderation.Summary{Count: 6, MeanAdjusted: 65},
	})

	select {
	case payload := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, TypeModerationComplete, msg.Type)
		assert.False(t, msg.Timestamp.IsZero())

		data, ok := msg.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "gb-1", data["gradebook_id"])
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	client := &Client{hub: hub, send: make(chan []byte, 4), id: "test-client"}
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	// Send channel is closed on unregister
	_, open := <-client.send
	assert.False(t, open)
}

func TestHubStartIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()
}

func TestNotifyModerationComplete(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	client := &Client{hub: hub, send: make(chan []byte, 4), id: "test-client"}
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.NotifyModerationComplete("gb-2", "run-2", moderation.Summary{Count: 3})

	select {
	case payload := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, TypeModerationComplete, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
}
