// internal/messaging/hub_test.go

package messaging

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSubscribePublish(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	var mu sync.Mutex
	received := []ChangeEvent{}
	cancel := hub.Subscribe(func(e ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
	})
	defer cancel()

	hub.Publish(ChangeEvent{Type: EventMessageInserted, ConversationID: "c1", Timestamp: time.Now()})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, EventMessageInserted, received[0].Type)
	assert.Equal(t, "c1", received[0].ConversationID)
	mu.Unlock()
}

func TestHubCancelStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	var mu sync.Mutex
	count := 0
	cancel := hub.Subscribe(func(e ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})

	hub.Publish(ChangeEvent{Type: EventMessageInserted, ConversationID: "c1"})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.Equal(t, 0, hub.SubscriberCount())

	hub.Publish(ChangeEvent{Type: EventMessageInserted, ConversationID: "c1"})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, count, "no delivery after cancel")
	mu.Unlock()
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub()

	cancel := hub.Subscribe(func(ChangeEvent) {})
	require.Equal(t, 1, hub.SubscriberCount())

	cancel()
	cancel()
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHubShutdownStopsRunLoop(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	hub.Shutdown()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub run loop did not stop")
	}
}
