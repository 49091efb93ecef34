// internal/messaging/hub.go

package messaging

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Hub fans conversation change events out to connected websocket clients and
// to in-process subscribers. Events for a conversation reach its participants
// only.
type Hub struct {
	// Registered clients, one connection per user
	clients    map[string]*Client
	clientsMux sync.RWMutex

	// Event broadcast channel
	events chan ChangeEvent

	// Register/unregister clients
	register   chan *Client
	unregister chan *Client

	// In-process subscribers, keyed by subscription id
	subscribers    map[uint64]func(ChangeEvent)
	subscribersMux sync.RWMutex
	nextSubID      uint64

	service Service

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewHub creates a hub. SetService must be called before Run when the
// service is constructed after the hub (the service publishes through the
// hub, so the two reference each other).
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:     make(map[string]*Client),
		events:      make(chan ChangeEvent, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribers: make(map[uint64]func(ChangeEvent)),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetService wires the messaging service used to resolve participants
func (h *Hub) SetService(service Service) {
	h.service = service
}

func (h *Hub) Run() {
	defer h.cleanup()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.events:
			h.dispatch(event)

		case <-h.ctx.Done():
			return
		}
	}
}

// Publish queues an event for fan-out. Never blocks the caller; if the hub
// is saturated or stopped the event is dropped with a log line.
func (h *Hub) Publish(event ChangeEvent) {
	select {
	case h.events <- event:
	case <-h.ctx.Done():
	default:
		log.Printf("⚠️ Event queue full, dropping %s for conversation %s", event.Type, event.ConversationID)
	}
}

// Subscribe registers an in-process event handler and returns the function
// that releases it. Callers own the release: every Subscribe must be paired
// with a call to the returned cancel, typically via defer.
func (h *Hub) Subscribe(fn func(ChangeEvent)) (cancel func()) {
	h.subscribersMux.Lock()
	h.nextSubID++
	id := h.nextSubID
	h.subscribers[id] = fn
	h.subscribersMux.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.subscribersMux.Lock()
			delete(h.subscribers, id)
			h.subscribersMux.Unlock()
		})
	}
}

// SubscriberCount reports the number of live in-process subscriptions
func (h *Hub) SubscriberCount() int {
	h.subscribersMux.RLock()
	defer h.subscribersMux.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	// Replace any old connection for the same user
	if oldClient, exists := h.clients[client.userID]; exists {
		oldClient.close()
	}
	h.clients[client.userID] = client
	activeConnections.Set(float64(len(h.clients)))

	log.Printf("User %s connected. Total clients: %d", client.userID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	if current, exists := h.clients[client.userID]; exists && current == client {
		client.close()
		delete(h.clients, client.userID)
		activeConnections.Set(float64(len(h.clients)))

		log.Printf("User %s disconnected. Total clients: %d", client.userID, len(h.clients))
	}
}

// dispatch delivers one event to in-process subscribers and to the websocket
// connections of the conversation's participants.
func (h *Hub) dispatch(event ChangeEvent) {
	h.subscribersMux.RLock()
	for _, fn := range h.subscribers {
		fn(event)
	}
	h.subscribersMux.RUnlock()

	if h.service == nil {
		return
	}

	participants, err := h.service.GetParticipants(h.ctx, event.ConversationID)
	if err != nil {
		log.Printf("⚠️ Failed to resolve participants for event fan-out: %v", err)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling event: %v", err)
		return
	}

	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	for _, p := range participants {
		client, exists := h.clients[p.UserID]
		if !exists {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the connection
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// IsUserOnline reports whether a user has a live websocket connection
func (h *Hub) IsUserOnline(userID string) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// GetActiveConnections returns the number of connected clients
func (h *Hub) GetActiveConnections() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// Shutdown stops the run loop and closes every connection
func (h *Hub) Shutdown() {
	h.cancel()
	h.wg.Wait()
}

func (h *Hub) cleanup() {
	h.clientsMux.Lock()
	for _, client := range h.clients {
		client.close()
	}
	h.clients = make(map[string]*Client)
	activeConnections.Set(0)
	h.clientsMux.Unlock()
}
