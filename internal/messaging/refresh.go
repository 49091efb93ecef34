// internal/messaging/refresh.go

package messaging

import "sync"

// EventSource provides cancellable event subscriptions. The hub satisfies it.
type EventSource interface {
	Subscribe(fn func(ChangeEvent)) (cancel func())
}

// RefreshCoordinator turns change events into the two refreshes the
// messaging UI knows: reloading the open conversation's messages and
// reloading the conversation list. It holds at most one live subscription
// regardless of how many conversations are opened and closed; the
// subscription is released when the last open conversation closes.
type RefreshCoordinator struct {
	mu sync.Mutex

	source EventSource
	cancel func()

	openConversationID string
	refcount           int

	refreshMessages func(conversationID string)
	refreshList     func()
}

// NewRefreshCoordinator creates a coordinator. refreshMessages is invoked
// with the open conversation id when its messages need reloading;
// refreshList is invoked whenever the conversation list needs reloading.
func NewRefreshCoordinator(source EventSource, refreshMessages func(conversationID string), refreshList func()) *RefreshCoordinator {
	return &RefreshCoordinator{
		source:          source,
		refreshMessages: refreshMessages,
		refreshList:     refreshList,
	}
}

// Open marks a conversation as the visible one and ensures the event
// subscription is live. Every Open must be paired with a Close.
func (c *RefreshCoordinator) Open(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.openConversationID = conversationID
	c.refcount++
	if c.cancel == nil {
		c.cancel = c.source.Subscribe(c.handle)
	}
}

// Close releases one Open. When the last one is released the subscription
// is torn down; events arriving after that are ignored.
func (c *RefreshCoordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refcount == 0 {
		return
	}
	c.refcount--
	if c.refcount == 0 {
		c.openConversationID = ""
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
	}
}

func (c *RefreshCoordinator) handle(event ChangeEvent) {
	c.mu.Lock()
	open := c.openConversationID
	c.mu.Unlock()

	switch event.Type {
	case EventMessageInserted, EventConversationUpdated:
		if event.ConversationID == open && open != "" {
			c.refreshMessages(open)
		}
		c.refreshList()

	case EventParticipantUpdated:
		c.refreshList()
	}
}
