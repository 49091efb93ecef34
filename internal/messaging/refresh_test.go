// internal/messaging/refresh_test.go

package messaging

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventSource tracks subscriptions and delivers events synchronously
type fakeEventSource struct {
	mu       sync.Mutex
	handlers map[int]func(ChangeEvent)
	nextID   int
}

func newFakeEventSource() *fakeEventSource {
	return &fakeEventSource{handlers: make(map[int]func(ChangeEvent))}
}

func (s *fakeEventSource) Subscribe(fn func(ChangeEvent)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.handlers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}
}

func (s *fakeEventSource) emit(event ChangeEvent) {
	s.mu.Lock()
	handlers := make([]func(ChangeEvent), 0, len(s.handlers))
	for _, fn := range s.handlers {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(event)
	}
}

func (s *fakeEventSource) handlerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

type refreshRecorder struct {
	mu           sync.Mutex
	messageCalls []string
	listCalls    int
}

func (r *refreshRecorder) refreshMessages(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messageCalls = append(r.messageCalls, conversationID)
}

func (r *refreshRecorder) refreshList() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
}

func (r *refreshRecorder) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.messageCalls...), r.listCalls
}

func newCoordinator() (*RefreshCoordinator, *fakeEventSource, *refreshRecorder) {
	source := newFakeEventSource()
	rec := &refreshRecorder{}
	return NewRefreshCoordinator(source, rec.refreshMessages, rec.refreshList), source, rec
}

func TestMessageInsertedRefreshesOpenConversationAndList(t *testing.T) {
	coord, source, rec := newCoordinator()
	coord.Open("conv-1")
	defer coord.Close()

	source.emit(ChangeEvent{Type: EventMessageInserted, ConversationID: "conv-1", Timestamp: time.Now()})

	messageCalls, listCalls := rec.snapshot()
	assert.Equal(t, []string{"conv-1"}, messageCalls)
	assert.Equal(t, 1, listCalls)
}

func TestMessageInsertedElsewhereRefreshesListOnly(t *testing.T) {
	coord, source, rec := newCoordinator()
	coord.Open("conv-1")
	defer coord.Close()

	source.emit(ChangeEvent{Type: EventMessageInserted, ConversationID: "conv-other", Timestamp: time.Now()})

	messageCalls, listCalls := rec.snapshot()
	assert.Empty(t, messageCalls, "messages of the open conversation are untouched")
	assert.Equal(t, 1, listCalls)
}

func TestParticipantUpdatedRefreshesListOnly(t *testing.T) {
	coord, source, rec := newCoordinator()
	coord.Open("conv-1")
	defer coord.Close()

	source.emit(ChangeEvent{Type: EventParticipantUpdated, ConversationID: "conv-1", Timestamp: time.Now()})

	messageCalls, listCalls := rec.snapshot()
	assert.Empty(t, messageCalls)
	assert.Equal(t, 1, listCalls)
}

func TestCloseReleasesSubscription(t *testing.T) {
	coord, source, rec := newCoordinator()

	coord.Open("conv-1")
	require.Equal(t, 1, source.handlerCount())

	coord.Close()
	assert.Equal(t, 0, source.handlerCount(), "subscription torn down on close")

	// Events after close reach nobody.
	source.emit(ChangeEvent{Type: EventMessageInserted, ConversationID: "conv-1"})
	messageCalls, listCalls := rec.snapshot()
	assert.Empty(t, messageCalls)
	assert.Equal(t, 0, listCalls)
}

func TestOpenCloseCyclesDoNotAccumulateHandlers(t *testing.T) {
	coord, source, _ := newCoordinator()

	for i := 0; i < 25; i++ {
		coord.Open("conv-1")
		coord.Close()
	}
	assert.Equal(t, 0, source.handlerCount())

	coord.Open("conv-1")
	assert.Equal(t, 1, source.handlerCount(), "exactly one live subscription regardless of history")
	coord.Close()
	assert.Equal(t, 0, source.handlerCount())
}

func TestNestedOpensShareOneSubscription(t *testing.T) {
	coord, source, _ := newCoordinator()

	coord.Open("conv-1")
	coord.Open("conv-2")
	assert.Equal(t, 1, source.handlerCount())

	coord.Close()
	assert.Equal(t, 1, source.handlerCount(), "still one open view")
	coord.Close()
	assert.Equal(t, 0, source.handlerCount())
}

func TestCloseWithoutOpenIsHarmless(t *testing.T) {
	coord, source, _ := newCoordinator()
	coord.Close()
	coord.Close()
	assert.Equal(t, 0, source.handlerCount())
}
