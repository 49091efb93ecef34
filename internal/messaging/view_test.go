// internal/messaging/view_test.go

package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote failure")

// fakeThreadRemote scripts remote behavior per call
type fakeThreadRemote struct {
	mu sync.Mutex

	failSend   bool
	failEdit   bool
	failDelete bool

	fetchResults [][]*Message
	fetchCalls   int
	fetchGate    chan struct{} // when set, FetchMessages blocks until closed

	editResponse *Message
}

func (r *fakeThreadRemote) FetchMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	r.mu.Lock()
	idx := r.fetchCalls
	r.fetchCalls++
	gate := r.fetchGate
	r.mu.Unlock()

	if gate != nil && idx == 0 {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < len(r.fetchResults) {
		return r.fetchResults[idx], nil
	}
	return []*Message{}, nil
}

func (r *fakeThreadRemote) SendMessage(ctx context.Context, conversationID string, req *SendMessageRequest) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSend {
		return nil, errRemote
	}
	now := time.Now()
	return &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       "me",
		Content:        req.Content,
		MessageType:    MessageTypeText,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (r *fakeThreadRemote) EditMessage(ctx context.Context, messageID, content string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failEdit {
		return nil, errRemote
	}
	if r.editResponse != nil {
		return r.editResponse, nil
	}
	return &Message{ID: messageID, Content: content, Edited: true, UpdatedAt: time.Now().Add(time.Second)}, nil
}

func (r *fakeThreadRemote) DeleteMessage(ctx context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete {
		return errRemote
	}
	return nil
}

func seededView(remote ThreadRemote, messages ...*Message) *ThreadView {
	v := NewThreadView(remote, "conv-1", "me")
	v.messages = messages
	return v
}

func TestSendOptimisticThenConfirmed(t *testing.T) {
	remote := &fakeThreadRemote{}
	view := seededView(remote)
	view.SetDraft("hello there")

	sent, err := view.Send(context.Background(), nil)
	require.NoError(t, err)

	messages := view.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, sent.ID, messages[0].ID)
	assert.NotContains(t, messages[0].ID, "pending-", "server row replaced the optimistic one")
	assert.Empty(t, view.Draft())
}

func TestSendFailureRollsBackAndKeepsDraft(t *testing.T) {
	remote := &fakeThreadRemote{failSend: true}
	view := seededView(remote)
	view.SetDraft("precious words")

	_, err := view.Send(context.Background(), nil)
	require.ErrorIs(t, err, errRemote)

	assert.Empty(t, view.Messages(), "optimistic message removed on failure")
	assert.Equal(t, "precious words", view.Draft(), "draft restored so nothing typed is lost")
}

func TestSendEmptyDraftRejected(t *testing.T) {
	remote := &fakeThreadRemote{}
	view := seededView(remote)
	view.SetDraft("   \n ")

	_, err := view.Send(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, view.Messages())
}

func TestEditFailureRestoresExactState(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	original := &Message{
		ID:        "m1",
		SenderID:  "me",
		Content:   "original",
		Edited:    false,
		CreatedAt: created,
		UpdatedAt: created,
	}
	remote := &fakeThreadRemote{failEdit: true}
	view := seededView(remote, original)

	err := view.Edit(context.Background(), "m1", "changed")
	require.ErrorIs(t, err, errRemote)

	messages := view.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "original", messages[0].Content)
	assert.False(t, messages[0].Edited)
	assert.Equal(t, created.Unix(), messages[0].UpdatedAt.Unix(), "updated_at restored bit for bit")
}

func TestEditRejectsStaleResponse(t *testing.T) {
	created := time.Now()
	original := &Message{ID: "m1", SenderID: "me", Content: "v2", UpdatedAt: created, CreatedAt: created}

	// The server answers with state older than what the view already has.
	remote := &fakeThreadRemote{
		editResponse: &Message{ID: "m1", Content: "v1", Edited: true, UpdatedAt: created.Add(-time.Hour)},
	}
	view := seededView(remote, original)

	err := view.Edit(context.Background(), "m1", "v3")
	require.ErrorIs(t, err, ErrStaleResponse)

	messages := view.Messages()
	assert.Equal(t, "v3", messages[0].Content, "local optimistic state wins over the stale response")
}

func TestDeleteFailureReinsertsAtPosition(t *testing.T) {
	now := time.Now()
	m1 := &Message{ID: "m1", Content: "one", CreatedAt: now, UpdatedAt: now}
	m2 := &Message{ID: "m2", Content: "two", CreatedAt: now, UpdatedAt: now}
	m3 := &Message{ID: "m3", Content: "three", CreatedAt: now, UpdatedAt: now}

	remote := &fakeThreadRemote{failDelete: true}
	view := seededView(remote, m1, m2, m3)

	err := view.Delete(context.Background(), "m2")
	require.ErrorIs(t, err, errRemote)

	messages := view.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{messages[0].ID, messages[1].ID, messages[2].ID})
}

func TestDeleteSuccessRemovesMessage(t *testing.T) {
	now := time.Now()
	m1 := &Message{ID: "m1", CreatedAt: now, UpdatedAt: now}
	remote := &fakeThreadRemote{}
	view := seededView(remote, m1)

	require.NoError(t, view.Delete(context.Background(), "m1"))
	assert.Empty(t, view.Messages())
}

func TestRefreshDiscardsSupersededResponse(t *testing.T) {
	now := time.Now()
	stale := []*Message{{ID: "stale", CreatedAt: now, UpdatedAt: now}}
	fresh := []*Message{{ID: "fresh", CreatedAt: now, UpdatedAt: now}}

	gate := make(chan struct{})
	remote := &fakeThreadRemote{
		fetchResults: [][]*Message{stale, fresh},
		fetchGate:    gate,
	}
	view := seededView(remote)

	// Start the first refresh; it blocks inside the remote call.
	done := make(chan error, 1)
	go func() {
		done <- view.Refresh(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)

	// A second refresh starts and finishes while the first is in flight.
	require.NoError(t, view.Refresh(context.Background()))

	// Release the first; its stale result must not overwrite the fresh one.
	close(gate)
	require.NoError(t, <-done)

	messages := view.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "fresh", messages[0].ID)
}
