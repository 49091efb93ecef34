// internal/messaging/service_test.go

package messaging

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory Repository with per-conversation failure
// injection for exercising partial-failure behavior.
type fakeRepository struct {
	mu sync.Mutex

	conversations map[string]*Conversation
	pairIndex     map[string]string // "lo|hi" -> conversation id
	participants  map[string][]*Participant
	messages      map[string]*Message
	profiles      map[string]*UserProfile

	failParticipants map[string]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		conversations:    make(map[string]*Conversation),
		pairIndex:        make(map[string]string),
		participants:     make(map[string][]*Participant),
		messages:         make(map[string]*Message),
		profiles:         make(map[string]*UserProfile),
		failParticipants: make(map[string]bool),
	}
}

func (r *fakeRepository) addProfile(id, username string) {
	r.profiles[id] = &UserProfile{ID: id, Username: username}
}

func (r *fakeRepository) GetOrCreateDirectConversation(ctx context.Context, userA, userB string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	key := lo + "|" + hi
	if id, ok := r.pairIndex[key]; ok {
		return r.conversations[id], nil
	}

	now := time.Now()
	conv := &Conversation{ID: uuid.New().String(), LastMessageAt: now, CreatedAt: now, UpdatedAt: now}
	r.conversations[conv.ID] = conv
	r.pairIndex[key] = conv.ID
	r.participants[conv.ID] = []*Participant{
		{ConversationID: conv.ID, UserID: lo},
		{ConversationID: conv.ID, UserID: hi},
	}
	return conv, nil
}

func (r *fakeRepository) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (r *fakeRepository) ListConversationIDs(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []string{}
	for id, participants := range r.participants {
		for _, p := range participants {
			if p.UserID == userID {
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeRepository) GetParticipants(ctx context.Context, conversationID string) ([]*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failParticipants[conversationID] {
		return nil, errors.New("simulated participant failure")
	}
	return r.participants[conversationID], nil
}

func (r *fakeRepository) GetParticipant(ctx context.Context, conversationID, userID string) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants[conversationID] {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, ErrNotParticipant
}

func (r *fakeRepository) GetProfiles(ctx context.Context, userIDs []string) ([]*UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*UserProfile{}
	for _, id := range userIDs {
		if p, ok := r.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepository) CreateMessage(ctx context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *fakeRepository) GetMessage(ctx context.Context, id string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	copied := *msg
	return &copied, nil
}

func (r *fakeRepository) conversationMessages(conversationID string) []*Message {
	out := []*Message{}
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Message{}
	for _, m := range r.conversationMessages(conversationID) {
		if !m.Deleted {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepository) LastMessage(ctx context.Context, conversationID string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.conversationMessages(conversationID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].Deleted {
			return msgs[i], nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) UnreadMessages(ctx context.Context, conversationID, userID string, after time.Time) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Message{}
	for _, m := range r.conversationMessages(conversationID) {
		if m.SenderID != userID && !m.Deleted && ActivityTime(m).After(after) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepository) UpdateMessage(ctx context.Context, id, content string, editedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok || msg.Deleted {
		return ErrMessageNotFound
	}
	msg.Content = content
	msg.Edited = true
	msg.UpdatedAt = editedAt
	return nil
}

func (r *fakeRepository) SoftDeleteMessage(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok || msg.Deleted {
		return ErrMessageNotFound
	}
	msg.Deleted = true
	msg.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepository) TouchConversation(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	if at.After(conv.LastMessageAt) {
		conv.LastMessageAt = at
	}
	conv.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepository) AdvanceLastRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants[conversationID] {
		if p.UserID == userID {
			if p.LastReadAt == nil || at.After(*p.LastReadAt) {
				t := at
				p.LastReadAt = &t
			}
			return nil
		}
	}
	return ErrNotParticipant
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (p *recordingPublisher) Publish(event ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) byType(eventType string) []ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []ChangeEvent{}
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (Service, *fakeRepository, *recordingPublisher) {
	t.Helper()
	repo := newFakeRepository()
	pub := &recordingPublisher{}
	return NewService(repo, pub, 50), repo, pub
}

func TestStartConversationIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("alice", "alice")
	repo.addProfile("bob", "bob")
	ctx := context.Background()

	first, err := svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	// Same pair, both argument orders, always the same conversation.
	again, err := svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	reversed, err := svc.StartConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, reversed.ID)

	assert.Len(t, repo.conversations, 1)
}

func TestStartConversationWithSelf(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.StartConversation(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	svc, repo, pub := newTestService(t)
	repo.addProfile("alice", "alice")
	repo.addProfile("bob", "bob")
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := svc.SendMessage(ctx, conv.ID, "alice", &SendMessageRequest{Content: content})
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	assert.Empty(t, repo.messages, "no message row may exist after rejected sends")
	assert.Empty(t, pub.byType(EventMessageInserted))
}

func TestSendMessagePublishesAndBumpsConversation(t *testing.T) {
	svc, repo, pub := newTestService(t)
	repo.addProfile("alice", "alice")
	repo.addProfile("bob", "bob")
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	before := conv.LastMessageAt

	msg, err := svc.SendMessage(ctx, conv.ID, "alice", &SendMessageRequest{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.Edited)

	participants, err := svc.GetParticipants(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)

	stored, _ := repo.GetConversation(ctx, conv.ID)
	assert.False(t, stored.LastMessageAt.Before(before))

	events := pub.byType(EventMessageInserted)
	require.Len(t, events, 1)
	assert.Equal(t, conv.ID, events[0].ConversationID)
	assert.Equal(t, "alice", events[0].ActorID)
}

func TestReplyGetsMentionPrefix(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("alice", "alice")
	repo.addProfile("bob", "bob")
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	original, err := svc.SendMessage(ctx, conv.ID, "bob", &SendMessageRequest{Content: "what do you think?"})
	require.NoError(t, err)

	reply, err := svc.SendMessage(ctx, conv.ID, "alice", &SendMessageRequest{
		Content:   "agreed",
		ReplyToID: &original.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "@bob: agreed", reply.Content)
	assert.True(t, strings.HasPrefix(reply.Content, "@bob: "))
}

func TestEditMessageAlwaysSetsEditedFlag(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("alice", "alice")
	repo.addProfile("bob", "bob")
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	msg, err := svc.SendMessage(ctx, conv.ID, "alice", &SendMessageRequest{Content: "same text"})
	require.NoError(t, err)
	require.False(t, msg.Edited)

	// Editing to identical content still marks the message edited.
	edited, err := svc.EditMessage(ctx, msg.ID, "alice", "same text")
	require.NoError(t, err)
	assert.True(t, edited.Edited)
	assert.Equal(t, "same text", edited.Content)
	assert.True(t, edited.UpdatedAt.After(msg.CreatedAt) || edited.UpdatedAt.Equal(msg.CreatedAt))
}

func TestEditMessageSenderOnly(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("alice", "alice")
	repo.addProfile("bob", "bob")
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	msg, err := svc.SendMessage(ctx, conv.ID, "alice", &SendMessageRequest{Content: "mine"})
	require.NoError(t, err)

	_, err = svc.EditMessage(ctx, msg.ID, "bob", "hijacked")
	assert.ErrorIs(t, err, ErrNotSender)

	err = svc.DeleteMessage(ctx, msg.ID, "bob")
	assert.ErrorIs(t, err, ErrNotSender)

	stored, _ := repo.GetMessage(ctx, msg.ID)
	assert.Equal(t, "mine", stored.Content)
	assert.False(t, stored.Deleted)
}

func TestDeleteMessageIsTerminal(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("alice", "alice")
	repo.addProfile("bob", "bob")
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	msg, err := svc.SendMessage(ctx, conv.ID, "alice", &SendMessageRequest{Content: "soon gone"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, msg.ID, "alice"))

	// The row survives, flagged.
	stored, err := repo.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)

	// Deleted is absorbing: no edit, no second delete.
	_, err = svc.EditMessage(ctx, msg.ID, "alice", "resurrected")
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.ErrorIs(t, svc.DeleteMessage(ctx, msg.ID, "alice"), ErrMessageNotFound)

	// And it is gone from the visible list.
	visible, err := svc.ListMessages(ctx, conv.ID, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestListConversationsOrderingAndTieBreak(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("me", "me")
	for _, u := range []string{"u1", "u2", "u3"} {
		repo.addProfile(u, u)
	}
	ctx := context.Background()

	base := time.Now()
	c1, _ := svc.StartConversation(ctx, "me", "u1")
	c2, _ := svc.StartConversation(ctx, "me", "u2")
	c3, _ := svc.StartConversation(ctx, "me", "u3")

	// c2 newest, c1 and c3 tie on an identical timestamp.
	repo.conversations[c1.ID].LastMessageAt = base
	repo.conversations[c3.ID].LastMessageAt = base
	repo.conversations[c2.ID].LastMessageAt = base.Add(time.Hour)

	summaries, err := svc.ListConversations(ctx, "me")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, c2.ID, summaries[0].Conversation.ID)

	// Tie broken by id ascending.
	tied := []string{summaries[1].Conversation.ID, summaries[2].Conversation.ID}
	assert.Less(t, tied[0], tied[1])
}

func TestListConversationsDropsOnlyFailingConversation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("me", "me")
	repo.addProfile("u1", "u1")
	repo.addProfile("u2", "u2")
	ctx := context.Background()

	healthy, _ := svc.StartConversation(ctx, "me", "u1")
	broken, _ := svc.StartConversation(ctx, "me", "u2")
	repo.failParticipants[broken.ID] = true

	summaries, err := svc.ListConversations(ctx, "me")
	require.NoError(t, err, "one failing conversation must not fail the list")
	require.Len(t, summaries, 1)
	assert.Equal(t, healthy.ID, summaries[0].Conversation.ID)
}

func TestListConversationsPreviewSkipsDeleted(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("me", "me")
	repo.addProfile("u1", "u1")
	ctx := context.Background()

	conv, _ := svc.StartConversation(ctx, "me", "u1")
	first, err := svc.SendMessage(ctx, conv.ID, "u1", &SendMessageRequest{Content: "first"})
	require.NoError(t, err)
	second, err := svc.SendMessage(ctx, conv.ID, "u1", &SendMessageRequest{Content: "second"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, second.ID, "u1"))

	summaries, err := svc.ListConversations(ctx, "me")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, first.ID, summaries[0].LastMessage.ID, "preview falls back to newest non-deleted message")
	assert.Equal(t, 1, summaries[0].UnreadCount, "deleted message does not count as unread")
}

func TestMarkReadIdempotentAndMonotonic(t *testing.T) {
	svc, repo, pub := newTestService(t)
	repo.addProfile("me", "me")
	repo.addProfile("u1", "u1")
	ctx := context.Background()

	conv, _ := svc.StartConversation(ctx, "me", "u1")
	_, err := svc.SendMessage(ctx, conv.ID, "u1", &SendMessageRequest{Content: "ping"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, conv.ID, "me"))
	p, err := repo.GetParticipant(ctx, conv.ID, "me")
	require.NoError(t, err)
	require.NotNil(t, p.LastReadAt)
	firstRead := *p.LastReadAt

	require.NoError(t, svc.MarkRead(ctx, conv.ID, "me"))
	p, _ = repo.GetParticipant(ctx, conv.ID, "me")
	assert.False(t, p.LastReadAt.Before(firstRead), "cursor never moves backwards")

	summaries, err := svc.ListConversations(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, 0, summaries[0].UnreadCount)

	assert.NotEmpty(t, pub.byType(EventParticipantUpdated))
}

// The full lifecycle: send, read, edit, re-read, delete — unread counts move
// 1 → 0 → 1 → 0 → 0 and the edit survives until the delete.
func TestConversationLifecycle(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.addProfile("reader", "reader")
	repo.addProfile("writer", "writer")
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "reader", "writer")
	require.NoError(t, err)

	unreadFor := func(user string) int {
		summaries, err := svc.ListConversations(ctx, user)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		return summaries[0].UnreadCount
	}

	// Send: one unread for the reader, none for the sender.
	msg, err := svc.SendMessage(ctx, conv.ID, "writer", &SendMessageRequest{Content: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 1, unreadFor("reader"))
	assert.Equal(t, 0, unreadFor("writer"))

	// Read: back to zero.
	require.NoError(t, svc.MarkRead(ctx, conv.ID, "reader"))
	assert.Equal(t, 0, unreadFor("reader"))

	// Edit after the read: the message demands attention again.
	time.Sleep(5 * time.Millisecond)
	edited, err := svc.EditMessage(ctx, msg.ID, "writer", "v2")
	require.NoError(t, err)
	assert.True(t, edited.Edited)
	assert.Equal(t, 1, unreadFor("reader"))

	// Re-read clears it.
	require.NoError(t, svc.MarkRead(ctx, conv.ID, "reader"))
	assert.Equal(t, 0, unreadFor("reader"))

	// Delete: gone from list and counts for both sides.
	require.NoError(t, svc.DeleteMessage(ctx, msg.ID, "writer"))
	summaries, err := svc.ListConversations(ctx, "reader")
	require.NoError(t, err)
	assert.Nil(t, summaries[0].LastMessage)
	assert.Equal(t, 0, summaries[0].UnreadCount)
}
