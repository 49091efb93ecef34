// internal/messaging/view.go

package messaging

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStaleResponse  = errors.New("remote response is older than local state")
	ErrUnknownMessage = errors.New("message not present in view")
)

// ThreadRemote is the slice of the backend a thread view talks to
type ThreadRemote interface {
	FetchMessages(ctx context.Context, conversationID string) ([]*Message, error)
	SendMessage(ctx context.Context, conversationID string, req *SendMessageRequest) (*Message, error)
	EditMessage(ctx context.Context, messageID, content string) (*Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

// ThreadView models the state of one open conversation. Mutations apply
// optimistically and roll back exactly on remote failure; fetches carry a
// generation counter so a response that arrives after a newer fetch started
// is discarded instead of overwriting fresher state.
type ThreadView struct {
	mu sync.Mutex

	remote         ThreadRemote
	conversationID string
	userID         string

	messages []*Message
	draft    string

	fetchGen uint64
}

// NewThreadView creates a view over one conversation
func NewThreadView(remote ThreadRemote, conversationID, userID string) *ThreadView {
	return &ThreadView{
		remote:         remote,
		conversationID: conversationID,
		userID:         userID,
	}
}

// Messages returns a snapshot of the current message list
func (v *ThreadView) Messages() []*Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*Message, len(v.messages))
	copy(out, v.messages)
	return out
}

// Draft returns the current draft text
func (v *ThreadView) Draft() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

// SetDraft replaces the draft text
func (v *ThreadView) SetDraft(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draft = text
}

// Refresh fetches the message list. Only the most recently started refresh
// may install its result; slower, older responses are dropped.
func (v *ThreadView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.fetchGen++
	gen := v.fetchGen
	v.mu.Unlock()

	messages, err := v.remote.FetchMessages(ctx, v.conversationID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.fetchGen {
		// A newer refresh started while this one was in flight.
		return nil
	}
	v.messages = messages
	return nil
}

// Send sends the current draft. The message appears immediately with a local
// id; on success the server row replaces it, on failure it is removed and the
// draft is restored so nothing the user typed is lost.
func (v *ThreadView) Send(ctx context.Context, replyToID *string) (*Message, error) {
	v.mu.Lock()
	draft := v.draft
	content := strings.TrimSpace(draft)
	if content == "" {
		v.mu.Unlock()
		return nil, ErrEmptyMessage
	}

	now := time.Now()
	pending := &Message{
		ID:             "pending-" + uuid.New().String(),
		ConversationID: v.conversationID,
		SenderID:       v.userID,
		Content:        content,
		MessageType:    MessageTypeText,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	v.messages = append(v.messages, pending)
	v.draft = ""
	v.mu.Unlock()

	sent, err := v.remote.SendMessage(ctx, v.conversationID, &SendMessageRequest{
		Content:   draft,
		ReplyToID: replyToID,
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	idx := v.indexOf(pending.ID)
	if err != nil {
		if idx >= 0 {
			v.messages = append(v.messages[:idx], v.messages[idx+1:]...)
		}
		v.draft = draft
		return nil, err
	}
	if idx >= 0 {
		v.messages[idx] = sent
	} else {
		v.messages = append(v.messages, sent)
	}
	return sent, nil
}

// Edit applies new content optimistically and confirms with the server. On
// failure the previous message state is restored bit for bit. A server
// response carrying an update older than the local state never overwrites it.
func (v *ThreadView) Edit(ctx context.Context, messageID, content string) error {
	v.mu.Lock()
	idx := v.indexOf(messageID)
	if idx < 0 {
		v.mu.Unlock()
		return ErrUnknownMessage
	}
	snapshot := *v.messages[idx]

	optimistic := snapshot
	optimistic.Content = content
	optimistic.Edited = true
	optimistic.UpdatedAt = time.Now()
	v.messages[idx] = &optimistic
	v.mu.Unlock()

	updated, err := v.remote.EditMessage(ctx, messageID, content)

	v.mu.Lock()
	defer v.mu.Unlock()
	idx = v.indexOf(messageID)
	if idx < 0 {
		return nil
	}
	if err != nil {
		restored := snapshot
		v.messages[idx] = &restored
		return err
	}
	if updated.UpdatedAt.Before(v.messages[idx].UpdatedAt) {
		return ErrStaleResponse
	}
	v.messages[idx] = updated
	return nil
}

// Delete removes the message optimistically; on remote failure it is
// reinserted at its previous position.
func (v *ThreadView) Delete(ctx context.Context, messageID string) error {
	v.mu.Lock()
	idx := v.indexOf(messageID)
	if idx < 0 {
		v.mu.Unlock()
		return ErrUnknownMessage
	}
	snapshot := v.messages[idx]
	v.messages = append(v.messages[:idx], v.messages[idx+1:]...)
	v.mu.Unlock()

	err := v.remote.DeleteMessage(ctx, messageID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		if idx > len(v.messages) {
			idx = len(v.messages)
		}
		v.messages = append(v.messages[:idx], append([]*Message{snapshot}, v.messages[idx:]...)...)
		return err
	}
	return nil
}

func (v *ThreadView) indexOf(messageID string) int {
	for i, m := range v.messages {
		if m.ID == messageID {
			return i
		}
	}
	return -1
}

// serviceRemote adapts the messaging service to ThreadRemote, binding the
// acting user once so the view never handles identities.
type serviceRemote struct {
	service Service
	userID  string
}

// NewServiceRemote wraps the service as a ThreadRemote for one user
func NewServiceRemote(service Service, userID string) ThreadRemote {
	return &serviceRemote{service: service, userID: userID}
}

func (r *serviceRemote) FetchMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	return r.service.ListMessages(ctx, conversationID, r.userID, 0)
}

func (r *serviceRemote) SendMessage(ctx context.Context, conversationID string, req *SendMessageRequest) (*Message, error) {
	return r.service.SendMessage(ctx, conversationID, r.userID, req)
}

func (r *serviceRemote) EditMessage(ctx context.Context, messageID, content string) (*Message, error) {
	return r.service.EditMessage(ctx, messageID, r.userID, content)
}

func (r *serviceRemote) DeleteMessage(ctx context.Context, messageID string) error {
	return r.service.DeleteMessage(ctx, messageID, r.userID)
}
