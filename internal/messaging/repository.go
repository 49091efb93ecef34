// internal/messaging/repository.go

package messaging

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotParticipant       = errors.New("user is not a participant in this conversation")
)

// Repository defines messaging data access
type Repository interface {
	// GetOrCreateDirectConversation returns the direct conversation between
	// the two users, creating it (with both participant rows) atomically if
	// it does not exist. Argument order does not matter.
	GetOrCreateDirectConversation(ctx context.Context, userA, userB string) (*Conversation, error)

	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversationIDs(ctx context.Context, userID string) ([]string, error)
	GetParticipants(ctx context.Context, conversationID string) ([]*Participant, error)
	GetParticipant(ctx context.Context, conversationID, userID string) (*Participant, error)
	GetProfiles(ctx context.Context, userIDs []string) ([]*UserProfile, error)

	CreateMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	// ListMessages returns non-deleted messages, oldest first.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)
	// LastMessage returns the newest non-deleted message, or nil if none.
	LastMessage(ctx context.Context, conversationID string) (*Message, error)
	// UnreadMessages returns non-deleted messages from other senders with
	// activity after the cursor.
	UnreadMessages(ctx context.Context, conversationID, userID string, after time.Time) ([]*Message, error)
	UpdateMessage(ctx context.Context, id, content string, editedAt time.Time) error
	SoftDeleteMessage(ctx context.Context, id string) error

	TouchConversation(ctx context.Context, id string, at time.Time) error
	// AdvanceLastRead moves the read cursor forward only, never back.
	AdvanceLastRead(ctx context.Context, conversationID, userID string, at time.Time) error
}
