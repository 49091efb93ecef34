// internal/messaging/models.go

package messaging

import (
	"encoding/json"
	"time"
)

// Conversation is a direct conversation between two users
type Conversation struct {
	ID            string    `db:"id" json:"id"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Participant links a user to a conversation. LastReadAt is the read cursor;
// nil means the user has never opened the conversation.
type Participant struct {
	ConversationID string     `db:"conversation_id" json:"conversation_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	LastReadAt     *time.Time `db:"last_read_at" json:"last_read_at,omitempty"`
}

// Message types
const (
	MessageTypeText = "text"
)

// Message is a single message. Deleted messages stay as rows with the flag
// set; they are excluded from lists, previews and unread counts.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	MessageType    string    `db:"message_type" json:"message_type"`
	Edited         bool      `db:"edited" json:"edited"`
	Deleted        bool      `db:"deleted" json:"deleted"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserProfile is the slice of a profile the conversation list needs
type UserProfile struct {
	ID        string  `db:"id" json:"id"`
	Username  string  `db:"username" json:"username"`
	AvatarURL *string `db:"avatar_url" json:"avatar_url,omitempty"`
	Official  bool    `db:"official" json:"official"`
}

// ConversationSummary is one row of the conversation list
type ConversationSummary struct {
	Conversation Conversation   `json:"conversation"`
	Others       []*UserProfile `json:"others"`
	LastMessage  *Message       `json:"last_message,omitempty"`
	UnreadCount  int            `json:"unread_count"`
}

// SendMessageRequest sends a message, optionally as a reply
type SendMessageRequest struct {
	Content   string  `json:"content" validate:"required"`
	ReplyToID *string `json:"reply_to_id,omitempty"`
}

// EditMessageRequest edits a message's content
type EditMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// StartConversationRequest opens (or returns) the direct conversation with a user
type StartConversationRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// Change event types emitted on every successful mutation
const (
	EventMessageInserted     = "message.inserted"
	EventParticipantUpdated  = "participant.updated"
	EventConversationUpdated = "conversation.updated"
)

// ChangeEvent notifies subscribers that conversation state changed.
// ActorID is the user whose action produced the event.
type ChangeEvent struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	ActorID        string          `json:"actor_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}
