// internal/messaging/service.go

package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyMessage     = errors.New("message content cannot be empty")
	ErrNotSender        = errors.New("only the sender can modify this message")
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
)

// EventPublisher receives change events from successful mutations.
// The hub implements this; tests use a recording fake.
type EventPublisher interface {
	Publish(event ChangeEvent)
}

// Service defines the messaging service interface
type Service interface {
	StartConversation(ctx context.Context, userID, otherUserID string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]*Message, error)
	SendMessage(ctx context.Context, conversationID, senderID string, req *SendMessageRequest) (*Message, error)
	EditMessage(ctx context.Context, messageID, senderID, content string) (*Message, error)
	DeleteMessage(ctx context.Context, messageID, senderID string) error
	MarkRead(ctx context.Context, conversationID, userID string) error
	GetParticipants(ctx context.Context, conversationID string) ([]*Participant, error)
}

type messageService struct {
	repo      Repository
	publisher EventPublisher
	pageSize  int
}

// NewService creates a new messaging service
func NewService(repo Repository, publisher EventPublisher, pageSize int) Service {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &messageService{repo: repo, publisher: publisher, pageSize: pageSize}
}

func (s *messageService) StartConversation(ctx context.Context, userID, otherUserID string) (*Conversation, error) {
	if userID == otherUserID {
		return nil, ErrSelfConversation
	}
	return s.repo.GetOrCreateDirectConversation(ctx, userID, otherUserID)
}

// ListConversations assembles the conversation list for one user. Each
// conversation resolves independently; a failure on one drops that
// conversation from the result and leaves the rest intact. The final order is
// last_message_at descending, ties broken by conversation id ascending.
func (s *messageService) ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	ids, err := s.repo.ListConversationIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	summaries := make([]*ConversationSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := s.buildSummary(ctx, id, userID)
		if err != nil {
			log.Printf("⚠️ Skipping conversation %s for user %s: %v", id, userID, err)
			conversationsDropped.Inc()
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].Conversation, summaries[j].Conversation
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		return a.ID < b.ID
	})
	return summaries, nil
}

func (s *messageService) buildSummary(ctx context.Context, conversationID, userID string) (*ConversationSummary, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	participants, err := s.repo.GetParticipants(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	var me *Participant
	otherIDs := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.UserID == userID {
			me = p
		} else {
			otherIDs = append(otherIDs, p.UserID)
		}
	}
	// The list query joined on membership, but the row may have been removed
	// since. Treat it as a resolution failure for this conversation.
	if me == nil {
		return nil, ErrNotParticipant
	}

	others, err := s.repo.GetProfiles(ctx, otherIDs)
	if err != nil {
		return nil, err
	}

	lastMsg, err := s.repo.LastMessage(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	cursor := time.Time{}
	if me.LastReadAt != nil {
		cursor = *me.LastReadAt
	}
	unread, err := s.repo.UnreadMessages(ctx, conversationID, userID, cursor)
	if err != nil {
		return nil, err
	}

	return &ConversationSummary{
		Conversation: *conv,
		Others:       others,
		LastMessage:  lastMsg,
		UnreadCount:  CountUnread(unread, me.LastReadAt, userID),
	}, nil
}

func (s *messageService) ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]*Message, error) {
	if _, err := s.repo.GetParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = s.pageSize
	}
	return s.repo.ListMessages(ctx, conversationID, limit)
}

// SendMessage validates before any I/O: empty or whitespace-only content is
// rejected outright. A reply is a plain message whose content is prefixed
// with an @mention of the quoted sender.
func (s *messageService) SendMessage(ctx context.Context, conversationID, senderID string, req *SendMessageRequest) (*Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := s.repo.GetParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	if req.ReplyToID != nil {
		prefix, err := s.replyPrefix(ctx, conversationID, *req.ReplyToID)
		if err != nil {
			return nil, err
		}
		content = prefix + content
	}

	now := time.Now()
	msg := &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		MessageType:    MessageTypeText,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.repo.TouchConversation(ctx, conversationID, now); err != nil {
		log.Printf("⚠️ Failed to bump conversation %s: %v", conversationID, err)
	}

	messagesSent.Inc()
	s.publish(ChangeEvent{
		Type:           EventMessageInserted,
		ConversationID: conversationID,
		ActorID:        senderID,
		Timestamp:      now,
	})
	return msg, nil
}

func (s *messageService) replyPrefix(ctx context.Context, conversationID, replyToID string) (string, error) {
	quoted, err := s.repo.GetMessage(ctx, replyToID)
	if err != nil {
		return "", err
	}
	if quoted.ConversationID != conversationID || quoted.Deleted {
		return "", ErrMessageNotFound
	}

	profiles, err := s.repo.GetProfiles(ctx, []string{quoted.SenderID})
	if err != nil || len(profiles) == 0 {
		return "", fmt.Errorf("resolve quoted sender: %w", err)
	}
	return "@" + profiles[0].Username + ": ", nil
}

// EditMessage marks the message edited even when the new content equals the
// old content. The edit itself is the event, not the diff.
func (s *messageService) EditMessage(ctx context.Context, messageID, senderID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Deleted {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != senderID {
		return nil, ErrNotSender
	}

	now := time.Now()
	if err := s.repo.UpdateMessage(ctx, messageID, content, now); err != nil {
		return nil, err
	}

	msg.Content = content
	msg.Edited = true
	msg.UpdatedAt = now

	s.publish(ChangeEvent{
		Type:           EventConversationUpdated,
		ConversationID: msg.ConversationID,
		ActorID:        senderID,
		Timestamp:      now,
	})
	return msg, nil
}

// DeleteMessage is a soft delete; the row stays, flagged. Terminal: a deleted
// message cannot be edited or restored.
func (s *messageService) DeleteMessage(ctx context.Context, messageID, senderID string) error {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Deleted {
		return ErrMessageNotFound
	}
	if msg.SenderID != senderID {
		return ErrNotSender
	}

	if err := s.repo.SoftDeleteMessage(ctx, messageID); err != nil {
		return err
	}

	s.publish(ChangeEvent{
		Type:           EventConversationUpdated,
		ConversationID: msg.ConversationID,
		ActorID:        senderID,
		Timestamp:      time.Now(),
	})
	return nil
}

// MarkRead advances the caller's read cursor to now. Idempotent; repeated
// calls and stale calls never move the cursor backwards.
func (s *messageService) MarkRead(ctx context.Context, conversationID, userID string) error {
	now := time.Now()
	if err := s.repo.AdvanceLastRead(ctx, conversationID, userID, now); err != nil {
		return err
	}

	s.publish(ChangeEvent{
		Type:           EventParticipantUpdated,
		ConversationID: conversationID,
		ActorID:        userID,
		Timestamp:      now,
	})
	return nil
}

func (s *messageService) GetParticipants(ctx context.Context, conversationID string) ([]*Participant, error) {
	return s.repo.GetParticipants(ctx, conversationID)
}

func (s *messageService) publish(event ChangeEvent) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
	changeEventsPublished.WithLabelValues(event.Type).Inc()
}
