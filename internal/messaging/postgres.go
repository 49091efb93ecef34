// internal/messaging/postgres.go

package messaging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a Postgres-backed messaging repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// GetOrCreateDirectConversation keys the lookup on the normalized user pair
// so both argument orders resolve to the same conversation. The insert and
// both participant rows commit in one tx; a concurrent creator wins via the
// unique pair index and we fall back to reading its row.
func (r *postgresRepository) GetOrCreateDirectConversation(ctx context.Context, userA, userB string) (*Conversation, error) {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}

	conv, err := r.findByPair(ctx, lo, hi)
	if err == nil {
		return conv, nil
	}
	if err != ErrConversationNotFound {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	created := &Conversation{
		ID:            uuid.New().String(),
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, user_lo, user_hi, last_message_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4, $4)`,
		created.ID, lo, hi, now)
	if err != nil {
		// Lost the race to a concurrent creator.
		if existing, findErr := r.findByPair(ctx, lo, hi); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	for _, userID := range []string{lo, hi} {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2)`, created.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("create participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit conversation: %w", err)
	}
	return created, nil
}

func (r *postgresRepository) findByPair(ctx context.Context, lo, hi string) (*Conversation, error) {
	var conv Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT id, last_message_at, created_at, updated_at
		FROM conversations WHERE user_lo = $1 AND user_hi = $2`, lo, hi)
	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation by pair: %w", err)
	}
	return &conv, nil
}

func (r *postgresRepository) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT id, last_message_at, created_at, updated_at
		FROM conversations WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

func (r *postgresRepository) ListConversationIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT c.id
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.last_message_at DESC, c.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversation ids: %w", err)
	}
	return ids, nil
}

func (r *postgresRepository) GetParticipants(ctx context.Context, conversationID string) ([]*Participant, error) {
	participants := []*Participant{}
	err := r.db.SelectContext(ctx, &participants, `
		SELECT conversation_id, user_id, last_read_at
		FROM conversation_participants WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	return participants, nil
}

func (r *postgresRepository) GetParticipant(ctx context.Context, conversationID, userID string) (*Participant, error) {
	var p Participant
	err := r.db.GetContext(ctx, &p, `
		SELECT conversation_id, user_id, last_read_at
		FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2`, conversationID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) GetProfiles(ctx context.Context, userIDs []string) ([]*UserProfile, error) {
	if len(userIDs) == 0 {
		return []*UserProfile{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, username, avatar_url, official
		FROM profiles WHERE id IN (?)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("build profile query: %w", err)
	}
	query = r.db.Rebind(query)

	profiles := []*UserProfile{}
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	return profiles, nil
}

func (r *postgresRepository) CreateMessage(ctx context.Context, msg *Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, message_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.MessageType, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetMessage(ctx context.Context, id string) (*Message, error) {
	var msg Message
	err := r.db.GetContext(ctx, &msg, `
		SELECT id, conversation_id, sender_id, content, message_type, edited, deleted, created_at, updated_at
		FROM messages WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &msg, nil
}

func (r *postgresRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error) {
	messages := []*Message{}
	err := r.db.SelectContext(ctx, &messages, `
		SELECT id, conversation_id, sender_id, content, message_type, edited, deleted, created_at, updated_at
		FROM (
			SELECT * FROM messages
			WHERE conversation_id = $1 AND deleted = FALSE
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (r *postgresRepository) LastMessage(ctx context.Context, conversationID string) (*Message, error) {
	var msg Message
	err := r.db.GetContext(ctx, &msg, `
		SELECT id, conversation_id, sender_id, content, message_type, edited, deleted, created_at, updated_at
		FROM messages
		WHERE conversation_id = $1 AND deleted = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, conversationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last message: %w", err)
	}
	return &msg, nil
}

func (r *postgresRepository) UnreadMessages(ctx context.Context, conversationID, userID string, after time.Time) ([]*Message, error) {
	messages := []*Message{}
	err := r.db.SelectContext(ctx, &messages, `
		SELECT id, conversation_id, sender_id, content, message_type, edited, deleted, created_at, updated_at
		FROM messages
		WHERE conversation_id = $1
		  AND sender_id != $2
		  AND deleted = FALSE
		  AND GREATEST(created_at, updated_at) > $3
		ORDER BY created_at ASC`, conversationID, userID, after)
	if err != nil {
		return nil, fmt.Errorf("unread messages: %w", err)
	}
	return messages, nil
}

func (r *postgresRepository) UpdateMessage(ctx context.Context, id, content string, editedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET content = $2, edited = TRUE, updated_at = $3
		WHERE id = $1 AND deleted = FALSE`, id, content, editedAt)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *postgresRepository) SoftDeleteMessage(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND deleted = FALSE`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *postgresRepository) TouchConversation(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations
		SET last_message_at = GREATEST(last_message_at, $2), updated_at = NOW()
		WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func (r *postgresRepository) AdvanceLastRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants
		SET last_read_at = GREATEST(COALESCE(last_read_at, 'epoch'::timestamptz), $3)
		WHERE conversation_id = $1 AND user_id = $2`, conversationID, userID, at)
	if err != nil {
		return fmt.Errorf("advance last read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotParticipant
	}
	return nil
}
