// internal/messaging/unread_test.go

package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func msgAt(sender string, createdAt time.Time) *Message {
	return &Message{
		ID:        sender + "-" + createdAt.Format(time.RFC3339Nano),
		SenderID:  sender,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestCountUnread(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cursor := base.Add(10 * time.Minute)

	tests := []struct {
		name       string
		messages   []*Message
		lastReadAt *time.Time
		want       int
	}{
		{
			name: "counts messages after cursor from other senders",
			messages: []*Message{
				msgAt("other", base),
				msgAt("other", cursor.Add(time.Minute)),
				msgAt("other", cursor.Add(2*time.Minute)),
			},
			lastReadAt: &cursor,
			want:       2,
		},
		{
			name: "own messages never count",
			messages: []*Message{
				msgAt("me", cursor.Add(time.Minute)),
				msgAt("other", cursor.Add(time.Minute)),
			},
			lastReadAt: &cursor,
			want:       1,
		},
		{
			name: "nil cursor counts everything from others",
			messages: []*Message{
				msgAt("other", base),
				msgAt("other", base.Add(time.Hour)),
				msgAt("me", base),
			},
			lastReadAt: nil,
			want:       2,
		},
		{
			name: "message exactly at cursor is read",
			messages: []*Message{
				msgAt("other", cursor),
			},
			lastReadAt: &cursor,
			want:       0,
		},
		{
			name:       "empty slice",
			messages:   []*Message{},
			lastReadAt: &cursor,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountUnread(tt.messages, tt.lastReadAt, "me"))
		})
	}
}

func TestCountUnreadSkipsDeleted(t *testing.T) {
	cursor := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	deleted := msgAt("other", cursor.Add(time.Minute))
	deleted.Deleted = true
	live := msgAt("other", cursor.Add(time.Minute))

	assert.Equal(t, 1, CountUnread([]*Message{deleted, live}, &cursor, "me"))
}

func TestCountUnreadEditRevivesMessage(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	readAt := base.Add(time.Minute)

	// Created before the cursor, edited after it.
	m := msgAt("other", base)
	m.Edited = true
	m.UpdatedAt = readAt.Add(time.Minute)

	assert.Equal(t, 1, CountUnread([]*Message{m}, &readAt, "me"))
}

func TestCountUnreadIsPure(t *testing.T) {
	cursor := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := []*Message{
		msgAt("other", cursor.Add(time.Minute)),
		msgAt("me", cursor.Add(time.Minute)),
	}

	first := CountUnread(messages, &cursor, "me")
	second := CountUnread(messages, &cursor, "me")
	assert.Equal(t, first, second)
	assert.Equal(t, "other", messages[0].SenderID, "input slice is not mutated")
	assert.False(t, messages[0].Deleted)
}
