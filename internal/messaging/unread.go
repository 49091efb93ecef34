// internal/messaging/unread.go

package messaging

import "time"

// ActivityTime is the moment a message last demanded the reader's attention:
// its creation, or its most recent edit if that came later.
func ActivityTime(m *Message) time.Time {
	if m.UpdatedAt.After(m.CreatedAt) {
		return m.UpdatedAt
	}
	return m.CreatedAt
}

// CountUnread computes the unread count for one user over a message slice.
// A message is unread when it was sent by someone else, is not deleted, and
// its activity time is after the reader's cursor. A nil cursor means the user
// has never read the conversation, so every qualifying message counts.
//
// Pure function: no I/O, no mutation, deterministic for given inputs.
func CountUnread(messages []*Message, lastReadAt *time.Time, userID string) int {
	cursor := time.Time{}
	if lastReadAt != nil {
		cursor = *lastReadAt
	}

	count := 0
	for _, m := range messages {
		if m.SenderID == userID {
			continue
		}
		if m.Deleted {
			continue
		}
		if ActivityTime(m).After(cursor) {
			count++
		}
	}
	return count
}
