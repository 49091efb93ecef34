// internal/content/models.go

package content

import "time"

// Content kinds. Posts and projects share one table and one code path; the
// kind tag is the only branch point.
const (
	KindPost    = "post"
	KindProject = "project"
)

// ContentItem is a post or a project
type ContentItem struct {
	ID           string     `db:"id" json:"id"`
	Kind         string     `db:"kind" json:"kind"`
	AuthorID     string     `db:"author_id" json:"author_id"`
	Title        string     `db:"title" json:"title"`
	Body         string     `db:"body" json:"body"`
	MediaURL     *string    `db:"media_url" json:"media_url,omitempty"`
	Score        int        `db:"score" json:"score"`
	CommentCount int        `db:"comment_count" json:"comment_count"`
	CommunityID  *string    `db:"community_id" json:"community_id,omitempty"`
	Deleted      bool       `db:"deleted" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Vote is a single user's vote on an item, value is -1 or +1
type Vote struct {
	ItemID    string    `db:"item_id" json:"item_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Value     int       `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Comment on a content item; ParentID set means it is a reply (one level only)
type Comment struct {
	ID        string    `db:"id" json:"id"`
	ItemID    string    `db:"item_id" json:"item_id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	Body      string    `db:"body" json:"body"`
	Deleted   bool      `db:"deleted" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateItemRequest creates a post or project
type CreateItemRequest struct {
	Kind        string  `json:"kind" validate:"required,oneof=post project"`
	Title       string  `json:"title" validate:"required,max=300"`
	Body        string  `json:"body" validate:"max=10000"`
	CommunityID *string `json:"community_id,omitempty"`
}

// VoteRequest casts or clears a vote
type VoteRequest struct {
	Value int `json:"value" validate:"required,oneof=-1 1"`
}

// CommentRequest adds a comment or reply
type CommentRequest struct {
	Body     string  `json:"body" validate:"required,max=5000"`
	ParentID *string `json:"parent_id,omitempty"`
}

// ListFilter narrows item listings
type ListFilter struct {
	Kind        string
	CommunityID string
	AuthorID    string
	Limit       int
	Offset      int
}
