// internal/community/models.go

package community

import "time"

// Community is a member-run group that content can be scoped to
type Community struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatorID   string    `db:"creator_id" json:"creator_id"`
	MemberCount int       `db:"member_count" json:"member_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Member roles
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleCreator   = "creator"
)

// Membership links a user to a community
type Membership struct {
	CommunityID string    `db:"community_id" json:"community_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Role        string    `db:"role" json:"role"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// CreateCommunityRequest creates a new community
type CreateCommunityRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=1000"`
}
