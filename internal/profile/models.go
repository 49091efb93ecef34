// internal/profile/models.go

package profile

import "time"

// Profile is the public identity of a user. The id matches the auth user id.
type Profile struct {
	ID                 string     `db:"id" json:"id"`
	Username           string     `db:"username" json:"username"`
	AvatarURL          *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Official           bool       `db:"official" json:"official"`
	VerificationStatus string     `db:"verification_status" json:"verification_status"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// VerificationRequest is a pending or reviewed identity verification.
// Document keys point at the verification bucket and are never exposed as
// public URLs; review access goes through time-limited signed URLs.
type VerificationRequest struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	DocumentKey string     `db:"document_key" json:"-"`
	SelfieKey   string     `db:"selfie_key" json:"-"`
	Status      string     `db:"status" json:"status"`
	ReviewedBy  *string    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Verification statuses
const (
	VerificationNone     = "none"
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// UpdateProfileRequest updates mutable profile fields
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30,alphanum"`
}

// ReviewRequest is an admin approve/reject decision
type ReviewRequest struct {
	Approve bool `json:"approve"`
}

// VerificationDocuments carries signed URLs for admin review
type VerificationDocuments struct {
	DocumentURL string `json:"document_url"`
	SelfieURL   string `json:"selfie_url"`
}
