// internal/profile/repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrProfileNotFound = errors.New("profile not found")

// Repository defines profile data access
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	UpdateUsername(ctx context.Context, id, username string) error
	UpdateAvatarURL(ctx context.Context, id, avatarURL string) error
	SearchByUsername(ctx context.Context, query string, limit int) ([]*Profile, error)

	CreateVerificationRequest(ctx context.Context, req *VerificationRequest) error
	GetVerificationRequest(ctx context.Context, id string) (*VerificationRequest, error)
	GetPendingVerificationForUser(ctx context.Context, userID string) (*VerificationRequest, error)
	ListPendingVerifications(ctx context.Context, limit int) ([]*VerificationRequest, error)
	ResolveVerification(ctx context.Context, id, status, reviewerID string) error
	SetVerificationStatus(ctx context.Context, userID, status string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a Postgres-backed profile repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, username, avatar_url, official, verification_status, created_at, updated_at
		FROM profiles WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	var p Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, username, avatar_url, official, verification_status, created_at, updated_at
		FROM profiles WHERE LOWER(username) = LOWER($1)`, username)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by username: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) UpdateUsername(ctx context.Context, id, username string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET username = $2, updated_at = NOW() WHERE id = $1`, id, username)
	if err != nil {
		return fmt.Errorf("update username: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateAvatarURL(ctx context.Context, id, avatarURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET avatar_url = $2, updated_at = NOW() WHERE id = $1`, id, avatarURL)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *postgresRepository) SearchByUsername(ctx context.Context, query string, limit int) ([]*Profile, error) {
	profiles := []*Profile{}
	err := r.db.SelectContext(ctx, &profiles, `
		SELECT id, username, avatar_url, official, verification_status, created_at, updated_at
		FROM profiles
		WHERE username ILIKE '%' || $1 || '%'
		ORDER BY username ASC
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	return profiles, nil
}

func (r *postgresRepository) CreateVerificationRequest(ctx context.Context, req *VerificationRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_requests (id, user_id, document_key, selfie_key, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.UserID, req.DocumentKey, req.SelfieKey, req.Status, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create verification request: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetVerificationRequest(ctx context.Context, id string) (*VerificationRequest, error) {
	var v VerificationRequest
	err := r.db.GetContext(ctx, &v, `
		SELECT id, user_id, document_key, selfie_key, status, reviewed_by, reviewed_at, created_at
		FROM verification_requests WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get verification request: %w", err)
	}
	return &v, nil
}

func (r *postgresRepository) GetPendingVerificationForUser(ctx context.Context, userID string) (*VerificationRequest, error) {
	var v VerificationRequest
	err := r.db.GetContext(ctx, &v, `
		SELECT id, user_id, document_key, selfie_key, status, reviewed_by, reviewed_at, created_at
		FROM verification_requests
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY created_at DESC LIMIT 1`, userID)
	if err == sql.ErrNoRows {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pending verification: %w", err)
	}
	return &v, nil
}

func (r *postgresRepository) ListPendingVerifications(ctx context.Context, limit int) ([]*VerificationRequest, error) {
	requests := []*VerificationRequest{}
	err := r.db.SelectContext(ctx, &requests, `
		SELECT id, user_id, document_key, selfie_key, status, reviewed_by, reviewed_at, created_at
		FROM verification_requests
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending verifications: %w", err)
	}
	return requests, nil
}

func (r *postgresRepository) ResolveVerification(ctx context.Context, id, status, reviewerID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'`,
		id, status, reviewerID, time.Now())
	if err != nil {
		return fmt.Errorf("resolve verification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVerificationNotFound
	}
	return nil
}

func (r *postgresRepository) SetVerificationStatus(ctx context.Context, userID, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET verification_status = $2, updated_at = NOW() WHERE id = $1`,
		userID, status)
	if err != nil {
		return fmt.Errorf("set verification status: %w", err)
	}
	return nil
}
