// internal/auth/repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository persists users
type Repository interface {
	CreateUser(ctx context.Context, user *User, username string) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUsername(ctx context.Context, userID string) (string, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	ConfirmEmail(ctx context.Context, userID string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates the Postgres-backed auth repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateUser inserts the user and their profile row in one transaction so a
// user never exists without a profile
func (r *postgresRepository) CreateUser(ctx context.Context, user *User, username string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, email, password_hash, email_confirmed, created_at)
		VALUES ($1, $2, $3, false, $4)`
	if _, err := tx.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, time.Now()); err != nil {
		return err
	}

	query = `
		INSERT INTO profiles (id, username, official, verification_status, created_at, updated_at)
		VALUES ($1, $2, false, 'none', NOW(), NOW())`
	if _, err := tx.ExecContext(ctx, query, user.ID, username); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, email, password_hash, email_confirmed, created_at FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, email, password_hash, email_confirmed, created_at FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresRepository) GetUsername(ctx context.Context, userID string) (string, error) {
	var username string
	err := r.db.GetContext(ctx, &username, `SELECT username FROM profiles WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return username, err
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	return err
}

func (r *postgresRepository) ConfirmEmail(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_confirmed = true WHERE id = $1`, userID)
	return err
}
