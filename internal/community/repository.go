// internal/community/repository.go

package community

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrCommunityNotFound = errors.New("community not found")
	ErrNameTaken         = errors.New("community name is already taken")
)

// Repository defines community data access
type Repository interface {
	Create(ctx context.Context, c *Community, creatorID string) error
	GetByID(ctx context.Context, id string) (*Community, error)
	List(ctx context.Context, limit, offset int) ([]*Community, error)
	Join(ctx context.Context, communityID, userID, role string) error
	Leave(ctx context.Context, communityID, userID string) error
	GetMembership(ctx context.Context, communityID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, communityID string, limit int) ([]*Membership, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a Postgres-backed community repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// Create inserts the community and its creator membership in one tx
func (r *postgresRepository) Create(ctx context.Context, c *Community, creatorID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO communities (id, name, description, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Description, c.CreatorID, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("create community: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO community_members (community_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, NOW())`, c.ID, creatorID, RoleCreator)
	if err != nil {
		return fmt.Errorf("add creator membership: %w", err)
	}
	return tx.Commit()
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Community, error) {
	var c Community
	err := r.db.GetContext(ctx, &c, `
		SELECT c.id, c.name, c.description, c.creator_id, c.created_at,
		       COUNT(m.user_id) AS member_count
		FROM communities c
		LEFT JOIN community_members m ON m.community_id = c.id
		WHERE c.id = $1
		GROUP BY c.id`, id)
	if err == sql.ErrNoRows {
		return nil, ErrCommunityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	return &c, nil
}

func (r *postgresRepository) List(ctx context.Context, limit, offset int) ([]*Community, error) {
	communities := []*Community{}
	err := r.db.SelectContext(ctx, &communities, `
		SELECT c.id, c.name, c.description, c.creator_id, c.created_at,
		       COUNT(m.user_id) AS member_count
		FROM communities c
		LEFT JOIN community_members m ON m.community_id = c.id
		GROUP BY c.id
		ORDER BY member_count DESC, c.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	return communities, nil
}

// Join is idempotent; joining twice leaves the original membership untouched
func (r *postgresRepository) Join(ctx context.Context, communityID, userID, role string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO community_members (community_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (community_id, user_id) DO NOTHING`, communityID, userID, role)
	if err != nil {
		return fmt.Errorf("join community: %w", err)
	}
	return nil
}

// Leave is idempotent; leaving a community you are not in is a no-op
func (r *postgresRepository) Leave(ctx context.Context, communityID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM community_members WHERE community_id = $1 AND user_id = $2`,
		communityID, userID)
	if err != nil {
		return fmt.Errorf("leave community: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetMembership(ctx context.Context, communityID, userID string) (*Membership, error) {
	var m Membership
	err := r.db.GetContext(ctx, &m, `
		SELECT community_id, user_id, role, joined_at
		FROM community_members WHERE community_id = $1 AND user_id = $2`,
		communityID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

func (r *postgresRepository) ListMembers(ctx context.Context, communityID string, limit int) ([]*Membership, error) {
	members := []*Membership{}
	err := r.db.SelectContext(ctx, &members, `
		SELECT community_id, user_id, role, joined_at
		FROM community_members
		WHERE community_id = $1
		ORDER BY joined_at ASC
		LIMIT $2`, communityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
