// internal/content/repository.go

package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrItemNotFound    = errors.New("content item not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// Repository defines content data access
type Repository interface {
	CreateItem(ctx context.Context, item *ContentItem) error
	GetItem(ctx context.Context, id string) (*ContentItem, error)
	ListItems(ctx context.Context, filter *ListFilter) ([]*ContentItem, error)
	ListTrending(ctx context.Context, kind string, since time.Time, limit int) ([]*ContentItem, error)
	UpdateItem(ctx context.Context, id, authorID, title, body string) error
	SetMediaURL(ctx context.Context, id, mediaURL string) error
	SoftDeleteItem(ctx context.Context, id, authorID string) error

	UpsertVote(ctx context.Context, vote *Vote) error
	RemoveVote(ctx context.Context, itemID, userID string) error
	GetVote(ctx context.Context, itemID, userID string) (*Vote, error)
	RecomputeScore(ctx context.Context, itemID string) (int, error)

	CreateComment(ctx context.Context, comment *Comment) error
	ListComments(ctx context.Context, itemID string) ([]*Comment, error)
	SoftDeleteComment(ctx context.Context, id, authorID string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a Postgres-backed content repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateItem(ctx context.Context, item *ContentItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO content_items (id, kind, author_id, title, body, community_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		item.ID, item.Kind, item.AuthorID, item.Title, item.Body, item.CommunityID, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("create content item: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetItem(ctx context.Context, id string) (*ContentItem, error) {
	var item ContentItem
	err := r.db.GetContext(ctx, &item, `
		SELECT id, kind, author_id, title, body, media_url, score, comment_count,
		       community_id, deleted, created_at, updated_at
		FROM content_items WHERE id = $1 AND deleted = FALSE`, id)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}
	return &item, nil
}

func (r *postgresRepository) ListItems(ctx context.Context, filter *ListFilter) ([]*ContentItem, error) {
	query := `
		SELECT id, kind, author_id, title, body, media_url, score, comment_count,
		       community_id, deleted, created_at, updated_at
		FROM content_items
		WHERE deleted = FALSE`
	args := []interface{}{}
	n := 1

	if filter.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", n)
		args = append(args, filter.Kind)
		n++
	}
	if filter.CommunityID != "" {
		query += fmt.Sprintf(" AND community_id = $%d", n)
		args = append(args, filter.CommunityID)
		n++
	}
	if filter.AuthorID != "" {
		query += fmt.Sprintf(" AND author_id = $%d", n)
		args = append(args, filter.AuthorID)
		n++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n, n+1)
	args = append(args, filter.Limit, filter.Offset)

	items := []*ContentItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) ListTrending(ctx context.Context, kind string, since time.Time, limit int) ([]*ContentItem, error) {
	items := []*ContentItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, kind, author_id, title, body, media_url, score, comment_count,
		       community_id, deleted, created_at, updated_at
		FROM content_items
		WHERE deleted = FALSE AND kind = $1 AND created_at >= $2
		ORDER BY score DESC, created_at DESC
		LIMIT $3`, kind, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) UpdateItem(ctx context.Context, id, authorID, title, body string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE content_items SET title = $3, body = $4, updated_at = NOW()
		WHERE id = $1 AND author_id = $2 AND deleted = FALSE`, id, authorID, title, body)
	if err != nil {
		return fmt.Errorf("update content item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) SetMediaURL(ctx context.Context, id, mediaURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE content_items SET media_url = $2, updated_at = NOW()
		WHERE id = $1 AND deleted = FALSE`, id, mediaURL)
	if err != nil {
		return fmt.Errorf("set media url: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) SoftDeleteItem(ctx context.Context, id, authorID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE content_items SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND author_id = $2 AND deleted = FALSE`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete content item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) UpsertVote(ctx context.Context, vote *Vote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO votes (item_id, user_id, value, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id, user_id) DO UPDATE SET value = EXCLUDED.value`,
		vote.ItemID, vote.UserID, vote.Value, vote.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

func (r *postgresRepository) RemoveVote(ctx context.Context, itemID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM votes WHERE item_id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("remove vote: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetVote(ctx context.Context, itemID, userID string) (*Vote, error) {
	var v Vote
	err := r.db.GetContext(ctx, &v, `
		SELECT item_id, user_id, value, created_at
		FROM votes WHERE item_id = $1 AND user_id = $2`, itemID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vote: %w", err)
	}
	return &v, nil
}

// RecomputeScore derives the stored score from the vote rows. The score column
// is a cache, never the source of truth.
func (r *postgresRepository) RecomputeScore(ctx context.Context, itemID string) (int, error) {
	var score int
	err := r.db.GetContext(ctx, &score, `
		UPDATE content_items
		SET score = (SELECT COALESCE(SUM(value), 0) FROM votes WHERE item_id = $1)
		WHERE id = $1
		RETURNING score`, itemID)
	if err == sql.ErrNoRows {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("recompute score: %w", err)
	}
	return score, nil
}

func (r *postgresRepository) CreateComment(ctx context.Context, comment *Comment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comments (id, item_id, author_id, parent_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.ItemID, comment.AuthorID, comment.ParentID, comment.Body, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE content_items SET comment_count = comment_count + 1 WHERE id = $1`,
		comment.ItemID)
	if err != nil {
		return fmt.Errorf("bump comment count: %w", err)
	}
	return tx.Commit()
}

func (r *postgresRepository) ListComments(ctx context.Context, itemID string) ([]*Comment, error) {
	comments := []*Comment{}
	err := r.db.SelectContext(ctx, &comments, `
		SELECT id, item_id, author_id, parent_id, body, deleted, created_at
		FROM comments
		WHERE item_id = $1 AND deleted = FALSE
		ORDER BY created_at ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *postgresRepository) SoftDeleteComment(ctx context.Context, id, authorID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE comments SET deleted = TRUE WHERE id = $1 AND author_id = $2 AND deleted = FALSE`,
		id, authorID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}
