// internal/content/service.go

package content

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unitedhouse/unitedhouse-backend/internal/storage"
)

var (
	ErrNotAuthor        = errors.New("only the author can modify this item")
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrInvalidVote      = errors.New("vote value must be -1 or 1")
	ErrItemUnavailable  = errors.New("this item is no longer available")
	ErrInvalidMediaType = errors.New("unsupported media type")
	ErrReplyDepth       = errors.New("replies to replies are not allowed")
)

var allowedMediaExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
}

// Config holds content service configuration
type Config struct {
	MediaBucket    string
	TrendingWindow time.Duration
}

// Service defines the content service interface
type Service interface {
	CreateItem(ctx context.Context, authorID string, req *CreateItemRequest) (*ContentItem, error)
	GetItem(ctx context.Context, id string) (*ContentItem, error)
	ListItems(ctx context.Context, filter *ListFilter) ([]*ContentItem, error)
	ListTrending(ctx context.Context, kind string, limit int) ([]*ContentItem, error)
	UpdateItem(ctx context.Context, id, authorID, title, body string) (*ContentItem, error)
	DeleteItem(ctx context.Context, id, authorID string) error
	UploadMedia(ctx context.Context, itemID, authorID string, file multipart.File, header *multipart.FileHeader) (string, error)

	Vote(ctx context.Context, itemID, userID string, value int) (int, error)
	RemoveVote(ctx context.Context, itemID, userID string) (int, error)

	AddComment(ctx context.Context, itemID, authorID string, req *CommentRequest) (*Comment, error)
	ListComments(ctx context.Context, itemID string) ([]*Comment, error)
	DeleteComment(ctx context.Context, commentID, authorID string) error
}

type contentService struct {
	repo    Repository
	storage storage.Service
	config  Config
}

// NewService creates a new content service
func NewService(repo Repository, store storage.Service, config Config) Service {
	if config.TrendingWindow == 0 {
		config.TrendingWindow = 7 * 24 * time.Hour
	}
	return &contentService{repo: repo, storage: store, config: config}
}

func (s *contentService) CreateItem(ctx context.Context, authorID string, req *CreateItemRequest) (*ContentItem, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	item := &ContentItem{
		ID:          uuid.New().String(),
		Kind:        req.Kind,
		AuthorID:    authorID,
		Title:       title,
		Body:        strings.TrimSpace(req.Body),
		CommunityID: req.CommunityID,
		CreatedAt:   time.Now(),
	}
	item.UpdatedAt = item.CreatedAt

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *contentService) GetItem(ctx context.Context, id string) (*ContentItem, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrItemUnavailable
	}
	return item, err
}

func (s *contentService) ListItems(ctx context.Context, filter *ListFilter) ([]*ContentItem, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.ListItems(ctx, filter)
}

func (s *contentService) ListTrending(ctx context.Context, kind string, limit int) ([]*ContentItem, error) {
	if kind != KindPost && kind != KindProject {
		kind = KindPost
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	since := time.Now().Add(-s.config.TrendingWindow)
	return s.repo.ListTrending(ctx, kind, since, limit)
}

func (s *contentService) UpdateItem(ctx context.Context, id, authorID, title, body string) (*ContentItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if err := s.ensureAvailable(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, id, authorID, title, strings.TrimSpace(body)); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrNotAuthor
		}
		return nil, err
	}
	return s.repo.GetItem(ctx, id)
}

func (s *contentService) DeleteItem(ctx context.Context, id, authorID string) error {
	err := s.repo.SoftDeleteItem(ctx, id, authorID)
	if errors.Is(err, ErrItemNotFound) {
		return ErrItemUnavailable
	}
	return err
}

func (s *contentService) UploadMedia(ctx context.Context, itemID, authorID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item.AuthorID != authorID {
		return "", ErrNotAuthor
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedMediaExts[ext]
	if !ok {
		return "", ErrInvalidMediaType
	}

	key := fmt.Sprintf("%s/%s%s", itemID, uuid.New().String(), ext)
	url, err := s.storage.Upload(ctx, s.config.MediaBucket, key, file, contentType)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	if err := s.repo.SetMediaURL(ctx, itemID, url); err != nil {
		return "", err
	}
	return url, nil
}

// Vote casts or replaces the caller's vote. The existence check runs before
// any write so a vote on a concurrently deleted item fails with a clear error
// instead of a dangling row.
func (s *contentService) Vote(ctx context.Context, itemID, userID string, value int) (int, error) {
	if value != -1 && value != 1 {
		return 0, ErrInvalidVote
	}
	if err := s.ensureAvailable(ctx, itemID); err != nil {
		return 0, err
	}

	vote := &Vote{ItemID: itemID, UserID: userID, Value: value, CreatedAt: time.Now()}
	if err := s.repo.UpsertVote(ctx, vote); err != nil {
		return 0, err
	}
	return s.repo.RecomputeScore(ctx, itemID)
}

func (s *contentService) RemoveVote(ctx context.Context, itemID, userID string) (int, error) {
	if err := s.ensureAvailable(ctx, itemID); err != nil {
		return 0, err
	}
	if err := s.repo.RemoveVote(ctx, itemID, userID); err != nil {
		return 0, err
	}
	return s.repo.RecomputeScore(ctx, itemID)
}

func (s *contentService) AddComment(ctx context.Context, itemID, authorID string, req *CommentRequest) (*Comment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, errors.New("comment cannot be empty")
	}
	if err := s.ensureAvailable(ctx, itemID); err != nil {
		return nil, err
	}

	// One level of replies only: a reply's parent must itself be top-level.
	if req.ParentID != nil {
		comments, err := s.repo.ListComments(ctx, itemID)
		if err != nil {
			return nil, err
		}
		found := false
		for _, c := range comments {
			if c.ID == *req.ParentID {
				if c.ParentID != nil {
					return nil, ErrReplyDepth
				}
				found = true
				break
			}
		}
		if !found {
			return nil, ErrCommentNotFound
		}
	}

	comment := &Comment{
		ID:        uuid.New().String(),
		ItemID:    itemID,
		AuthorID:  authorID,
		ParentID:  req.ParentID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *contentService) ListComments(ctx context.Context, itemID string) ([]*Comment, error) {
	if err := s.ensureAvailable(ctx, itemID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, itemID)
}

func (s *contentService) DeleteComment(ctx context.Context, commentID, authorID string) error {
	return s.repo.SoftDeleteComment(ctx, commentID, authorID)
}

func (s *contentService) ensureAvailable(ctx context.Context, itemID string) error {
	_, err := s.repo.GetItem(ctx, itemID)
	if errors.Is(err, ErrItemNotFound) {
		return ErrItemUnavailable
	}
	return err
}
