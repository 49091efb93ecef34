// internal/community/service.go

package community

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service defines the community service interface
type Service interface {
	Create(ctx context.Context, creatorID string, req *CreateCommunityRequest) (*Community, error)
	Get(ctx context.Context, id string) (*Community, error)
	List(ctx context.Context, limit, offset int) ([]*Community, error)
	Join(ctx context.Context, communityID, userID string) error
	Leave(ctx context.Context, communityID, userID string) error
	ListMembers(ctx context.Context, communityID string, limit int) ([]*Membership, error)
}

type communityService struct {
	repo Repository
}

// NewService creates a new community service
func NewService(repo Repository) Service {
	return &communityService{repo: repo}
}

func (s *communityService) Create(ctx context.Context, creatorID string, req *CreateCommunityRequest) (*Community, error) {
	c := &Community{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatorID:   creatorID,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, c, creatorID); err != nil {
		return nil, err
	}
	c.MemberCount = 1
	return c, nil
}

func (s *communityService) Get(ctx context.Context, id string) (*Community, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *communityService) List(ctx context.Context, limit, offset int) ([]*Community, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *communityService) Join(ctx context.Context, communityID, userID string) error {
	if _, err := s.repo.GetByID(ctx, communityID); err != nil {
		return err
	}
	return s.repo.Join(ctx, communityID, userID, RoleMember)
}

func (s *communityService) Leave(ctx context.Context, communityID, userID string) error {
	return s.repo.Leave(ctx, communityID, userID)
}

func (s *communityService) ListMembers(ctx context.Context, communityID string, limit int) ([]*Membership, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if _, err := s.repo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, communityID, limit)
}
