// internal/profile/service.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unitedhouse/unitedhouse-backend/internal/storage"
)

var (
	ErrVerificationNotFound = errors.New("verification request not found")
	ErrVerificationPending  = errors.New("a verification request is already pending")
	ErrAlreadyVerified      = errors.New("user is already verified")
	ErrInvalidImageFormat   = errors.New("invalid image format")
	ErrUsernameTaken        = errors.New("username is already taken")
)

var allowedImageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Config holds profile service configuration
type Config struct {
	AvatarBucket       string
	VerificationBucket string
	SignedURLExpiry    time.Duration
}

// Service defines the profile service interface
type Service interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*Profile, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]*Profile, error)
	UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (string, error)

	SubmitVerification(ctx context.Context, userID string, document, selfie multipart.File, docHeader, selfieHeader *multipart.FileHeader) (*VerificationRequest, error)
	ListPendingVerifications(ctx context.Context, limit int) ([]*VerificationRequest, error)
	GetVerificationDocuments(ctx context.Context, requestID string) (*VerificationDocuments, error)
	ReviewVerification(ctx context.Context, requestID, reviewerID string, approve bool) error
}

type profileService struct {
	repo    Repository
	storage storage.Service
	config  Config
}

// NewService creates a new profile service
func NewService(repo Repository, store storage.Service, config Config) Service {
	return &profileService{
		repo:    repo,
		storage: store,
		config:  config,
	}
}

func (s *profileService) GetProfile(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*Profile, error) {
	if req.Username != nil {
		existing, err := s.repo.GetByUsername(ctx, *req.Username)
		if err == nil && existing.ID != userID {
			return nil, ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			return nil, err
		}
		if err := s.repo.UpdateUsername(ctx, userID, *req.Username); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *profileService) SearchUsers(ctx context.Context, query string, limit int) ([]*Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Profile{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.repo.SearchByUsername(ctx, query, limit)
}

func (s *profileService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	contentType, err := imageContentType(header.Filename)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s%s", userID, uuid.New().String(), strings.ToLower(filepath.Ext(header.Filename)))
	url, err := s.storage.Upload(ctx, s.config.AvatarBucket, key, file, contentType)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.repo.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

// SubmitVerification stores both documents under a per-user key prefix in the
// verification bucket and moves the profile to pending. Documents are private;
// only ReviewVerification hands out signed URLs.
func (s *profileService) SubmitVerification(ctx context.Context, userID string, document, selfie multipart.File, docHeader, selfieHeader *multipart.FileHeader) (*VerificationRequest, error) {
	profile, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.VerificationStatus == VerificationApproved {
		return nil, ErrAlreadyVerified
	}
	if _, err := s.repo.GetPendingVerificationForUser(ctx, userID); err == nil {
		return nil, ErrVerificationPending
	}

	docType, err := imageContentType(docHeader.Filename)
	if err != nil {
		return nil, err
	}
	selfieType, err := imageContentType(selfieHeader.Filename)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	docKey := fmt.Sprintf("%s/%s/document%s", userID, requestID, strings.ToLower(filepath.Ext(docHeader.Filename)))
	selfieKey := fmt.Sprintf("%s/%s/selfie%s", userID, requestID, strings.ToLower(filepath.Ext(selfieHeader.Filename)))

	if _, err := s.storage.Upload(ctx, s.config.VerificationBucket, docKey, document, docType); err != nil {
		return nil, fmt.Errorf("upload verification document: %w", err)
	}
	if _, err := s.storage.Upload(ctx, s.config.VerificationBucket, selfieKey, selfie, selfieType); err != nil {
		return nil, fmt.Errorf("upload verification selfie: %w", err)
	}

	req := &VerificationRequest{
		ID:          requestID,
		UserID:      userID,
		DocumentKey: docKey,
		SelfieKey:   selfieKey,
		Status:      VerificationPending,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateVerificationRequest(ctx, req); err != nil {
		return nil, err
	}
	if err := s.repo.SetVerificationStatus(ctx, userID, VerificationPending); err != nil {
		log.Printf("⚠️ Failed to mark profile pending for user %s: %v", userID, err)
	}
	return req, nil
}

func (s *profileService) ListPendingVerifications(ctx context.Context, limit int) ([]*VerificationRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListPendingVerifications(ctx, limit)
}

func (s *profileService) GetVerificationDocuments(ctx context.Context, requestID string) (*VerificationDocuments, error) {
	req, err := s.repo.GetVerificationRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	docURL, err := s.storage.SignedURL(s.config.VerificationBucket, req.DocumentKey, s.config.SignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign document url: %w", err)
	}
	selfieURL, err := s.storage.SignedURL(s.config.VerificationBucket, req.SelfieKey, s.config.SignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign selfie url: %w", err)
	}
	return &VerificationDocuments{DocumentURL: docURL, SelfieURL: selfieURL}, nil
}

func (s *profileService) ReviewVerification(ctx context.Context, requestID, reviewerID string, approve bool) error {
	req, err := s.repo.GetVerificationRequest(ctx, requestID)
	if err != nil {
		return err
	}

	status := VerificationRejected
	if approve {
		status = VerificationApproved
	}
	if err := s.repo.ResolveVerification(ctx, requestID, status, reviewerID); err != nil {
		return err
	}
	return s.repo.SetVerificationStatus(ctx, req.UserID, status)
}

func imageContentType(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedImageExts[ext]
	if !ok {
		return "", ErrInvalidImageFormat
	}
	return contentType, nil
}
