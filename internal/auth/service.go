// internal/auth/service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitedhouse/unitedhouse-backend/internal/common/utils"
	"github.com/unitedhouse/unitedhouse-backend/internal/notification"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
)

// Config holds auth service settings
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BCryptCost         int
	BaseURL            string
}

// Service is the session/identity boundary
type Service interface {
	SignUp(ctx context.Context, req *SignUpRequest) (*User, error)
	SignIn(ctx context.Context, req *SignInRequest) (*TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	CurrentSession(ctx context.Context, accessToken string) (*Session, error)
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ResendConfirmation(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, token string) error
	GetUserByID(ctx context.Context, id string) (*User, error)
}

type authService struct {
	repo   Repository
	redis  *redis.Client
	email  notification.EmailSender
	config *Config
}

// NewService creates the auth service
func NewService(repo Repository, redisClient *redis.Client, email notification.EmailSender, config *Config) Service {
	return &authService{
		repo:   repo,
		redis:  redisClient,
		email:  email,
		config: config,
	}
}

// SignUp registers a new user and sends the confirmation mail
func (s *authService) SignUp(ctx context.Context, req *SignUpRequest) (*User, error) {
	if _, err := s.repo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.CreateUser(ctx, user, req.Username); err != nil {
		return nil, err
	}

	if err := s.sendConfirmationMail(ctx, user); err != nil {
		// The account exists; the user can ask for a resend
		return user, nil
	}
	return user, nil
}

// SignIn verifies credentials and issues a token pair
func (s *authService) SignIn(ctx context.Context, req *SignInRequest) (*TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	return s.issueTokens(ctx, user)
}

// SignOut revokes the refresh token
func (s *authService) SignOut(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, refreshKey(refreshToken)).Err()
}

// Refresh rotates the refresh token: the presented token is consumed and a
// new pair issued
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.redis.GetDel(ctx, refreshKey(refreshToken)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// CurrentSession resolves an access token to the signed-in identity
func (s *authService) CurrentSession(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := s.ValidateToken(ctx, accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != "access" {
		return nil, ErrInvalidToken
	}
	return &Session{UserID: claims.UserID, Email: claims.Email, Username: claims.Username}, nil
}

// ValidateToken parses and verifies a JWT
func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	return utils.ValidateJWT(token, s.config.JWTSecret)
}

// RequestPasswordReset creates a one-hour reset token and mails it. Always
// succeeds from the caller's perspective so the endpoint does not leak which
// emails are registered.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.New().String()
	if err := s.redis.Set(ctx, resetKey(token), user.ID, time.Hour).Err(); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.BaseURL, token)
	return s.email.SendPasswordReset(ctx, user.Email, resetURL)
}

// ResetPassword consumes a reset token and updates the password
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.redis.GetDel(ctx, resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.BCryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// ResendConfirmation re-sends the confirmation mail for an unconfirmed account
func (s *authService) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.EmailConfirmed {
		return nil
	}
	return s.sendConfirmationMail(ctx, user)
}

// ConfirmEmail consumes a confirmation token
func (s *authService) ConfirmEmail(ctx context.Context, token string) error {
	userID, err := s.redis.GetDel(ctx, confirmKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}
	return s.repo.ConfirmEmail(ctx, userID)
}

func (s *authService) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *authService) sendConfirmationMail(ctx context.Context, user *User) error {
	token := uuid.New().String()
	if err := s.redis.Set(ctx, confirmKey(token), user.ID, 24*time.Hour).Err(); err != nil {
		return err
	}
	confirmURL := fmt.Sprintf("%s/login?confirm_token=%s", s.config.BaseURL, token)
	return s.email.SendConfirmation(ctx, user.Email, confirmURL)
}

func (s *authService) issueTokens(ctx context.Context, user *User) (*TokenPair, error) {
	username, err := s.repo.GetUsername(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	access, err := utils.GenerateJWT(&utils.JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  username,
		Type:      "access",
		ExpiresAt: now.Add(s.config.AccessTokenExpiry).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    "unitedhouse",
	}, s.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	refresh := uuid.New().String()
	if err := s.redis.Set(ctx, refreshKey(refresh), user.ID, s.config.RefreshTokenExpiry).Err(); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
	}, nil
}

func refreshKey(token string) string { return "auth:refresh:" + token }
func resetKey(token string) string   { return "auth:reset:" + token }
func confirmKey(token string) string { return "auth:confirm:" + token }
