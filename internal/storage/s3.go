// internal/storage/s3.go
// Object storage boundary: blob upload plus public and time-limited signed URLs.
// Three buckets are used: avatars, post media, and identity verification
// documents (per-user-scoped keys).

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// Service is the storage boundary consumed by profile, content and
// verification code
type Service interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
	PublicURL(bucket, key string) string
	SignedURL(bucket, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}

type s3Service struct {
	client       *s3.S3
	region       string
	maxSize      int64
	allowedTypes []string
}

// NewS3Service creates the S3-backed storage service
func NewS3Service(awsSession *session.Session, region string, maxSize int64) Service {
	return &s3Service{
		client:  s3.New(awsSession),
		region:  region,
		maxSize: maxSize,
		allowedTypes: []string{
			"image/jpeg", "image/png", "image/gif", "image/webp",
			"application/pdf",
		},
	}
}

// ObjectKey builds a collision-free key under a caller-supplied prefix.
// Verification documents use the owning user id as the prefix so access
// policies can be scoped per user.
func ObjectKey(prefix, filename string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), filepath.Ext(filename))
}

// Upload stores a blob and returns its public URL
func (s *s3Service) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	if !s.isAllowedType(contentType) {
		return "", fmt.Errorf("file type %s not allowed", contentType)
	}

	buf := new(bytes.Buffer)
	size, err := io.Copy(buf, io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if size > s.maxSize {
		return "", fmt.Errorf("file exceeds maximum allowed size %d", s.maxSize)
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Metadata: map[string]*string{
			"uploaded-at": aws.String(time.Now().Format(time.RFC3339)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.PublicURL(bucket, key), nil
}

// PublicURL returns the unauthenticated URL for a blob. Only meaningful for
// buckets with public read policies (avatars, post media).
func (s *s3Service) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key)
}

// SignedURL returns a time-limited URL. Used for the verification bucket,
// which is never public.
func (s *s3Service) SignedURL(bucket, key string, expiry time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

// Delete removes a blob
func (s *s3Service) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *s3Service) isAllowedType(contentType string) bool {
	for _, allowed := range s.allowedTypes {
		if allowed == contentType {
			return true
		}
	}
	return false
}
