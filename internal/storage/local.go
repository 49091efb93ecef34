// internal/storage/local.go

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// localService stores objects on the local filesystem. Development and test
// use only; signed URLs degrade to plain URLs since there is no signer.
type localService struct {
	dir     string
	baseURL string
	maxSize int64
}

// NewLocalService creates a filesystem-backed storage service
func NewLocalService(dir, baseURL string, maxSize int64) Service {
	return &localService{dir: dir, baseURL: baseURL, maxSize: maxSize}
}

func (s *localService) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	path := filepath.Join(s.dir, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if size > s.maxSize {
		os.Remove(path)
		return "", fmt.Errorf("file exceeds maximum allowed size %d", s.maxSize)
	}
	return s.PublicURL(bucket, key), nil
}

func (s *localService) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/uploads/%s/%s", s.baseURL, bucket, key)
}

func (s *localService) SignedURL(bucket, key string, expiry time.Duration) (string, error) {
	return s.PublicURL(bucket, key), nil
}

func (s *localService) Delete(ctx context.Context, bucket, key string) error {
	return os.Remove(filepath.Join(s.dir, bucket, filepath.FromSlash(key)))
}
