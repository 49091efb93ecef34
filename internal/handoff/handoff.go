// internal/handoff/handoff.go

// Package handoff provides a consume-once, TTL-bounded key/value store for
// state handed from one navigation step to the next (scroll positions,
// return-to anchors). Reading a key consumes it; expired keys are gone.
package handoff

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrNotFound = errors.New("handoff key not found")

// Store is a consume-once key/value store
type Store interface {
	Put(ctx context.Context, key, value string) error
	// Take returns and deletes the value. A second Take of the same key,
	// or a Take after the TTL, returns ErrNotFound.
	Take(ctx context.Context, key string) (string, error)
}

const keyPrefix = "handoff:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed handoff store
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Put(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, keyPrefix+key, value, s.ttl).Err()
}

func (s *redisStore) Take(ctx context.Context, key string) (string, error) {
	value, err := s.client.GetDel(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory handoff store, used in tests and
// single-node development setups
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *memoryStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *memoryStore) Take(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.entries, key)
	if s.now().After(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.value, nil
}
