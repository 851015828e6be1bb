// Package mem holds short-lived lookups kept in front of the status table.
package mem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusCache stores serialized subscription status rows keyed by user id.
type StatusCache interface {
	Get(ctx context.Context, userID string) ([]byte, bool, error)
	Set(ctx context.Context, userID string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
}

type RedisStatusCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStatusCache(client redis.UniversalClient, prefix string) *RedisStatusCache {
	if prefix == "" {
		prefix = "billing:status:"
	}
	return &RedisStatusCache{client: client, prefix: prefix}
}

func (r *RedisStatusCache) Get(ctx context.Context, userID string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("status cache get: %w", err)
	}
	return val, true, nil
}

func (r *RedisStatusCache) Set(ctx context.Context, userID string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+userID, value, ttl).Err(); err != nil {
		return fmt.Errorf("status cache set: %w", err)
	}
	return nil
}

func (r *RedisStatusCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.prefix+userID).Err(); err != nil {
		return fmt.Errorf("status cache delete: %w", err)
	}
	return nil
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStatusCache is used when no Redis address is configured.
type MemoryStatusCache struct {
	mu   sync.RWMutex
	data map[string]entry
}

func NewMemoryStatusCache() *MemoryStatusCache {
	return &MemoryStatusCache{
		data: make(map[string]entry),
	}
}

func (s *MemoryStatusCache) Get(_ context.Context, userID string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.data[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.data, userID)
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStatusCache) Set(_ context.Context, userID string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.data[userID] = e
	return nil
}

func (s *MemoryStatusCache) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}
