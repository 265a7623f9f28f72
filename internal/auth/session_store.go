package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks which issued tokens are still live. A token whose id is
// missing from the store is treated as signed out.
type SessionStore interface {
	Register(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	Active(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
}

const sessionKeyPrefix = "reportit:session:"

// RedisSessionStore keeps one key per session with the token's lifetime as
// TTL, so expired sessions clean themselves up.
type RedisSessionStore struct {
	rdb redis.Cmdable
}

func NewRedisSessionStore(rdb redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Register(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKeyPrefix+tokenID, userID, ttl).Err()
}

func (s *RedisSessionStore) Active(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, tokenID string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+tokenID).Err()
}

// MemorySessionStore is used when no Redis address is configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Register(_ context.Context, tokenID, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenID] = s.now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) Active(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.sessions[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.sessions, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenID)
	return nil
}
