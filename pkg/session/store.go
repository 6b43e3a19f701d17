package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks live sessions per (domain, subject). Each first-party domain
// owns its own keyspace, which is why logout has to be propagated.
type Store interface {
	Create(ctx context.Context, domain, subject string, ttl time.Duration) error
	Exists(ctx context.Context, domain, subject string) (bool, error)
	// Revoke is idempotent.
	Revoke(ctx context.Context, domain, subject string) error
}

func key(domain, subject string) string { return "session:" + domain + ":" + subject }

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store { return &redisStore{rdb: rdb} }

func (s *redisStore) Create(ctx context.Context, domain, subject string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key(domain, subject), time.Now().Unix(), ttl).Err()
}

func (s *redisStore) Exists(ctx context.Context, domain, subject string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key(domain, subject)).Result()
	return n > 0, err
}

func (s *redisStore) Revoke(ctx context.Context, domain, subject string) error {
	return s.rdb.Del(ctx, key(domain, subject)).Err()
}

type memStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore is the dev fallback when REDIS_URL is not set.
func NewMemoryStore() Store {
	return &memStore{expires: map[string]time.Time{}, now: time.Now}
}

func (s *memStore) Create(ctx context.Context, domain, subject string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[key(domain, subject)] = s.now().Add(ttl)
	return nil
}

func (s *memStore) Exists(ctx context.Context, domain, subject string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(domain, subject)
	exp, ok := s.expires[k]
	if !ok {
		return false, nil
	}
	if s.now().After(exp) {
		delete(s.expires, k)
		return false, nil
	}
	return true, nil
}

func (s *memStore) Revoke(ctx context.Context, domain, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, key(domain, subject))
	return nil
}
