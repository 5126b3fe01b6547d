package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*Session
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: map[string]*Session{}}
}

func (m *MemoryStore) Create(_ context.Context, username string) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := m.now()
	s := &Session{Token: token, Username: username, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Drop expired sessions while we hold the lock.
	for k, v := range m.sessions {
		if v.Expired(now) {
			delete(m.sessions, k)
		}
	}
	m.sessions[token] = s
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNoSession
	}
	if s.Expired(m.now()) {
		delete(m.sessions, token)
		return nil, ErrNoSession
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

const sessionKeyPrefix = "portfolio:session:"

// RedisStore keeps sessions in Redis with the session TTL as key expiry, so
// logins survive restarts and are shared between replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Create(ctx context.Context, username string) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{Token: token, Username: username, CreatedAt: now, ExpiresAt: now.Add(r.ttl)}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+token, data, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	data, err := r.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	s.Token = token
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
