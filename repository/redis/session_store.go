package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/repository"
)

type sessionStore struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store. Keys expire with the
// session so lookups never return stale sessions.
func NewSessionStore(client *redislib.Client, ttl time.Duration) repository.SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionStore{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	result, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(s.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = s.ttl
	}

	return s.client.Set(ctx, s.key(session.ID), payload, ttl).Err()
}

func (s *sessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Extend re-stamps the stored session's ExpiresAt and the key TTL together,
// so the marshalled payload and the Redis expiry cannot drift apart.
func (s *sessionStore) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = s.ttl
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	session.ExpiresAt = time.Now().Add(duration)

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), payload, duration).Err()
}

func (s *sessionStore) key(id string) string {
	return fmt.Sprintf("%s%s", s.prefix, id)
}
