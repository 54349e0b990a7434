package repository

import (
	"context"

	"github.com/idforge/backend/domain"
)

// SessionStore is the cache-side mirror of live sessions, keyed by session ID
// with a TTL matching the session expiry.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttlSeconds int) error
}
