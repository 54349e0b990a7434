package repository

import (
	"context"

	"github.com/idforge/backend/domain"
)

type AuthRepository interface {
	GetByID(ctx context.Context, id string) (*domain.AuthAggregate, error)
	GetByUser(ctx context.Context, tenantID, userID string) (*domain.AuthAggregate, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.AuthAggregate, error)
	Save(ctx context.Context, aggregate *domain.AuthAggregate) error
	Delete(ctx context.Context, id string) error
}
