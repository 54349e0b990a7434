package repository

import (
	"context"

	"github.com/idforge/backend/domain"
)

type TenantFilter struct {
	Status string
	Limit  int
	Offset int
}

type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TenantAggregate, error)
	GetBySlug(ctx context.Context, slug string) (*domain.TenantAggregate, error)
	List(ctx context.Context, filter TenantFilter) ([]domain.Tenant, error)
	Save(ctx context.Context, aggregate *domain.TenantAggregate) error
	Delete(ctx context.Context, id string) error
}
