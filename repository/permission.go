package repository

import (
	"context"

	"github.com/idforge/backend/domain"
)

type PermissionFilter struct {
	TenantID string
	Status   string
	Resource string
	Limit    int
	Offset   int
}

type PermissionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.PermissionAggregate, error)
	GetByCode(ctx context.Context, tenantID string, code domain.PermissionCode) (*domain.PermissionAggregate, error)
	List(ctx context.Context, filter PermissionFilter) ([]domain.Permission, error)
	Save(ctx context.Context, aggregate *domain.PermissionAggregate) error
	Delete(ctx context.Context, id string) error
}
