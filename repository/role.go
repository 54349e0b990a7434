package repository

import (
	"context"

	"github.com/idforge/backend/domain"
)

type RoleFilter struct {
	TenantID string
	Limit    int
	Offset   int
}

type RoleRepository interface {
	GetByID(ctx context.Context, id string) (*domain.RoleAggregate, error)
	List(ctx context.Context, filter RoleFilter) ([]domain.Role, error)
	Save(ctx context.Context, aggregate *domain.RoleAggregate) error
	Delete(ctx context.Context, id string) error
}
