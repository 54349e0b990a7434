package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/repository"
)

type permissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository returns a Postgres-backed implementation of PermissionRepository.
func NewPermissionRepository(pool *pgxpool.Pool) repository.PermissionRepository {
	return &permissionRepository{pool: pool}
}

const permissionColumns = `id, tenant_id, code, name, description, status, settings, stats, roles, created_at, updated_at, last_updated`

func (r *permissionRepository) GetByID(ctx context.Context, id string) (*domain.PermissionAggregate, error) {
	const query = `
	SELECT ` + permissionColumns + `
	FROM permissions
	WHERE id = $1
	`
	return scanPermission(r.pool.QueryRow(ctx, query, id))
}

func (r *permissionRepository) GetByCode(ctx context.Context, tenantID string, code domain.PermissionCode) (*domain.PermissionAggregate, error) {
	const query = `
	SELECT ` + permissionColumns + `
	FROM permissions
	WHERE tenant_id = $1 AND code = $2
	`
	return scanPermission(r.pool.QueryRow(ctx, query, tenantID, code.String()))
}

func (r *permissionRepository) List(ctx context.Context, filter repository.PermissionFilter) ([]domain.Permission, error) {
	const query = `
	SELECT id, tenant_id, code, name, description, status, created_at, updated_at
	FROM permissions
	WHERE ($1 = '' OR tenant_id = $1)
	  AND ($2 = '' OR status = $2)
	  AND ($3 = '' OR code = $3 OR code LIKE $3 || ':%')
	ORDER BY code ASC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.TenantID, filter.Status, filter.Resource,
		clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []domain.Permission
	for rows.Next() {
		var (
			permission domain.Permission
			code       string
		)
		if err := rows.Scan(
			&permission.ID,
			&permission.TenantID,
			&code,
			&permission.Name,
			&permission.Description,
			&permission.Status,
			&permission.CreatedAt,
			&permission.UpdatedAt,
		); err != nil {
			return nil, err
		}
		parsed, err := domain.ParsePermissionCode(code)
		if err != nil {
			continue
		}
		permission.Code = parsed
		permissions = append(permissions, permission)
	}
	return permissions, rows.Err()
}

func (r *permissionRepository) Save(ctx context.Context, aggregate *domain.PermissionAggregate) error {
	if aggregate == nil || aggregate.ID() == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO permissions (id, tenant_id, code, name, description, status, settings, stats, roles, created_at, updated_at, last_updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()), NOW(), $11)
	ON CONFLICT (id) DO UPDATE
	SET code = EXCLUDED.code,
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		status = EXCLUDED.status,
		settings = EXCLUDED.settings,
		stats = EXCLUDED.stats,
		roles = EXCLUDED.roles,
		updated_at = NOW(),
		last_updated = EXCLUDED.last_updated
	`

	permission := aggregate.Permission()
	_, err := r.pool.Exec(ctx, query,
		permission.ID,
		permission.TenantID,
		permission.Code.String(),
		permission.Name,
		permission.Description,
		permission.Status,
		marshalSettings(aggregate.Settings()),
		marshalStats(aggregate.Stats()),
		marshalStrings(aggregate.Roles()),
		nullTime(permission.CreatedAt),
		aggregate.LastUpdated(),
	)
	return err
}

func (r *permissionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM permissions WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPermissionNotFound
	}
	return nil
}

func scanPermission(row interface {
	Scan(dest ...interface{}) error
}) (*domain.PermissionAggregate, error) {
	var (
		permission  domain.Permission
		code        string
		settings    []byte
		stats       []byte
		roles       []byte
		lastUpdated time.Time
	)

	if err := row.Scan(
		&permission.ID,
		&permission.TenantID,
		&code,
		&permission.Name,
		&permission.Description,
		&permission.Status,
		&settings,
		&stats,
		&roles,
		&permission.CreatedAt,
		&permission.UpdatedAt,
		&lastUpdated,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPermissionNotFound
		}
		return nil, err
	}

	parsed, err := domain.ParsePermissionCode(code)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "stored permission code is invalid", err)
	}
	permission.Code = parsed

	return domain.RestorePermissionAggregate(
		permission,
		unmarshalSettings(settings),
		unmarshalStats(stats),
		unmarshalStrings(roles),
		lastUpdated,
	), nil
}
