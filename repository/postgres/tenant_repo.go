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

type tenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository returns a Postgres-backed implementation of TenantRepository.
func NewTenantRepository(pool *pgxpool.Pool) repository.TenantRepository {
	return &tenantRepository{pool: pool}
}

const tenantColumns = `id, name, slug, plan, status, settings, stats, users, organizations, created_at, updated_at, last_updated`

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*domain.TenantAggregate, error) {
	const query = `
	SELECT ` + tenantColumns + `
	FROM tenants
	WHERE id = $1
	`
	return scanTenant(r.pool.QueryRow(ctx, query, id))
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.TenantAggregate, error) {
	const query = `
	SELECT ` + tenantColumns + `
	FROM tenants
	WHERE slug = $1
	`
	return scanTenant(r.pool.QueryRow(ctx, query, slug))
}

func (r *tenantRepository) List(ctx context.Context, filter repository.TenantFilter) ([]domain.Tenant, error) {
	const query = `
	SELECT id, name, slug, plan, status, created_at, updated_at
	FROM tenants
	WHERE ($1 = '' OR status = $1)
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Slug,
			&tenant.Plan,
			&tenant.Status,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepository) Save(ctx context.Context, aggregate *domain.TenantAggregate) error {
	if aggregate == nil || aggregate.ID() == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tenants (id, name, slug, plan, status, settings, stats, users, organizations, created_at, updated_at, last_updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()), NOW(), $11)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		slug = EXCLUDED.slug,
		plan = EXCLUDED.plan,
		status = EXCLUDED.status,
		settings = EXCLUDED.settings,
		stats = EXCLUDED.stats,
		users = EXCLUDED.users,
		organizations = EXCLUDED.organizations,
		updated_at = NOW(),
		last_updated = EXCLUDED.last_updated
	`

	tenant := aggregate.Tenant()
	_, err := r.pool.Exec(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Slug,
		tenant.Plan,
		tenant.Status,
		marshalSettings(aggregate.Settings()),
		marshalStats(aggregate.Stats()),
		marshalStrings(aggregate.Users()),
		marshalStrings(aggregate.Organizations()),
		nullTime(tenant.CreatedAt),
		aggregate.LastUpdated(),
	)
	return err
}

func (r *tenantRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tenants WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}

func scanTenant(row interface {
	Scan(dest ...interface{}) error
}) (*domain.TenantAggregate, error) {
	var (
		tenant      domain.Tenant
		settings    []byte
		stats       []byte
		users       []byte
		orgs        []byte
		lastUpdated time.Time
	)

	if err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.Plan,
		&tenant.Status,
		&settings,
		&stats,
		&users,
		&orgs,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
		&lastUpdated,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}

	return domain.RestoreTenantAggregate(
		tenant,
		unmarshalSettings(settings),
		unmarshalStats(stats),
		unmarshalStrings(users),
		unmarshalStrings(orgs),
		lastUpdated,
	), nil
}
