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

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a Postgres-backed implementation of RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) repository.RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*domain.RoleAggregate, error) {
	const query = `
	SELECT id, tenant_id, name, description, settings, stats, permission_codes, created_at, updated_at, last_updated
	FROM roles
	WHERE id = $1
	`
	return scanRole(r.pool.QueryRow(ctx, query, id))
}

func (r *roleRepository) List(ctx context.Context, filter repository.RoleFilter) ([]domain.Role, error) {
	const query = `
	SELECT id, tenant_id, name, description, created_at, updated_at
	FROM roles
	WHERE ($1 = '' OR tenant_id = $1)
	ORDER BY name ASC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.TenantID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(
			&role.ID,
			&role.TenantID,
			&role.Name,
			&role.Description,
			&role.CreatedAt,
			&role.UpdatedAt,
		); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepository) Save(ctx context.Context, aggregate *domain.RoleAggregate) error {
	if aggregate == nil || aggregate.ID() == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO roles (id, tenant_id, name, description, settings, stats, permission_codes, created_at, updated_at, last_updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), NOW(), $9)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		description = EXCLUDED.description,
		settings = EXCLUDED.settings,
		stats = EXCLUDED.stats,
		permission_codes = EXCLUDED.permission_codes,
		updated_at = NOW(),
		last_updated = EXCLUDED.last_updated
	`

	role := aggregate.Role()
	codes := aggregate.PermissionCodes()
	raw := make([]string, 0, len(codes))
	for _, code := range codes {
		raw = append(raw, code.String())
	}

	_, err := r.pool.Exec(ctx, query,
		role.ID,
		role.TenantID,
		role.Name,
		role.Description,
		marshalSettings(aggregate.Settings()),
		marshalStats(aggregate.Stats()),
		marshalStrings(raw),
		nullTime(role.CreatedAt),
		aggregate.LastUpdated(),
	)
	return err
}

func (r *roleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM roles WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func scanRole(row interface {
	Scan(dest ...interface{}) error
}) (*domain.RoleAggregate, error) {
	var (
		role        domain.Role
		settings    []byte
		stats       []byte
		codes       []byte
		lastUpdated time.Time
	)

	if err := row.Scan(
		&role.ID,
		&role.TenantID,
		&role.Name,
		&role.Description,
		&settings,
		&stats,
		&codes,
		&role.CreatedAt,
		&role.UpdatedAt,
		&lastUpdated,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}

	return domain.RestoreRoleAggregate(
		role,
		unmarshalSettings(settings),
		unmarshalStats(stats),
		unmarshalStrings(codes),
		lastUpdated,
	), nil
}
