package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/repository"
)

type authRepository struct {
	pool *pgxpool.Pool
}

// NewAuthRepository returns a Postgres-backed implementation of AuthRepository.
func NewAuthRepository(pool *pgxpool.Pool) repository.AuthRepository {
	return &authRepository{pool: pool}
}

const authColumns = `id, tenant_id, user_id, status, settings, stats, sessions, created_at, updated_at, last_updated`

func (r *authRepository) GetByID(ctx context.Context, id string) (*domain.AuthAggregate, error) {
	const query = `
	SELECT ` + authColumns + `
	FROM auth_accounts
	WHERE id = $1
	`
	return scanAuth(r.pool.QueryRow(ctx, query, id))
}

func (r *authRepository) GetByUser(ctx context.Context, tenantID, userID string) (*domain.AuthAggregate, error) {
	const query = `
	SELECT ` + authColumns + `
	FROM auth_accounts
	WHERE tenant_id = $1 AND user_id = $2
	`
	return scanAuth(r.pool.QueryRow(ctx, query, tenantID, userID))
}

func (r *authRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.AuthAggregate, error) {
	const query = `
	SELECT ` + authColumns + `
	FROM auth_accounts
	WHERE tenant_id = $1
	ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggregates []*domain.AuthAggregate
	for rows.Next() {
		aggregate, err := scanAuth(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, aggregate)
	}
	return aggregates, rows.Err()
}

func (r *authRepository) Save(ctx context.Context, aggregate *domain.AuthAggregate) error {
	if aggregate == nil || aggregate.ID() == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO auth_accounts (id, tenant_id, user_id, status, settings, stats, sessions, created_at, updated_at, last_updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), NOW(), $9)
	ON CONFLICT (id) DO UPDATE
	SET status = EXCLUDED.status,
		settings = EXCLUDED.settings,
		stats = EXCLUDED.stats,
		sessions = EXCLUDED.sessions,
		updated_at = NOW(),
		last_updated = EXCLUDED.last_updated
	`

	auth := aggregate.Auth()
	sessions, err := json.Marshal(aggregate.Sessions())
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		auth.ID,
		auth.TenantID,
		auth.UserID,
		auth.Status,
		marshalSettings(aggregate.Settings()),
		marshalStats(aggregate.Stats()),
		sessions,
		nullTime(auth.CreatedAt),
		aggregate.LastUpdated(),
	)
	return err
}

func (r *authRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM auth_accounts WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuthNotFound
	}
	return nil
}

func scanAuth(row interface {
	Scan(dest ...interface{}) error
}) (*domain.AuthAggregate, error) {
	var (
		auth        domain.Auth
		settings    []byte
		stats       []byte
		rawSessions []byte
		lastUpdated time.Time
	)

	if err := row.Scan(
		&auth.ID,
		&auth.TenantID,
		&auth.UserID,
		&auth.Status,
		&settings,
		&stats,
		&rawSessions,
		&auth.CreatedAt,
		&auth.UpdatedAt,
		&lastUpdated,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuthNotFound
		}
		return nil, err
	}

	var sessions []domain.Session
	if len(rawSessions) > 0 {
		_ = json.Unmarshal(rawSessions, &sessions)
	}

	return domain.RestoreAuthAggregate(
		auth,
		unmarshalSettings(settings),
		unmarshalStats(stats),
		sessions,
		lastUpdated,
	), nil
}
