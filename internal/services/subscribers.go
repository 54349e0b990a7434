package services

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
	appLogger "github.com/idforge/backend/pkg/logger"
	"github.com/idforge/backend/repository"
	"github.com/idforge/backend/usecase"
	authuc "github.com/idforge/backend/usecase/auth"
)

// RegisterAuditLogger subscribes a structured audit log entry for every
// lifecycle event the aggregates emit.
func RegisterAuditLogger(bus *usecase.EventBus, logger *zap.Logger) {
	if bus == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := logger.Named("audit")

	handler := func(ctx context.Context, event domain.Event) error {
		fields := []zap.Field{
			zap.String("aggregate_id", event.AggregateID),
			zap.Time("emitted_at", event.Timestamp),
		}
		if reason, ok := event.Payload["reason"].(string); ok && reason != "" {
			fields = append(fields, zap.String("reason", reason))
		}
		// In-process publishes carry the request context, so the audit line
		// can be tied back to the HTTP call that caused the event.
		appLogger.WithCorrelationID(ctx, audit).Info(event.Type, fields...)
		return nil
	}

	for _, eventType := range auditedEvents {
		bus.Subscribe(eventType, handler)
	}
}

var auditedEvents = []string{
	domain.EventTenantCreated,
	domain.EventTenantActivated,
	domain.EventTenantSuspended,
	domain.EventTenantDisabled,
	domain.EventTenantLimitWarning,
	domain.EventPermissionCreated,
	domain.EventPermissionDisabled,
	domain.EventRoleCreated,
	domain.EventRolePermissionRevoked,
	domain.EventAuthCreated,
	domain.EventAuthSuspended,
	domain.EventAuthDisabled,
	domain.EventAuthExpired,
	domain.EventAuthLoginFailed,
}

// RegisterStatsProjector keeps rolling event counters in Redis: a total per
// event type plus a per-day hash so dashboards can chart activity without
// touching Postgres. Projection failures are logged and swallowed; counters
// are advisory.
func RegisterStatsProjector(bus *usecase.EventBus, client *redislib.Client, logger *zap.Logger) {
	if bus == nil || client == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := func(ctx context.Context, event domain.Event) error {
		day := event.Timestamp.Format("2006-01-02")
		pipe := client.Pipeline()
		pipe.Incr(ctx, "stats:events:"+event.Type)
		pipe.HIncrBy(ctx, "stats:daily:"+day, event.Type, 1)
		pipe.Expire(ctx, "stats:daily:"+day, 90*24*time.Hour)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("failed to project event statistics",
				zap.String("event", event.Type),
				zap.Error(err))
		}
		return nil
	}

	for _, eventType := range auditedEvents {
		bus.Subscribe(eventType, handler)
	}
}

// AccountDisabler is the slice of the auth use case the revoker needs.
type AccountDisabler interface {
	DisableAccount(ctx context.Context, authID, reason string) error
}

// RegisterTenantDisabledRevoker wires the cascade that disables every auth
// account, and with them every live session, when a tenant is disabled.
func RegisterTenantDisabledRevoker(
	bus *usecase.EventBus,
	accounts repository.AuthRepository,
	disabler AccountDisabler,
	logger *zap.Logger,
) {
	if bus == nil || accounts == nil || disabler == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bus.Subscribe(domain.EventTenantDisabled, func(ctx context.Context, event domain.Event) error {
		tenantID := event.AggregateID
		aggregates, err := accounts.ListByTenant(ctx, tenantID)
		if err != nil {
			return err
		}

		for _, agg := range aggregates {
			if agg.Status() == domain.StatusDisabled {
				continue
			}
			if err := disabler.DisableAccount(ctx, agg.ID(), "tenant disabled"); err != nil {
				logger.Error("failed to disable account for disabled tenant",
					zap.String("tenant_id", tenantID),
					zap.String("auth_id", agg.ID()),
					zap.Error(err))
				return err
			}
		}

		logger.Info("revoked access for disabled tenant",
			zap.String("tenant_id", tenantID),
			zap.Int("accounts", len(aggregates)))
		return nil
	})
}

var _ AccountDisabler = (*authuc.UseCase)(nil)
