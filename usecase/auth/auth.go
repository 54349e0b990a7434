package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/repository"
	"github.com/idforge/backend/usecase"
)

// Command and query names routed through the buses.
const (
	CommandCreateAccount  = "auth.create_account"
	CommandStartSession   = "auth.start_session"
	CommandExtendSession  = "auth.extend_session"
	CommandRevokeSession  = "auth.revoke_session"
	CommandFailedAttempt  = "auth.record_failed_attempt"
	CommandActivate       = "auth.activate"
	CommandSuspend        = "auth.suspend"
	CommandDisable        = "auth.disable"
	CommandExpire         = "auth.expire"
	CommandUpdateSettings = "auth.update_settings"

	QueryGet        = "auth.get"
	QueryGetSession = "auth.get_session"
)

type CreateInput struct {
	TenantID string
	UserID   string
	Limits   map[string]int
	Flags    map[string]bool
}

type SessionInput struct {
	AuthID    string
	SessionID string
	TTL       time.Duration
	Metadata  map[string]string
}

type StatusInput struct {
	AuthID string
	Reason string
}

type SettingsInput struct {
	AuthID   string
	Settings domain.Settings
}

type GetInput struct {
	AuthID    string
	SessionID string
}

// AuthView is the query result shape.
type AuthView struct {
	Auth     domain.Auth      `json:"auth"`
	Settings domain.Settings  `json:"settings"`
	Stats    map[string]int   `json:"stats"`
	Sessions []domain.Session `json:"sessions"`
}

type UseCase struct {
	accounts  repository.AuthRepository
	sessions  repository.SessionStore
	publisher *usecase.Publisher
	defaults  domain.Settings
	logger    *zap.Logger
}

func New(accounts repository.AuthRepository, sessions repository.SessionStore, publisher *usecase.Publisher, defaults domain.Settings, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		accounts:  accounts,
		sessions:  sessions,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
	}
}

// Register binds every auth command and query to the buses.
func (uc *UseCase) Register(commands *usecase.CommandBus, queries *usecase.QueryBus) {
	commands.Register(CommandCreateAccount, uc.createAccount)
	commands.Register(CommandStartSession, uc.startSession)
	commands.Register(CommandExtendSession, uc.extendSession)
	commands.Register(CommandRevokeSession, uc.revokeSession)
	commands.Register(CommandFailedAttempt, uc.recordFailedAttempt)
	commands.Register(CommandActivate, uc.activate)
	commands.Register(CommandSuspend, uc.suspend)
	commands.Register(CommandDisable, uc.disable)
	commands.Register(CommandExpire, uc.expire)
	commands.Register(CommandUpdateSettings, uc.updateSettings)

	queries.Register(QueryGet, uc.get)
	queries.Register(QueryGetSession, uc.getSession)
}

func (uc *UseCase) createAccount(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(CreateInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	if in.TenantID == "" || in.UserID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "auth tenant id and user id are required")
	}

	settings := uc.defaults.Copy()
	if settings.Limits == nil {
		settings.Limits = make(map[string]int)
	}
	if settings.Flags == nil {
		settings.Flags = make(map[string]bool)
	}
	for k, v := range in.Limits {
		settings.Limits[k] = v
	}
	for k, v := range in.Flags {
		settings.Flags[k] = v
	}

	agg := domain.NewAuthAggregate(domain.Auth{
		ID:       uuid.NewString(),
		TenantID: in.TenantID,
		UserID:   in.UserID,
	}, settings)

	if err := uc.accounts.Save(ctx, agg); err != nil {
		return nil, err
	}
	uc.publisher.Flush(ctx, agg)
	return view(agg), nil
}

// startSession admits a session on the aggregate and, on success, mirrors it
// into the session store.
func (uc *UseCase) startSession(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(SessionInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	ttl := in.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	session := domain.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
		Metadata:  in.Metadata,
	}

	result, err := uc.mutate(ctx, in.AuthID, func(agg *domain.AuthAggregate) error {
		session.UserID = agg.Auth().UserID
		return agg.StartSession(session)
	})
	if err != nil {
		return nil, err
	}
	session.AuthID = in.AuthID
	if err := uc.sessions.Save(ctx, &session); err != nil {
		uc.logger.Warn("failed to mirror session into store", zap.String("session_id", session.ID), zap.Error(err))
	}
	return result, nil
}

// extendSession pushes the expiry forward on the aggregate first, then
// re-stamps the store-side mirror so both views agree on the new deadline.
func (uc *UseCase) extendSession(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(SessionInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	ttl := in.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	until := time.Now().Add(ttl)

	result, err := uc.mutate(ctx, in.AuthID, func(agg *domain.AuthAggregate) error {
		return agg.ExtendSession(in.SessionID, until)
	})
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, in.SessionID, int(ttl.Seconds())); err != nil {
		uc.logger.Warn("failed to extend session in store", zap.String("session_id", in.SessionID), zap.Error(err))
	}
	return result, nil
}

func (uc *UseCase) revokeSession(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(SessionInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	result, err := uc.mutate(ctx, in.AuthID, func(agg *domain.AuthAggregate) error {
		return agg.RevokeSession(in.SessionID)
	})
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Delete(ctx, in.SessionID); err != nil {
		uc.logger.Warn("failed to delete session from store", zap.String("session_id", in.SessionID), zap.Error(err))
	}
	return result, nil
}

func (uc *UseCase) recordFailedAttempt(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.AuthID, func(agg *domain.AuthAggregate) error {
		return agg.RecordFailedAttempt()
	})
}

func (uc *UseCase) activate(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.AuthID, func(agg *domain.AuthAggregate) error {
		return agg.Activate()
	})
}

func (uc *UseCase) suspend(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.AuthID, func(agg *domain.AuthAggregate) error {
		return agg.Suspend(in.Reason)
	})
}

func (uc *UseCase) disable(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.disableAccount(ctx, in.AuthID, in.Reason)
}

// DisableAccount is the programmatic entry used by subscribers (for example
// when a tenant is disabled) in addition to the command handler.
func (uc *UseCase) DisableAccount(ctx context.Context, authID, reason string) error {
	_, err := uc.disableAccount(ctx, authID, reason)
	return err
}

func (uc *UseCase) disableAccount(ctx context.Context, authID, reason string) (*AuthView, error) {
	var revoked []domain.Session
	result, err := uc.mutate(ctx, authID, func(agg *domain.AuthAggregate) error {
		revoked = agg.Sessions()
		return agg.Disable(reason)
	})
	if err != nil {
		return nil, err
	}
	for _, s := range revoked {
		if err := uc.sessions.Delete(ctx, s.ID); err != nil {
			uc.logger.Warn("failed to delete revoked session", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	return result, nil
}

func (uc *UseCase) expire(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	var revoked []domain.Session
	result, err := uc.mutate(ctx, in.AuthID, func(agg *domain.AuthAggregate) error {
		revoked = agg.Sessions()
		return agg.Expire()
	})
	if err != nil {
		return nil, err
	}
	for _, s := range revoked {
		if err := uc.sessions.Delete(ctx, s.ID); err != nil {
			uc.logger.Warn("failed to delete expired session", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	return result, nil
}

func (uc *UseCase) updateSettings(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(SettingsInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.AuthID, func(agg *domain.AuthAggregate) error {
		return agg.UpdateSettings(in.Settings)
	})
}

func (uc *UseCase) get(ctx context.Context, q *usecase.Query) (interface{}, error) {
	in, ok := q.Data.(GetInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.accounts.GetByID(ctx, in.AuthID)
	if err != nil {
		return nil, err
	}
	return view(agg), nil
}

// getSession reads the store-side mirror, treating an expired session as
// absent.
func (uc *UseCase) getSession(ctx context.Context, q *usecase.Query) (interface{}, error) {
	in, ok := q.Data.(GetInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	session, err := uc.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, in.SessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (uc *UseCase) mutate(ctx context.Context, authID string, op func(*domain.AuthAggregate) error) (*AuthView, error) {
	if authID == "" {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.accounts.GetByID(ctx, authID)
	if err != nil {
		return nil, err
	}
	if err := op(agg); err != nil {
		return nil, err
	}
	if err := uc.accounts.Save(ctx, agg); err != nil {
		return nil, err
	}
	uc.publisher.Flush(ctx, agg)
	return view(agg), nil
}

func view(agg *domain.AuthAggregate) *AuthView {
	return &AuthView{
		Auth:     agg.Auth(),
		Settings: agg.Settings(),
		Stats:    agg.Stats(),
		Sessions: agg.Sessions(),
	}
}
