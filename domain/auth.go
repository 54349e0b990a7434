package domain

import (
	"sort"
	"time"
)

// Auth represents the authentication account of one user within a tenant.
type Auth struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session represents one authenticated session held by an auth account.
// Sessions are mirrored into Redis by the session repository.
type Session struct {
	ID        string            `json:"id"`
	AuthID    string            `json:"auth_id"`
	UserID    string            `json:"user_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Auth settings and statistics keys.
const (
	LimitMaxSessions       = "maxSessions"
	LimitMaxFailedAttempts = "maxFailedAttempts"

	FlagAllowMultipleSessions = "allowMultipleSessions"

	StatActiveSessionCount = "activeSessionCount"
	StatFailedAttemptCount = "failedAttemptCount"
)

// Auth domain event types.
const (
	EventAuthCreated         = "auth.created"
	EventAuthActivated       = "auth.activated"
	EventAuthSuspended       = "auth.suspended"
	EventAuthDisabled        = "auth.disabled"
	EventAuthExpired         = "auth.expired"
	EventAuthSessionStarted  = "auth.session_started"
	EventAuthSessionExtended = "auth.session_extended"
	EventAuthSessionRevoked  = "auth.session_revoked"
	EventAuthSessionsCleared = "auth.sessions_cleared"
	EventAuthLoginFailed     = "auth.login_failed"
	EventAuthSettingsUpdated = "auth.settings_updated"
	EventAuthLimitWarning    = "auth.limit_warning"
)

// AuthAggregate guards an auth account and its live sessions.
type AuthAggregate struct {
	state      *State[Auth]
	sessions   map[string]Session
	reactivate ReactivationHook
}

// NewAuthAggregate creates an active auth account and emits the creation
// event.
func NewAuthAggregate(auth Auth, settings Settings) *AuthAggregate {
	now := time.Now()
	auth.Status = StatusActive
	if auth.CreatedAt.IsZero() {
		auth.CreatedAt = now
	}
	auth.UpdatedAt = now

	a := &AuthAggregate{
		state:    NewState(auth, settings),
		sessions: make(map[string]Session),
	}
	a.state.record(EventAuthCreated, auth.ID, map[string]interface{}{
		"tenant_id": auth.TenantID,
		"user_id":   auth.UserID,
	})
	return a
}

// RestoreAuthAggregate rebuilds an aggregate from persisted fields.
func RestoreAuthAggregate(auth Auth, settings Settings, stats map[string]int, sessions []Session, lastUpdated time.Time) *AuthAggregate {
	a := &AuthAggregate{
		state:    RestoreState(auth, settings, stats, lastUpdated),
		sessions: make(map[string]Session, len(sessions)),
	}
	for _, s := range sessions {
		a.sessions[s.ID] = s
	}
	return a
}

// SetReactivationHook installs the policy run when leaving DISABLED.
func (a *AuthAggregate) SetReactivationHook(hook ReactivationHook) {
	a.reactivate = hook
}

func (a *AuthAggregate) Auth() Auth                { return a.state.Entity() }
func (a *AuthAggregate) ID() string                { return a.state.entity.ID }
func (a *AuthAggregate) Status() Status            { return a.state.entity.Status }
func (a *AuthAggregate) Settings() Settings        { return a.state.Settings() }
func (a *AuthAggregate) Stats() map[string]int     { return a.state.Stats() }
func (a *AuthAggregate) DomainEvents() []Event     { return a.state.DomainEvents() }
func (a *AuthAggregate) ClearDomainEvents()        { a.state.ClearDomainEvents() }
func (a *AuthAggregate) LastUpdated() time.Time    { return a.state.LastUpdated() }
func (a *AuthAggregate) LastActivityAt() time.Time { return a.state.LastActivityAt() }

// Sessions returns copies of the live sessions ordered by creation time.
func (a *AuthAggregate) Sessions() []Session {
	out := make([]Session, 0, len(a.sessions))
	for _, s := range a.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// StartSession admits a new session, guarding the account status, the
// single-session toggle and the session limit.
func (a *AuthAggregate) StartSession(session Session) error {
	if session.ID == "" {
		return ErrInvalidPayload
	}
	if a.state.entity.Status != StatusActive {
		return InvariantError("auth account %s is %s and cannot start sessions", a.ID(), a.state.entity.Status)
	}
	_, exists := a.sessions[session.ID]
	if err := CheckNotMember("session", session.ID, exists); err != nil {
		return err
	}
	if !a.state.settings.Flag(FlagAllowMultipleSessions) && len(a.sessions) > 0 {
		return InvariantError("auth account %s does not allow multiple sessions", a.ID())
	}
	if err := CheckCapacity(LimitMaxSessions, len(a.sessions), a.state.settings.Limit(LimitMaxSessions)); err != nil {
		return err
	}

	session.AuthID = a.ID()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	a.sessions[session.ID] = session
	a.state.setStat(StatActiveSessionCount, len(a.sessions))
	a.state.setStat(StatFailedAttemptCount, 0)
	a.state.markActivity()
	a.state.record(EventAuthSessionStarted, a.ID(), map[string]interface{}{"session_id": session.ID})
	a.state.warnIfNearLimit(EventAuthLimitWarning, a.ID(), StatActiveSessionCount, LimitMaxSessions)
	return nil
}

// ExtendSession moves one session's expiry forward. The account must be
// active and the new deadline must lie past the current one.
func (a *AuthAggregate) ExtendSession(sessionID string, until time.Time) error {
	if a.state.entity.Status != StatusActive {
		return InvariantError("auth account %s is %s and cannot extend sessions", a.ID(), a.state.entity.Status)
	}
	session, exists := a.sessions[sessionID]
	if err := CheckMember("session", sessionID, exists); err != nil {
		return err
	}
	if !until.After(session.ExpiresAt) {
		return InvariantError("session %s expiry can only move forward", sessionID)
	}

	session.ExpiresAt = until
	a.sessions[sessionID] = session
	a.state.markActivity()
	a.state.record(EventAuthSessionExtended, a.ID(), map[string]interface{}{
		"session_id": sessionID,
		"expires_at": until,
	})
	return nil
}

// RevokeSession removes one session.
func (a *AuthAggregate) RevokeSession(sessionID string) error {
	_, exists := a.sessions[sessionID]
	if err := CheckMember("session", sessionID, exists); err != nil {
		return err
	}
	delete(a.sessions, sessionID)
	a.state.setStat(StatActiveSessionCount, len(a.sessions))
	a.state.record(EventAuthSessionRevoked, a.ID(), map[string]interface{}{"session_id": sessionID})
	return nil
}

// RecordFailedAttempt bumps the failed-login counter and suspends the account
// once the configured threshold is crossed.
func (a *AuthAggregate) RecordFailedAttempt() error {
	if a.state.entity.Status == StatusDisabled {
		return InvariantError("auth account %s is disabled", a.ID())
	}
	attempts := a.state.Stat(StatFailedAttemptCount) + 1
	a.state.setStat(StatFailedAttemptCount, attempts)
	a.state.record(EventAuthLoginFailed, a.ID(), map[string]interface{}{"attempts": attempts})

	if maxAttempts := a.state.settings.Limit(LimitMaxFailedAttempts); maxAttempts > 0 && attempts >= maxAttempts && a.state.entity.Status == StatusActive {
		a.setStatus(StatusSuspended)
		a.state.record(EventAuthSuspended, a.ID(), map[string]interface{}{"reason": "too many failed attempts"})
	}
	return nil
}

// Activate moves the account into ACTIVE, clearing the failed-attempt counter.
// Leaving DISABLED additionally runs the reactivation hook.
func (a *AuthAggregate) Activate() error {
	from := a.state.entity.Status
	if err := CheckTransition(from, StatusActive); err != nil {
		return err
	}
	if from == StatusDisabled && a.reactivate != nil {
		if err := a.reactivate(a.ID()); err != nil {
			return WrapError(ErrCodeForbidden, "reactivation rejected", err)
		}
	}
	a.setStatus(StatusActive)
	a.state.setStat(StatFailedAttemptCount, 0)
	a.state.record(EventAuthActivated, a.ID(), map[string]interface{}{"from": string(from)})
	return nil
}

// Suspend moves an active account into SUSPENDED.
func (a *AuthAggregate) Suspend(reason string) error {
	if err := CheckTransition(a.state.entity.Status, StatusSuspended); err != nil {
		return err
	}
	a.setStatus(StatusSuspended)
	a.state.record(EventAuthSuspended, a.ID(), map[string]interface{}{"reason": reason})
	return nil
}

// Disable moves the account into DISABLED and revokes every live session.
func (a *AuthAggregate) Disable(reason string) error {
	if err := CheckTransition(a.state.entity.Status, StatusDisabled); err != nil {
		return err
	}
	revoked := a.clearSessions()
	a.setStatus(StatusDisabled)
	a.state.record(EventAuthDisabled, a.ID(), map[string]interface{}{
		"reason":           reason,
		"revoked_sessions": revoked,
	})
	return nil
}

// Expire moves the account into EXPIRED and revokes every live session.
// A later Activate restores it.
func (a *AuthAggregate) Expire() error {
	if err := CheckTransition(a.state.entity.Status, StatusExpired); err != nil {
		return err
	}
	revoked := a.clearSessions()
	a.setStatus(StatusExpired)
	a.state.record(EventAuthExpired, a.ID(), map[string]interface{}{"revoked_sessions": revoked})
	return nil
}

// UpdateSettings replaces the settings wholesale, refusing a maxSessions
// below the current live session count.
func (a *AuthAggregate) UpdateSettings(next Settings) error {
	if err := CheckLimitFloor(LimitMaxSessions, next.Limit(LimitMaxSessions), len(a.sessions)); err != nil {
		return err
	}
	a.state.replaceSettings(next)
	a.state.record(EventAuthSettingsUpdated, a.ID(), map[string]interface{}{
		"limits": next.Copy().Limits,
	})
	return nil
}

func (a *AuthAggregate) clearSessions() int {
	revoked := len(a.sessions)
	if revoked > 0 {
		a.sessions = make(map[string]Session)
		a.state.setStat(StatActiveSessionCount, 0)
		a.state.record(EventAuthSessionsCleared, a.ID(), map[string]interface{}{"count": revoked})
	}
	return revoked
}

func (a *AuthAggregate) setStatus(to Status) {
	entity := a.state.entity
	entity.Status = to
	entity.UpdatedAt = time.Now()
	a.state.setEntity(entity)
}
