package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idforge/backend/domain"
)

func newTestAuth(limits map[string]int, flags map[string]bool) *domain.AuthAggregate {
	agg := domain.NewAuthAggregate(domain.Auth{
		ID:       "auth-1",
		TenantID: "ten-1",
		UserID:   "user-1",
	}, domain.Settings{Limits: limits, Flags: flags})
	agg.ClearDomainEvents()
	return agg
}

func session(id string) domain.Session {
	return domain.Session{
		ID:        id,
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestAuthAggregate_StartSession(t *testing.T) {
	agg := newTestAuth(
		map[string]int{domain.LimitMaxSessions: 2},
		map[string]bool{domain.FlagAllowMultipleSessions: true},
	)

	require.NoError(t, agg.StartSession(session("s1")))
	require.NoError(t, agg.StartSession(session("s2")))
	assert.Equal(t, 2, agg.Stats()[domain.StatActiveSessionCount])

	err := agg.StartSession(session("s3"))
	require.Error(t, err, "session limit reached")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))

	err = agg.StartSession(session("s1"))
	require.Error(t, err, "duplicate session id")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
}

func TestAuthAggregate_SingleSessionDefault(t *testing.T) {
	agg := newTestAuth(map[string]int{domain.LimitMaxSessions: 5}, nil)

	require.NoError(t, agg.StartSession(session("s1")))

	err := agg.StartSession(session("s2"))
	require.Error(t, err, "multiple sessions disallowed unless flagged")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))

	require.NoError(t, agg.RevokeSession("s1"))
	require.NoError(t, agg.StartSession(session("s2")))
}

func TestAuthAggregate_StartSessionRequiresActive(t *testing.T) {
	agg := newTestAuth(nil, nil)
	require.NoError(t, agg.Suspend("review"))

	err := agg.StartSession(session("s1"))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
}

func TestAuthAggregate_FailedAttemptsAutoSuspend(t *testing.T) {
	agg := newTestAuth(map[string]int{domain.LimitMaxFailedAttempts: 3}, nil)

	require.NoError(t, agg.RecordFailedAttempt())
	require.NoError(t, agg.RecordFailedAttempt())
	assert.Equal(t, domain.StatusActive, agg.Status())

	require.NoError(t, agg.RecordFailedAttempt())
	assert.Equal(t, domain.StatusSuspended, agg.Status())
	assert.Contains(t, eventTypes(agg.DomainEvents()), domain.EventAuthSuspended)
}

func TestAuthAggregate_SuccessfulSessionResetsFailedAttempts(t *testing.T) {
	agg := newTestAuth(map[string]int{domain.LimitMaxFailedAttempts: 5}, nil)

	require.NoError(t, agg.RecordFailedAttempt())
	require.NoError(t, agg.RecordFailedAttempt())
	assert.Equal(t, 2, agg.Stats()[domain.StatFailedAttemptCount])

	require.NoError(t, agg.StartSession(session("s1")))
	assert.Zero(t, agg.Stats()[domain.StatFailedAttemptCount])
}

func TestAuthAggregate_DisableClearsSessions(t *testing.T) {
	agg := newTestAuth(nil, map[string]bool{domain.FlagAllowMultipleSessions: true})
	require.NoError(t, agg.StartSession(session("s1")))
	require.NoError(t, agg.StartSession(session("s2")))
	agg.ClearDomainEvents()

	require.NoError(t, agg.Disable("compromised"))

	assert.Equal(t, domain.StatusDisabled, agg.Status())
	assert.Empty(t, agg.Sessions())
	assert.Zero(t, agg.Stats()[domain.StatActiveSessionCount])

	types := eventTypes(agg.DomainEvents())
	assert.Contains(t, types, domain.EventAuthSessionsCleared)
	assert.Contains(t, types, domain.EventAuthDisabled)
}

func TestAuthAggregate_ExpireAndReactivate(t *testing.T) {
	agg := newTestAuth(nil, nil)
	require.NoError(t, agg.StartSession(session("s1")))

	require.NoError(t, agg.Expire())
	assert.Equal(t, domain.StatusExpired, agg.Status())
	assert.Empty(t, agg.Sessions())

	require.NoError(t, agg.Activate())
	assert.Equal(t, domain.StatusActive, agg.Status())
	require.NoError(t, agg.StartSession(session("s2")))
}

func TestAuthAggregate_RecordFailedAttemptOnDisabled(t *testing.T) {
	agg := newTestAuth(nil, nil)
	require.NoError(t, agg.Disable("gone"))

	err := agg.RecordFailedAttempt()
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
}

func TestAuthAggregate_SessionsSortedByCreation(t *testing.T) {
	agg := newTestAuth(nil, map[string]bool{domain.FlagAllowMultipleSessions: true})

	first := session("s1")
	first.CreatedAt = time.Now().Add(-2 * time.Minute)
	second := session("s2")
	second.CreatedAt = time.Now().Add(-1 * time.Minute)

	require.NoError(t, agg.StartSession(second))
	require.NoError(t, agg.StartSession(first))

	sessions := agg.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, "s2", sessions[1].ID)
	assert.Equal(t, "auth-1", sessions[0].AuthID, "aggregate stamps its own id")
}

func TestAuthAggregate_ExtendSession(t *testing.T) {
	agg := newTestAuth(nil, nil)
	require.NoError(t, agg.StartSession(session("s1")))
	agg.ClearDomainEvents()

	until := time.Now().Add(3 * time.Hour)
	require.NoError(t, agg.ExtendSession("s1", until))

	sessions := agg.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, until, sessions[0].ExpiresAt, "stored session carries the new deadline")
	assert.False(t, sessions[0].IsExpired(time.Now().Add(2*time.Hour)))
	assert.Contains(t, eventTypes(agg.DomainEvents()), domain.EventAuthSessionExtended)
}

func TestAuthAggregate_ExtendSessionOnlyForward(t *testing.T) {
	agg := newTestAuth(nil, nil)
	require.NoError(t, agg.StartSession(session("s1")))

	err := agg.ExtendSession("s1", time.Now().Add(-time.Minute))
	require.Error(t, err, "expiry cannot move backwards")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))

	err = agg.ExtendSession("missing", time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
}

func TestAuthAggregate_ExtendSessionRequiresActive(t *testing.T) {
	agg := newTestAuth(nil, nil)
	require.NoError(t, agg.StartSession(session("s1")))
	require.NoError(t, agg.Suspend("review"))

	err := agg.ExtendSession("s1", time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
}

func TestSessionIsExpired(t *testing.T) {
	s := session("s1")
	assert.False(t, s.IsExpired(time.Now()))
	assert.True(t, s.IsExpired(time.Now().Add(2*time.Hour)))

	var nilSession *domain.Session
	assert.True(t, nilSession.IsExpired(time.Now()))
}
