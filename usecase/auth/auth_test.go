package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/usecase"
	authUC "github.com/idforge/backend/usecase/auth"
)

type fakeAccounts struct {
	byID map[string]*domain.AuthAggregate
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*domain.AuthAggregate, error) {
	agg, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrAuthNotFound
	}
	return agg, nil
}

func (f *fakeAccounts) GetByUser(_ context.Context, _, _ string) (*domain.AuthAggregate, error) {
	return nil, domain.ErrAuthNotFound
}

func (f *fakeAccounts) ListByTenant(_ context.Context, _ string) ([]*domain.AuthAggregate, error) {
	return nil, nil
}

func (f *fakeAccounts) Save(_ context.Context, agg *domain.AuthAggregate) error {
	f.byID[agg.ID()] = agg
	return nil
}

func (f *fakeAccounts) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

// fakeSessions mirrors the store semantics that matter here: Get returns the
// stored payload, and Extend re-stamps the payload's ExpiresAt rather than
// touching only a TTL on the side.
type fakeSessions struct {
	byID      map[string]*domain.Session
	extendErr error
	extended  []string
}

func (f *fakeSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessions) Save(_ context.Context, session *domain.Session) error {
	copied := *session
	f.byID[session.ID] = &copied
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeSessions) Extend(_ context.Context, id string, ttlSeconds int) error {
	f.extended = append(f.extended, id)
	if f.extendErr != nil {
		return f.extendErr
	}
	s, ok := f.byID[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.ExpiresAt = time.Now().Add(time.Duration(ttlSeconds) * time.Second)
	return nil
}

type dropOutbox struct{}

func (dropOutbox) Enqueue(context.Context, domain.Event) error { return nil }

func newAuthFixture(t *testing.T) (*usecase.CommandBus, *fakeAccounts, *fakeSessions) {
	t.Helper()
	accounts := &fakeAccounts{byID: make(map[string]*domain.AuthAggregate)}
	sessions := &fakeSessions{byID: make(map[string]*domain.Session)}
	commands := usecase.NewCommandBus(zap.NewNop())
	queries := usecase.NewQueryBus(zap.NewNop(), time.Minute)
	publisher := usecase.NewPublisher(usecase.NewEventBus(zap.NewNop()), dropOutbox{}, zap.NewNop())

	uc := authUC.New(accounts, sessions, publisher, domain.Settings{}, zap.NewNop())
	uc.Register(commands, queries)
	return commands, accounts, sessions
}

func seedAccountWithSession(t *testing.T, accounts *fakeAccounts, sessions *fakeSessions, expiry time.Time) {
	t.Helper()
	agg := domain.NewAuthAggregate(domain.Auth{
		ID:       "auth-1",
		TenantID: "ten-1",
		UserID:   "user-1",
	}, domain.Settings{})
	require.NoError(t, agg.StartSession(domain.Session{ID: "s1", ExpiresAt: expiry}))
	agg.ClearDomainEvents()
	accounts.byID["auth-1"] = agg

	stored := agg.Sessions()[0]
	require.NoError(t, sessions.Save(context.Background(), &stored))
}

func TestExtendSessionRestampsStoredExpiry(t *testing.T) {
	commands, accounts, sessions := newAuthFixture(t)
	original := time.Now().Add(time.Hour)
	seedAccountWithSession(t, accounts, sessions, original)

	result, err := commands.Execute(context.Background(), usecase.NewCommand(authUC.CommandExtendSession, authUC.SessionInput{
		AuthID:    "auth-1",
		SessionID: "s1",
		TTL:       48 * time.Hour,
	}))
	require.NoError(t, err)

	view, ok := result.(*authUC.AuthView)
	require.True(t, ok)
	require.Len(t, view.Sessions, 1)
	assert.True(t, view.Sessions[0].ExpiresAt.After(original), "aggregate carries the new deadline")

	// The stored payload must move too. If only a side TTL changed, the
	// session would still read as expired once the original deadline passed.
	mirror, err := sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, mirror.ExpiresAt.After(original))
	assert.False(t, mirror.IsExpired(original.Add(time.Minute)))
}

func TestExtendSessionSurvivesStoreFailure(t *testing.T) {
	commands, accounts, sessions := newAuthFixture(t)
	seedAccountWithSession(t, accounts, sessions, time.Now().Add(time.Hour))
	sessions.extendErr = errors.New("redis down")

	_, err := commands.Execute(context.Background(), usecase.NewCommand(authUC.CommandExtendSession, authUC.SessionInput{
		AuthID:    "auth-1",
		SessionID: "s1",
		TTL:       time.Hour,
	}))
	require.NoError(t, err, "store mirror failures are logged, not fatal")
	assert.Equal(t, []string{"s1"}, sessions.extended)
}

func TestExtendSessionUnknownSession(t *testing.T) {
	commands, accounts, sessions := newAuthFixture(t)
	seedAccountWithSession(t, accounts, sessions, time.Now().Add(time.Hour))

	_, err := commands.Execute(context.Background(), usecase.NewCommand(authUC.CommandExtendSession, authUC.SessionInput{
		AuthID:    "auth-1",
		SessionID: "missing",
		TTL:       time.Hour,
	}))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
	assert.Empty(t, sessions.extended, "store untouched when the aggregate rejects")
}
