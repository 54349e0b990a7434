package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idforge/backend/domain"
)

func newTestTenant(limits map[string]int) *domain.TenantAggregate {
	return domain.NewTenantAggregate(domain.Tenant{
		ID:   "ten-1",
		Name: "Acme",
		Slug: "acme",
	}, domain.Settings{Limits: limits})
}

func eventTypes(events []domain.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestNewTenantAggregate_StartsPendingWithCreationEvent(t *testing.T) {
	agg := newTestTenant(nil)

	assert.Equal(t, domain.StatusPending, agg.Status())
	events := agg.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTenantCreated, events[0].Type)
	assert.Equal(t, "ten-1", events[0].AggregateID)
}

func TestTenantAggregate_Lifecycle(t *testing.T) {
	agg := newTestTenant(nil)

	require.NoError(t, agg.Activate())
	assert.Equal(t, domain.StatusActive, agg.Status())

	require.NoError(t, agg.Suspend("billing"))
	assert.Equal(t, domain.StatusSuspended, agg.Status())

	require.NoError(t, agg.Activate())
	require.NoError(t, agg.Disable("abuse"))
	assert.Equal(t, domain.StatusDisabled, agg.Status())

	// Suspending a disabled tenant is forbidden.
	err := agg.Suspend("again")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
}

func TestTenantAggregate_ReactivationHookRunsOnlyFromDisabled(t *testing.T) {
	agg := newTestTenant(nil)
	var calls []string
	agg.SetReactivationHook(func(id string) error {
		calls = append(calls, id)
		return nil
	})

	require.NoError(t, agg.Activate())
	assert.Empty(t, calls, "hook must not run on pending -> active")

	require.NoError(t, agg.Disable("cleanup"))
	require.NoError(t, agg.Activate())
	assert.Equal(t, []string{"ten-1"}, calls)
}

func TestTenantAggregate_ReactivationHookRejection(t *testing.T) {
	agg := newTestTenant(nil)
	require.NoError(t, agg.Activate())
	require.NoError(t, agg.Disable("fraud"))

	agg.SetReactivationHook(func(string) error {
		return errors.New("manual review required")
	})

	err := agg.Activate()
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assert.Equal(t, domain.StatusDisabled, agg.Status(), "failed hook must leave status untouched")
}

func TestTenantAggregate_AddUser(t *testing.T) {
	agg := newTestTenant(map[string]int{domain.LimitMaxUsers: 2})
	require.NoError(t, agg.Activate())
	agg.ClearDomainEvents()

	require.NoError(t, agg.AddUser("u1"))
	require.NoError(t, agg.AddUser("u2"))
	assert.Equal(t, []string{"u1", "u2"}, agg.Users())
	assert.Equal(t, 2, agg.Stats()[domain.StatUserCount])

	err := agg.AddUser("u1")
	require.Error(t, err, "duplicate user")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))

	err = agg.AddUser("u3")
	require.Error(t, err, "capacity exhausted")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
	assert.Equal(t, []string{"u1", "u2"}, agg.Users(), "failed add must not mutate")
}

func TestTenantAggregate_LimitWarningAtThreshold(t *testing.T) {
	agg := newTestTenant(map[string]int{domain.LimitMaxUsers: 10})
	require.NoError(t, agg.Activate())
	agg.ClearDomainEvents()

	for i := 0; i < 8; i++ {
		require.NoError(t, agg.AddUser(string(rune('a'+i))))
	}
	assert.NotContains(t, eventTypes(agg.DomainEvents()), domain.EventTenantLimitWarning,
		"no warning below the threshold")

	require.NoError(t, agg.AddUser("ninth"))
	assert.Contains(t, eventTypes(agg.DomainEvents()), domain.EventTenantLimitWarning,
		"9 of 10 crosses the warning threshold")
}

func TestTenantAggregate_UnlimitedWhenNoLimitConfigured(t *testing.T) {
	agg := newTestTenant(nil)
	require.NoError(t, agg.Activate())
	agg.ClearDomainEvents()

	for i := 0; i < 150; i++ {
		require.NoError(t, agg.AddOrganization(string(rune('a'+i%26))+string(rune('0'+i/26))))
	}
	assert.NotContains(t, eventTypes(agg.DomainEvents()), domain.EventTenantLimitWarning)
}

func TestTenantAggregate_RemoveUser(t *testing.T) {
	agg := newTestTenant(nil)
	require.NoError(t, agg.Activate())
	require.NoError(t, agg.AddUser("u1"))

	require.NoError(t, agg.RemoveUser("u1"))
	assert.Empty(t, agg.Users())
	assert.Equal(t, 0, agg.Stats()[domain.StatUserCount])

	err := agg.RemoveUser("ghost")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
}

func TestTenantAggregate_UpdateSettingsFloor(t *testing.T) {
	agg := newTestTenant(map[string]int{domain.LimitMaxUsers: 5})
	require.NoError(t, agg.Activate())
	require.NoError(t, agg.AddUser("u1"))
	require.NoError(t, agg.AddUser("u2"))
	require.NoError(t, agg.AddUser("u3"))

	err := agg.UpdateSettings(domain.Settings{Limits: map[string]int{domain.LimitMaxUsers: 2}})
	require.Error(t, err, "limit below current usage")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
	assert.Equal(t, 5, agg.Settings().Limit(domain.LimitMaxUsers))

	require.NoError(t, agg.UpdateSettings(domain.Settings{Limits: map[string]int{domain.LimitMaxUsers: 3}}))
	assert.Equal(t, 3, agg.Settings().Limit(domain.LimitMaxUsers))
}

func TestTenantAggregate_UpdateStatisticsRejectsNegative(t *testing.T) {
	agg := newTestTenant(nil)
	require.NoError(t, agg.Activate())

	err := agg.UpdateStatistics(map[string]int{"projectCount": -1})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
	assert.Zero(t, agg.Stats()["projectCount"])

	require.NoError(t, agg.UpdateStatistics(map[string]int{"projectCount": 7}))
	assert.Equal(t, 7, agg.Stats()["projectCount"])
}

func TestTenantAggregate_AccessorsReturnCopies(t *testing.T) {
	agg := newTestTenant(map[string]int{domain.LimitMaxUsers: 5})

	settings := agg.Settings()
	settings.Limits[domain.LimitMaxUsers] = 999
	assert.Equal(t, 5, agg.Settings().Limit(domain.LimitMaxUsers))

	stats := agg.Stats()
	stats[domain.StatUserCount] = 999
	assert.Zero(t, agg.Stats()[domain.StatUserCount])

	events := agg.DomainEvents()
	require.NotEmpty(t, events)
	events[0].Payload["name"] = "tampered"
	assert.Equal(t, "Acme", agg.DomainEvents()[0].Payload["name"])
}

func TestTenantAggregate_ClearDomainEvents(t *testing.T) {
	agg := newTestTenant(nil)
	require.NotEmpty(t, agg.DomainEvents())

	agg.ClearDomainEvents()
	assert.Empty(t, agg.DomainEvents())

	require.NoError(t, agg.Activate())
	assert.Len(t, agg.DomainEvents(), 1)
}

func TestRestoreTenantAggregate_NoEvents(t *testing.T) {
	restored := domain.RestoreTenantAggregate(
		domain.Tenant{ID: "ten-2", Name: "Beta", Slug: "beta", Status: domain.StatusActive},
		domain.Settings{Limits: map[string]int{domain.LimitMaxUsers: 10}},
		map[string]int{domain.StatUserCount: 2},
		[]string{"u1", "u2"},
		nil,
		time.Now().Add(-time.Hour),
	)

	assert.Empty(t, restored.DomainEvents())
	assert.Equal(t, domain.StatusActive, restored.Status())
	assert.Equal(t, []string{"u1", "u2"}, restored.Users())
	assert.Equal(t, 2, restored.Stats()[domain.StatUserCount])
}
