package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idforge/backend/domain"
)

func newTestRole(limits map[string]int) *domain.RoleAggregate {
	agg := domain.NewRoleAggregate(domain.Role{
		ID:       "role-1",
		TenantID: "ten-1",
		Name:     "support",
	}, domain.Settings{Limits: limits})
	agg.ClearDomainEvents()
	return agg
}

func TestRoleAggregate_GrantAndRevoke(t *testing.T) {
	agg := newTestRole(map[string]int{domain.LimitMaxPermissions: 2})

	require.NoError(t, agg.GrantPermission(domain.MustPermissionCode("orders:read")))
	require.NoError(t, agg.GrantPermission(domain.MustPermissionCode("invoices:read")))
	assert.Equal(t, 2, agg.Stats()[domain.StatPermissionCount])

	err := agg.GrantPermission(domain.MustPermissionCode("orders:read"))
	require.Error(t, err, "duplicate grant")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))

	err = agg.GrantPermission(domain.MustPermissionCode("reports:read"))
	require.Error(t, err, "capacity reached")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))

	require.NoError(t, agg.RevokePermission(domain.MustPermissionCode("orders:read")))
	assert.Equal(t, 1, agg.Stats()[domain.StatPermissionCount])

	err = agg.RevokePermission(domain.MustPermissionCode("orders:read"))
	require.Error(t, err, "already revoked")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvariant))
}

func TestRoleAggregate_GrantZeroCode(t *testing.T) {
	agg := newTestRole(nil)
	var zero domain.PermissionCode
	assert.ErrorIs(t, agg.GrantPermission(zero), domain.ErrInvalidPayload)
}

func TestRoleAggregate_GrantsUsesHierarchy(t *testing.T) {
	agg := newTestRole(nil)
	require.NoError(t, agg.GrantPermission(domain.MustPermissionCode("orders")))

	assert.True(t, agg.Grants(domain.MustPermissionCode("orders")))
	assert.True(t, agg.Grants(domain.MustPermissionCode("orders:read")))
	assert.True(t, agg.Grants(domain.MustPermissionCode("orders:read:team")))
	assert.False(t, agg.Grants(domain.MustPermissionCode("invoices:read")))
	assert.False(t, agg.Grants(domain.MustPermissionCode("order_items")))
}

func TestRoleAggregate_RevokeAll(t *testing.T) {
	agg := newTestRole(nil)
	require.NoError(t, agg.GrantPermission(domain.MustPermissionCode("orders:read")))
	require.NoError(t, agg.GrantPermission(domain.MustPermissionCode("orders:write")))
	agg.ClearDomainEvents()

	assert.Equal(t, 2, agg.RevokeAll("tenant disabled"))
	assert.Empty(t, agg.PermissionCodes())
	assert.Zero(t, agg.Stats()[domain.StatPermissionCount])

	assert.Zero(t, agg.RevokeAll("noop"), "second call has nothing to revoke")
}

func TestRoleAggregate_PermissionCodesSorted(t *testing.T) {
	agg := newTestRole(nil)
	require.NoError(t, agg.GrantPermission(domain.MustPermissionCode("orders:read")))
	require.NoError(t, agg.GrantPermission(domain.MustPermissionCode("billing:read")))

	codes := agg.PermissionCodes()
	require.Len(t, codes, 2)
	assert.Equal(t, "billing:read", codes[0].String())
	assert.Equal(t, "orders:read", codes[1].String())
}

func TestRestoreRoleAggregate_DropsInvalidCodes(t *testing.T) {
	agg := domain.RestoreRoleAggregate(
		domain.Role{ID: "role-2", TenantID: "ten-1", Name: "legacy"},
		domain.Settings{},
		nil,
		[]string{"orders:read", "::broken::", "admin"},
		time.Now(),
	)

	codes := agg.PermissionCodes()
	require.Len(t, codes, 1)
	assert.Equal(t, "orders:read", codes[0].String())
}
