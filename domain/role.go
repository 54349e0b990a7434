package domain

import (
	"sort"
	"time"
)

// Role groups permission codes granted to its members within a tenant.
type Role struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role settings and statistics keys.
const (
	LimitMaxPermissions = "maxPermissions"

	StatPermissionCount = "permissionCount"
)

// Role domain event types.
const (
	EventRoleCreated           = "role.created"
	EventRolePermissionGranted = "role.permission_granted"
	EventRolePermissionRevoked = "role.permission_revoked"
	EventRoleSettingsUpdated   = "role.settings_updated"
	EventRoleLimitWarning      = "role.limit_warning"
)

// RoleAggregate guards a role and the permission codes it grants.
type RoleAggregate struct {
	state *State[Role]
	perms map[string]PermissionCode
}

// NewRoleAggregate creates a role and emits the creation event.
func NewRoleAggregate(role Role, settings Settings) *RoleAggregate {
	now := time.Now()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now

	a := &RoleAggregate{
		state: NewState(role, settings),
		perms: make(map[string]PermissionCode),
	}
	a.state.record(EventRoleCreated, role.ID, map[string]interface{}{
		"name":      role.Name,
		"tenant_id": role.TenantID,
	})
	return a
}

// RestoreRoleAggregate rebuilds an aggregate from persisted fields. Codes
// that fail to parse are dropped rather than resurrected as invalid values.
func RestoreRoleAggregate(role Role, settings Settings, stats map[string]int, codes []string, lastUpdated time.Time) *RoleAggregate {
	a := &RoleAggregate{
		state: RestoreState(role, settings, stats, lastUpdated),
		perms: make(map[string]PermissionCode, len(codes)),
	}
	for _, raw := range codes {
		if code, err := ParsePermissionCode(raw); err == nil {
			a.perms[code.String()] = code
		}
	}
	return a
}

func (a *RoleAggregate) Role() Role             { return a.state.Entity() }
func (a *RoleAggregate) ID() string             { return a.state.entity.ID }
func (a *RoleAggregate) Settings() Settings     { return a.state.Settings() }
func (a *RoleAggregate) Stats() map[string]int  { return a.state.Stats() }
func (a *RoleAggregate) DomainEvents() []Event  { return a.state.DomainEvents() }
func (a *RoleAggregate) ClearDomainEvents()     { a.state.ClearDomainEvents() }
func (a *RoleAggregate) LastUpdated() time.Time { return a.state.LastUpdated() }

// PermissionCodes returns the granted codes in stable order.
func (a *RoleAggregate) PermissionCodes() []PermissionCode {
	keys := make([]string, 0, len(a.perms))
	for k := range a.perms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]PermissionCode, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.perms[k])
	}
	return out
}

// Grants reports whether the role's codes cover the required one.
func (a *RoleAggregate) Grants(required PermissionCode) bool {
	for _, code := range a.perms {
		if code.Covers(required) {
			return true
		}
	}
	return false
}

// GrantPermission adds a permission code, guarding capacity and duplicates.
func (a *RoleAggregate) GrantPermission(code PermissionCode) error {
	if code.IsZero() {
		return ErrInvalidPayload
	}
	_, exists := a.perms[code.String()]
	if err := CheckNotMember("permission", code.String(), exists); err != nil {
		return err
	}
	if err := CheckCapacity(LimitMaxPermissions, len(a.perms), a.state.settings.Limit(LimitMaxPermissions)); err != nil {
		return err
	}
	a.perms[code.String()] = code
	a.state.setStat(StatPermissionCount, len(a.perms))
	a.state.markActivity()
	a.state.record(EventRolePermissionGranted, a.ID(), map[string]interface{}{"code": code.String()})
	a.state.warnIfNearLimit(EventRoleLimitWarning, a.ID(), StatPermissionCount, LimitMaxPermissions)
	return nil
}

// RevokePermission removes a granted code.
func (a *RoleAggregate) RevokePermission(code PermissionCode) error {
	_, exists := a.perms[code.String()]
	if err := CheckMember("permission", code.String(), exists); err != nil {
		return err
	}
	delete(a.perms, code.String())
	a.state.setStat(StatPermissionCount, len(a.perms))
	a.state.record(EventRolePermissionRevoked, a.ID(), map[string]interface{}{"code": code.String()})
	return nil
}

// RevokeAll drops every granted code, returning how many were removed.
// Used when the owning tenant is disabled.
func (a *RoleAggregate) RevokeAll(reason string) int {
	revoked := len(a.perms)
	if revoked == 0 {
		return 0
	}
	a.perms = make(map[string]PermissionCode)
	a.state.setStat(StatPermissionCount, 0)
	a.state.record(EventRolePermissionRevoked, a.ID(), map[string]interface{}{
		"code":   "*",
		"count":  revoked,
		"reason": reason,
	})
	return revoked
}

// UpdateSettings replaces the settings wholesale, refusing a maxPermissions
// below the current grant count.
func (a *RoleAggregate) UpdateSettings(next Settings) error {
	if err := CheckLimitFloor(LimitMaxPermissions, next.Limit(LimitMaxPermissions), len(a.perms)); err != nil {
		return err
	}
	a.state.replaceSettings(next)
	a.state.record(EventRoleSettingsUpdated, a.ID(), map[string]interface{}{
		"limits": next.Copy().Limits,
	})
	return nil
}
