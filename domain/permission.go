package domain

import "time"

// Permission represents a grantable authorization identified by a
// hierarchical permission code.
type Permission struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	Code        PermissionCode `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      Status         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Permission settings and statistics keys.
const (
	LimitMaxRoles = "maxRoles"

	StatRoleCount = "roleCount"
)

// Permission domain event types.
const (
	EventPermissionCreated         = "permission.created"
	EventPermissionActivated       = "permission.activated"
	EventPermissionSuspended       = "permission.suspended"
	EventPermissionDisabled        = "permission.disabled"
	EventPermissionRoleAssigned    = "permission.role_assigned"
	EventPermissionRoleRemoved     = "permission.role_removed"
	EventPermissionSettingsUpdated = "permission.settings_updated"
	EventPermissionLimitWarning    = "permission.limit_warning"
)

// PermissionAggregate guards a permission and the set of roles it is
// assigned to.
type PermissionAggregate struct {
	state      *State[Permission]
	roles      map[string]struct{}
	reactivate ReactivationHook
}

// NewPermissionAggregate creates an active permission and emits the creation
// event.
func NewPermissionAggregate(permission Permission, settings Settings) *PermissionAggregate {
	now := time.Now()
	permission.Status = StatusActive
	if permission.CreatedAt.IsZero() {
		permission.CreatedAt = now
	}
	permission.UpdatedAt = now

	a := &PermissionAggregate{
		state: NewState(permission, settings),
		roles: make(map[string]struct{}),
	}
	a.state.record(EventPermissionCreated, permission.ID, map[string]interface{}{
		"code":      permission.Code.String(),
		"tenant_id": permission.TenantID,
	})
	return a
}

// RestorePermissionAggregate rebuilds an aggregate from persisted fields.
func RestorePermissionAggregate(permission Permission, settings Settings, stats map[string]int, roles []string, lastUpdated time.Time) *PermissionAggregate {
	a := &PermissionAggregate{
		state: RestoreState(permission, settings, stats, lastUpdated),
		roles: make(map[string]struct{}, len(roles)),
	}
	for _, id := range roles {
		a.roles[id] = struct{}{}
	}
	return a
}

// SetReactivationHook installs the policy run when leaving DISABLED.
func (a *PermissionAggregate) SetReactivationHook(hook ReactivationHook) {
	a.reactivate = hook
}

func (a *PermissionAggregate) Permission() Permission { return a.state.Entity() }
func (a *PermissionAggregate) ID() string             { return a.state.entity.ID }
func (a *PermissionAggregate) Code() PermissionCode   { return a.state.entity.Code }
func (a *PermissionAggregate) Status() Status         { return a.state.entity.Status }
func (a *PermissionAggregate) Settings() Settings     { return a.state.Settings() }
func (a *PermissionAggregate) Stats() map[string]int  { return a.state.Stats() }
func (a *PermissionAggregate) DomainEvents() []Event  { return a.state.DomainEvents() }
func (a *PermissionAggregate) ClearDomainEvents()     { a.state.ClearDomainEvents() }
func (a *PermissionAggregate) LastUpdated() time.Time { return a.state.LastUpdated() }

// Roles returns the IDs of roles holding this permission in stable order.
func (a *PermissionAggregate) Roles() []string {
	return sortedKeys(a.roles)
}

// AssignToRole links the permission to a role, guarding capacity and
// duplicates. Assignment is rejected while the permission is not active.
func (a *PermissionAggregate) AssignToRole(roleID string) error {
	if roleID == "" {
		return ErrInvalidPayload
	}
	if a.state.entity.Status != StatusActive {
		return InvariantError("permission %s is %s and cannot be assigned", a.ID(), a.state.entity.Status)
	}
	_, exists := a.roles[roleID]
	if err := CheckNotMember("role", roleID, exists); err != nil {
		return err
	}
	if err := CheckCapacity(LimitMaxRoles, len(a.roles), a.state.settings.Limit(LimitMaxRoles)); err != nil {
		return err
	}
	a.roles[roleID] = struct{}{}
	a.state.setStat(StatRoleCount, len(a.roles))
	a.state.markActivity()
	a.state.record(EventPermissionRoleAssigned, a.ID(), map[string]interface{}{"role_id": roleID})
	a.state.warnIfNearLimit(EventPermissionLimitWarning, a.ID(), StatRoleCount, LimitMaxRoles)
	return nil
}

// RemoveFromRole unlinks the permission from a role.
func (a *PermissionAggregate) RemoveFromRole(roleID string) error {
	_, exists := a.roles[roleID]
	if err := CheckMember("role", roleID, exists); err != nil {
		return err
	}
	delete(a.roles, roleID)
	a.state.setStat(StatRoleCount, len(a.roles))
	a.state.record(EventPermissionRoleRemoved, a.ID(), map[string]interface{}{"role_id": roleID})
	return nil
}

// Activate moves the permission into ACTIVE, running the reactivation hook
// when it leaves DISABLED.
func (a *PermissionAggregate) Activate() error {
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
	a.state.record(EventPermissionActivated, a.ID(), map[string]interface{}{"from": string(from)})
	return nil
}

// Suspend moves an active permission into SUSPENDED.
func (a *PermissionAggregate) Suspend(reason string) error {
	if err := CheckTransition(a.state.entity.Status, StatusSuspended); err != nil {
		return err
	}
	a.setStatus(StatusSuspended)
	a.state.record(EventPermissionSuspended, a.ID(), map[string]interface{}{"reason": reason})
	return nil
}

// Disable moves the permission into DISABLED and revokes every role
// assignment derived from it.
func (a *PermissionAggregate) Disable(reason string) error {
	if err := CheckTransition(a.state.entity.Status, StatusDisabled); err != nil {
		return err
	}
	revoked := len(a.roles)
	a.roles = make(map[string]struct{})
	a.state.setStat(StatRoleCount, 0)
	a.setStatus(StatusDisabled)
	a.state.record(EventPermissionDisabled, a.ID(), map[string]interface{}{
		"reason":        reason,
		"revoked_roles": revoked,
	})
	return nil
}

// UpdateSettings replaces the settings wholesale, refusing a maxRoles below
// the current assignment count.
func (a *PermissionAggregate) UpdateSettings(next Settings) error {
	if err := CheckLimitFloor(LimitMaxRoles, next.Limit(LimitMaxRoles), len(a.roles)); err != nil {
		return err
	}
	a.state.replaceSettings(next)
	a.state.record(EventPermissionSettingsUpdated, a.ID(), map[string]interface{}{
		"limits": next.Copy().Limits,
	})
	return nil
}

func (a *PermissionAggregate) setStatus(to Status) {
	entity := a.state.entity
	entity.Status = to
	entity.UpdatedAt = time.Now()
	a.state.setEntity(entity)
}
