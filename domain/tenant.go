package domain

import (
	"sort"
	"time"
)

// Tenant represents an isolated customer account in the platform.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      string    `json:"plan,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == StatusActive
}

// Tenant settings and statistics keys.
const (
	LimitMaxUsers         = "maxUsers"
	LimitMaxOrganizations = "maxOrganizations"

	StatUserCount         = "userCount"
	StatOrganizationCount = "organizationCount"
)

// Tenant domain event types.
const (
	EventTenantCreated         = "tenant.created"
	EventTenantActivated       = "tenant.activated"
	EventTenantSuspended       = "tenant.suspended"
	EventTenantDisabled        = "tenant.disabled"
	EventTenantUserAdded       = "tenant.user_added"
	EventTenantUserRemoved     = "tenant.user_removed"
	EventTenantOrgAdded        = "tenant.organization_added"
	EventTenantOrgRemoved      = "tenant.organization_removed"
	EventTenantSettingsUpdated = "tenant.settings_updated"
	EventTenantStatsUpdated    = "tenant.statistics_updated"
	EventTenantLimitWarning    = "tenant.limit_warning"
)

// TenantAggregate is the consistency boundary around one tenant: its entity,
// settings, usage counters, member sets and pending domain events. Every
// mutation validates its preconditions first, so a returned error means
// nothing changed.
type TenantAggregate struct {
	state      *State[Tenant]
	users      map[string]struct{}
	orgs       map[string]struct{}
	reactivate ReactivationHook
}

// NewTenantAggregate creates a tenant in the PENDING state and emits the
// creation event.
func NewTenantAggregate(tenant Tenant, settings Settings) *TenantAggregate {
	now := time.Now()
	tenant.Status = StatusPending
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	a := &TenantAggregate{
		state: NewState(tenant, settings),
		users: make(map[string]struct{}),
		orgs:  make(map[string]struct{}),
	}
	a.state.record(EventTenantCreated, tenant.ID, map[string]interface{}{
		"name": tenant.Name,
		"slug": tenant.Slug,
	})
	return a
}

// RestoreTenantAggregate rebuilds an aggregate from persisted fields without
// emitting events.
func RestoreTenantAggregate(tenant Tenant, settings Settings, stats map[string]int, users, orgs []string, lastUpdated time.Time) *TenantAggregate {
	a := &TenantAggregate{
		state: RestoreState(tenant, settings, stats, lastUpdated),
		users: make(map[string]struct{}, len(users)),
		orgs:  make(map[string]struct{}, len(orgs)),
	}
	for _, id := range users {
		a.users[id] = struct{}{}
	}
	for _, id := range orgs {
		a.orgs[id] = struct{}{}
	}
	return a
}

// SetReactivationHook installs the policy run when the tenant leaves DISABLED.
func (a *TenantAggregate) SetReactivationHook(hook ReactivationHook) {
	a.reactivate = hook
}

func (a *TenantAggregate) Tenant() Tenant               { return a.state.Entity() }
func (a *TenantAggregate) ID() string                   { return a.state.entity.ID }
func (a *TenantAggregate) Status() Status               { return a.state.entity.Status }
func (a *TenantAggregate) Settings() Settings           { return a.state.Settings() }
func (a *TenantAggregate) Stats() map[string]int        { return a.state.Stats() }
func (a *TenantAggregate) DomainEvents() []Event        { return a.state.DomainEvents() }
func (a *TenantAggregate) ClearDomainEvents()           { a.state.ClearDomainEvents() }
func (a *TenantAggregate) LastUpdated() time.Time       { return a.state.LastUpdated() }
func (a *TenantAggregate) LastActivityAt() time.Time    { return a.state.LastActivityAt() }

// Users returns the member user IDs in stable order.
func (a *TenantAggregate) Users() []string {
	return sortedKeys(a.users)
}

// Organizations returns the member organization IDs in stable order.
func (a *TenantAggregate) Organizations() []string {
	return sortedKeys(a.orgs)
}

// Activate moves the tenant into ACTIVE. Leaving DISABLED additionally runs
// the reactivation hook.
func (a *TenantAggregate) Activate() error {
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
	a.state.record(EventTenantActivated, a.ID(), map[string]interface{}{"from": string(from)})
	return nil
}

// Suspend moves an active tenant into SUSPENDED.
func (a *TenantAggregate) Suspend(reason string) error {
	from := a.state.entity.Status
	if err := CheckTransition(from, StatusSuspended); err != nil {
		return err
	}
	a.setStatus(StatusSuspended)
	a.state.record(EventTenantSuspended, a.ID(), map[string]interface{}{"reason": reason})
	return nil
}

// Disable moves the tenant into DISABLED from any state. Derived resources
// (member sessions, tokens) are revoked by subscribers reacting to the event.
func (a *TenantAggregate) Disable(reason string) error {
	from := a.state.entity.Status
	if err := CheckTransition(from, StatusDisabled); err != nil {
		return err
	}
	a.setStatus(StatusDisabled)
	a.state.record(EventTenantDisabled, a.ID(), map[string]interface{}{
		"reason":     reason,
		"user_count": len(a.users),
	})
	return nil
}

// AddUser registers a member user, guarding capacity and duplicates.
func (a *TenantAggregate) AddUser(userID string) error {
	if userID == "" {
		return ErrInvalidPayload
	}
	_, exists := a.users[userID]
	if err := CheckNotMember("user", userID, exists); err != nil {
		return err
	}
	if err := CheckCapacity(LimitMaxUsers, len(a.users), a.state.settings.Limit(LimitMaxUsers)); err != nil {
		return err
	}
	a.users[userID] = struct{}{}
	a.state.setStat(StatUserCount, len(a.users))
	a.state.markActivity()
	a.state.record(EventTenantUserAdded, a.ID(), map[string]interface{}{"user_id": userID})
	a.state.warnIfNearLimit(EventTenantLimitWarning, a.ID(), StatUserCount, LimitMaxUsers)
	return nil
}

// RemoveUser drops a member user.
func (a *TenantAggregate) RemoveUser(userID string) error {
	_, exists := a.users[userID]
	if err := CheckMember("user", userID, exists); err != nil {
		return err
	}
	delete(a.users, userID)
	a.state.setStat(StatUserCount, len(a.users))
	a.state.record(EventTenantUserRemoved, a.ID(), map[string]interface{}{"user_id": userID})
	return nil
}

// AddOrganization registers a member organization.
func (a *TenantAggregate) AddOrganization(orgID string) error {
	if orgID == "" {
		return ErrInvalidPayload
	}
	_, exists := a.orgs[orgID]
	if err := CheckNotMember("organization", orgID, exists); err != nil {
		return err
	}
	if err := CheckCapacity(LimitMaxOrganizations, len(a.orgs), a.state.settings.Limit(LimitMaxOrganizations)); err != nil {
		return err
	}
	a.orgs[orgID] = struct{}{}
	a.state.setStat(StatOrganizationCount, len(a.orgs))
	a.state.record(EventTenantOrgAdded, a.ID(), map[string]interface{}{"organization_id": orgID})
	a.state.warnIfNearLimit(EventTenantLimitWarning, a.ID(), StatOrganizationCount, LimitMaxOrganizations)
	return nil
}

// RemoveOrganization drops a member organization.
func (a *TenantAggregate) RemoveOrganization(orgID string) error {
	_, exists := a.orgs[orgID]
	if err := CheckMember("organization", orgID, exists); err != nil {
		return err
	}
	delete(a.orgs, orgID)
	a.state.setStat(StatOrganizationCount, len(a.orgs))
	a.state.record(EventTenantOrgRemoved, a.ID(), map[string]interface{}{"organization_id": orgID})
	return nil
}

// UpdateSettings replaces the settings wholesale after checking no limit is
// set below its current usage.
func (a *TenantAggregate) UpdateSettings(next Settings) error {
	if err := CheckLimitFloor(LimitMaxUsers, next.Limit(LimitMaxUsers), len(a.users)); err != nil {
		return err
	}
	if err := CheckLimitFloor(LimitMaxOrganizations, next.Limit(LimitMaxOrganizations), len(a.orgs)); err != nil {
		return err
	}
	a.state.replaceSettings(next)
	a.state.record(EventTenantSettingsUpdated, a.ID(), map[string]interface{}{
		"limits": next.Copy().Limits,
	})
	return nil
}

// UpdateStatistics replaces the provided counters after checking none of them
// would go negative.
func (a *TenantAggregate) UpdateStatistics(stats map[string]int) error {
	for name, value := range stats {
		if err := CheckCounter(name, value); err != nil {
			return err
		}
	}
	for name, value := range stats {
		a.state.setStat(name, value)
	}
	a.state.markActivity()
	a.state.record(EventTenantStatsUpdated, a.ID(), map[string]interface{}{"counters": len(stats)})
	return nil
}

func (a *TenantAggregate) setStatus(to Status) {
	entity := a.state.entity
	entity.Status = to
	entity.UpdatedAt = time.Now()
	a.state.setEntity(entity)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
