package domain

// Status models the uniform lifecycle shared by status-bearing aggregates.
// ACTIVE and SUSPENDED are freely reversible, DISABLED is reachable from any
// state, PENDING exists only as the tenant's initial state and EXPIRED only
// for auth accounts.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDisabled  Status = "disabled"
	StatusExpired   Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended, StatusDisabled, StatusExpired:
		return true
	}
	return false
}

// CanTransition reports whether the uniform state machine allows from -> to.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	switch to {
	case StatusDisabled:
		return true
	case StatusActive:
		return from == StatusPending || from == StatusSuspended || from == StatusDisabled || from == StatusExpired
	case StatusSuspended:
		return from == StatusActive
	case StatusExpired:
		return from == StatusActive || from == StatusSuspended
	case StatusPending:
		// PENDING is entered only at creation.
		return false
	}
	return false
}

// ReactivationHook runs extra policy checks when an aggregate leaves DISABLED.
// The default is a no-op; the composition root may install a real policy.
type ReactivationHook func(aggregateID string) error
