package domain

// Pure precondition checks shared by every aggregate. Each returns an
// INVARIANT-coded error and never mutates anything; callers run them before
// touching state so a failure leaves the aggregate exactly as it was.

// CheckCapacity rejects adding another member once count has reached limit.
// A limit of zero or below means unlimited.
func CheckCapacity(name string, count, limit int) error {
	if limit > 0 && count >= limit {
		return InvariantError("%s limit reached (%d/%d)", name, count, limit)
	}
	return nil
}

// CheckCounter rejects a counter update that would go negative.
func CheckCounter(name string, value int) error {
	if value < 0 {
		return InvariantError("%s cannot be negative (got %d)", name, value)
	}
	return nil
}

// CheckLimitFloor rejects lowering a configured limit below the current usage.
func CheckLimitFloor(name string, next, current int) error {
	if next > 0 && next < current {
		return InvariantError("%s cannot be set to %d: current usage is %d", name, next, current)
	}
	return nil
}

// CheckNotMember rejects a duplicate membership.
func CheckNotMember(kind, id string, exists bool) error {
	if exists {
		return InvariantError("%s %s is already a member", kind, id)
	}
	return nil
}

// CheckMember rejects removing a membership that does not exist.
func CheckMember(kind, id string, exists bool) error {
	if !exists {
		return InvariantError("%s %s is not a member", kind, id)
	}
	return nil
}

// CheckTransition rejects a status change the uniform state machine forbids.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return InvariantError("status transition %s -> %s is not allowed", from, to)
	}
	return nil
}
