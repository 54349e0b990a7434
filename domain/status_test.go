package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/idforge/backend/domain"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    domain.Status
		to      domain.Status
		allowed bool
	}{
		{domain.StatusPending, domain.StatusActive, true},
		{domain.StatusActive, domain.StatusSuspended, true},
		{domain.StatusSuspended, domain.StatusActive, true},
		{domain.StatusActive, domain.StatusDisabled, true},
		{domain.StatusPending, domain.StatusDisabled, true},
		{domain.StatusSuspended, domain.StatusDisabled, true},
		{domain.StatusDisabled, domain.StatusActive, true},
		{domain.StatusActive, domain.StatusExpired, true},
		{domain.StatusSuspended, domain.StatusExpired, true},
		{domain.StatusExpired, domain.StatusActive, true},

		{domain.StatusActive, domain.StatusActive, false},
		{domain.StatusPending, domain.StatusSuspended, false},
		{domain.StatusDisabled, domain.StatusSuspended, false},
		{domain.StatusActive, domain.StatusPending, false},
		{domain.StatusDisabled, domain.StatusPending, false},
		{domain.StatusPending, domain.StatusExpired, false},
		{domain.StatusDisabled, domain.StatusExpired, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, domain.CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, domain.StatusActive.Valid())
	assert.True(t, domain.StatusPending.Valid())
	assert.False(t, domain.Status("archived").Valid())
	assert.False(t, domain.Status("").Valid())
}
