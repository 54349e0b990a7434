package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/idforge/backend/internal/services/lifecycle"
)

func TestManager_ShutdownReverseOrder(t *testing.T) {
	m := lifecycle.New(time.Second, zap.NewNop())

	var order []string
	m.Register("database", func(context.Context) error {
		order = append(order, "database")
		return nil
	})
	m.Register("http", func(context.Context) error {
		order = append(order, "http")
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "database"}, order, "dependents stop first")
}

func TestManager_ShutdownJoinsErrors(t *testing.T) {
	m := lifecycle.New(time.Second, zap.NewNop())

	boom := errors.New("socket already closed")
	var databaseStopped bool
	m.Register("database", func(context.Context) error {
		databaseStopped = true
		return nil
	})
	m.Register("http", func(context.Context) error { return boom })

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, databaseStopped, "one failure does not stop the sequence")
}

func TestManager_ShutdownRunsOnce(t *testing.T) {
	m := lifecycle.New(time.Second, zap.NewNop())

	calls := 0
	boom := errors.New("flush failed")
	m.Register("outbox", func(context.Context) error {
		calls++
		return boom
	})

	first := m.Shutdown(context.Background())
	second := m.Shutdown(context.Background())

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, first, boom)
	assert.Equal(t, first, second, "repeat calls return the first result")
}

func TestManager_NilHookIgnored(t *testing.T) {
	m := lifecycle.New(0, zap.NewNop())
	m.Register("noop", nil)
	assert.NoError(t, m.Shutdown(context.Background()))
}
