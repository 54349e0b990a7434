package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/internal/infrastructure/outbox"
	"github.com/idforge/backend/internal/services"
	"github.com/idforge/backend/usecase"
)

type stubHealth struct{ online bool }

func (s stubHealth) IsOnline() bool { return s.online }

func newRelayFixture(t *testing.T, cfg services.RelayConfig) (*services.EventRelay, *outbox.Store, *usecase.EventBus) {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := usecase.NewEventBus(zap.NewNop())
	relay := services.NewEventRelay(store, bus, nil, zap.NewNop(), cfg)
	return relay, store, bus
}

func TestEventRelayConfigDefaults(t *testing.T) {
	relay, _, _ := newRelayFixture(t, services.RelayConfig{})

	cfg := relay.Config()
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Retention)
}

func TestEventRelaySubSecondIntervalRoundsUp(t *testing.T) {
	// The drain schedule only has whole-second resolution, so anything finer
	// must land on one second rather than a schedule that never fires.
	relay, _, _ := newRelayFixture(t, services.RelayConfig{Interval: 100 * time.Millisecond})
	assert.Equal(t, time.Second, relay.Config().Interval)
}

func TestEventRelayDrainDelivers(t *testing.T) {
	relay, store, bus := newRelayFixture(t, services.RelayConfig{})

	var delivered []string
	bus.Subscribe("tenant.created", func(_ context.Context, event domain.Event) error {
		delivered = append(delivered, event.AggregateID)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, store.Enqueue(ctx, domain.NewEvent("tenant.created", "ten-1", nil)))
	require.NoError(t, store.Enqueue(ctx, domain.NewEvent("tenant.created", "ten-2", nil)))

	require.NoError(t, relay.Drain(ctx))

	assert.Equal(t, []string{"ten-1", "ten-2"}, delivered)
	assert.Zero(t, relay.Size(), "delivered records leave the buffer")
}

func TestEventRelayDrainRequeuesThenDrops(t *testing.T) {
	relay, store, bus := newRelayFixture(t, services.RelayConfig{MaxRetries: 2})

	attempts := 0
	bus.Subscribe("auth.disabled", func(context.Context, domain.Event) error {
		attempts++
		return errors.New("projection offline")
	})

	ctx := context.Background()
	require.NoError(t, store.Enqueue(ctx, domain.NewEvent("auth.disabled", "auth-1", nil)))

	require.NoError(t, relay.Drain(ctx))
	assert.Equal(t, 1, relay.Size(), "first failure requeues")

	records, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Retries)

	require.NoError(t, relay.Drain(ctx))
	assert.Zero(t, relay.Size(), "retry ceiling drops the record")
	assert.Equal(t, 2, attempts)
}

func TestEventRelayDrainSkipsWhenOffline(t *testing.T) {
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := usecase.NewEventBus(zap.NewNop())
	var delivered int
	bus.Subscribe("tenant.created", func(context.Context, domain.Event) error {
		delivered++
		return nil
	})

	relay := services.NewEventRelay(store, bus, stubHealth{online: false}, zap.NewNop(), services.RelayConfig{})

	ctx := context.Background()
	require.NoError(t, store.Enqueue(ctx, domain.NewEvent("tenant.created", "ten-1", nil)))
	require.NoError(t, relay.Drain(ctx))

	assert.Zero(t, delivered)
	assert.Equal(t, 1, relay.Size(), "buffer untouched while offline")
}
