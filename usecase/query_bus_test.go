package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/usecase"
)

type widgetQuery struct {
	ID string
}

func countingHandler(calls *int) usecase.QueryHandler {
	return func(_ context.Context, q *usecase.Query) (interface{}, error) {
		*calls++
		return *calls, nil
	}
}

func TestQueryBus_CachesByNameAndPayload(t *testing.T) {
	bus := usecase.NewQueryBus(nil, time.Minute)
	var calls int
	bus.Register("widget.get", countingHandler(&calls))

	first, err := bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w1"}))
	require.NoError(t, err)
	second, err := bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w1"}))
	require.NoError(t, err)

	assert.Equal(t, first, second, "same payload served from cache")
	assert.Equal(t, 1, calls)

	_, err = bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w2"}))
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "different payload misses the cache")
	assert.Equal(t, 2, bus.CacheSize())
}

func TestQueryBus_TTLExpiry(t *testing.T) {
	bus := usecase.NewQueryBus(nil, 20*time.Millisecond)
	var calls int
	bus.Register("widget.get", countingHandler(&calls))

	_, err := bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w1"}))
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w1"}))
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "stale entry is evicted and recomputed")
}

func TestQueryBus_InvalidateCacheByName(t *testing.T) {
	bus := usecase.NewQueryBus(nil, time.Minute)
	var getCalls, listCalls int
	bus.Register("widget.get", countingHandler(&getCalls))
	bus.Register("widget.list", countingHandler(&listCalls))

	_, _ = bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w1"}))
	_, _ = bus.Execute(context.Background(), usecase.NewQuery("widget.list", nil))
	require.Equal(t, 2, bus.CacheSize())

	bus.InvalidateCache("widget.get")
	assert.Equal(t, 1, bus.CacheSize())

	_, _ = bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w1"}))
	assert.Equal(t, 2, getCalls, "invalidated entry recomputed")

	_, _ = bus.Execute(context.Background(), usecase.NewQuery("widget.list", nil))
	assert.Equal(t, 1, listCalls, "other query names untouched")
}

func TestQueryBus_ClearCache(t *testing.T) {
	bus := usecase.NewQueryBus(nil, time.Minute)
	var calls int
	bus.Register("widget.get", countingHandler(&calls))

	_, _ = bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w1"}))
	_, _ = bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w2"}))
	require.Equal(t, 2, bus.CacheSize())

	bus.ClearCache()
	assert.Zero(t, bus.CacheSize())
}

func TestQueryBus_ErrorsAreNotCached(t *testing.T) {
	bus := usecase.NewQueryBus(nil, time.Minute)
	var calls int
	bus.Register("widget.get", func(context.Context, *usecase.Query) (interface{}, error) {
		calls++
		return nil, domain.ErrTenantNotFound
	})

	for i := 0; i < 2; i++ {
		_, err := bus.Execute(context.Background(), usecase.NewQuery("widget.get", widgetQuery{ID: "w1"}))
		assert.ErrorIs(t, err, domain.ErrTenantNotFound)
	}
	assert.Equal(t, 2, calls)
	assert.Zero(t, bus.CacheSize())
}

func TestQueryBus_NotRegistered(t *testing.T) {
	bus := usecase.NewQueryBus(nil, 0)

	_, err := bus.Execute(context.Background(), usecase.NewQuery("widget.get", nil))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotRegistered))
}

func TestQueryBus_NilQuery(t *testing.T) {
	bus := usecase.NewQueryBus(nil, 0)
	_, err := bus.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
