package outbox_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/internal/infrastructure/outbox"
)

func openTestStore(t *testing.T) *outbox.Store {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_EnqueueAndDrainOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"ten-1", "ten-2", "ten-3"} {
		require.NoError(t, store.Enqueue(ctx, domain.NewEvent(domain.EventTenantCreated, id, map[string]interface{}{
			"slug": id,
		})))
		time.Sleep(time.Millisecond)
	}

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	records, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "ten-1", records[0].AggregateID)
	assert.Equal(t, "ten-2", records[1].AggregateID)
	assert.Equal(t, "ten-3", records[2].AggregateID)
}

func TestStore_GetBatchRespectsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Enqueue(ctx, domain.NewEvent(domain.EventTenantCreated, "ten-1", nil)))
		time.Sleep(time.Millisecond)
	}

	records, err := store.GetBatch(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// GetBatch does not consume: the same records come back again.
	again, err := store.GetBatch(2)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, records[0].ID, again[0].ID)
}

func TestStore_RecordRoundTrip(t *testing.T) {
	store := openTestStore(t)

	event := domain.NewEvent(domain.EventTenantSuspended, "ten-9", map[string]interface{}{
		"reason": "billing hold",
	})
	require.NoError(t, store.Enqueue(context.Background(), event))

	records, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	restored := records[0].Event()
	assert.Equal(t, event.Type, restored.Type)
	assert.Equal(t, event.AggregateID, restored.AggregateID)
	assert.Equal(t, "billing hold", restored.Payload["reason"])
	assert.WithinDuration(t, event.Timestamp, restored.Timestamp, time.Second)
}

func TestStore_Remove(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue(context.Background(), domain.NewEvent(domain.EventTenantCreated, "ten-1", nil)))

	records, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, store.Remove(records[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestStore_RequeueBumpsTimestamp(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue(context.Background(), domain.NewEvent(domain.EventTenantCreated, "ten-1", nil)))

	records, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	require.NoError(t, store.Remove(record))

	time.Sleep(time.Millisecond)
	record.Retries++
	require.NoError(t, store.Requeue(record))

	requeued, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, requeued, 1)
	assert.Equal(t, record.ID, requeued[0].ID)
	assert.Equal(t, 1, requeued[0].Retries)
	assert.True(t, requeued[0].Timestamp.After(records[0].Timestamp))
}

func TestStore_Cleanup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, domain.NewEvent(domain.EventTenantCreated, "ten-old", nil)))
	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Enqueue(ctx, domain.NewEvent(domain.EventTenantCreated, "ten-new", nil)))

	require.NoError(t, store.Cleanup(cutoff))

	records, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ten-new", records[0].AggregateID)
}

func TestStore_ClosedStore(t *testing.T) {
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Size()
	assert.Error(t, err)
}
