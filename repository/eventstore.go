package repository

import (
	"context"

	"github.com/idforge/backend/domain"
)

// EventStore is the collaborator seam for durable event history. No
// implementation ships with this core; the publisher appends flushed batches
// here when a deployment attaches one via WithEventStore.
type EventStore interface {
	AppendEvents(ctx context.Context, aggregateID string, events []domain.Event) error
	GetEvents(ctx context.Context, aggregateID string) ([]domain.Event, error)
	SaveSnapshot(ctx context.Context, aggregateID string, snapshot interface{}) error
}
