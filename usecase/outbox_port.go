package usecase

import (
	"context"

	"github.com/idforge/backend/domain"
)

// EventOutbox abstracts the durable event buffer so use cases stay
// storage-agnostic.
type EventOutbox interface {
	Enqueue(ctx context.Context, event domain.Event) error
}

// EventSource is the slice of an aggregate the publisher needs: its pending
// events and the explicit clear.
type EventSource interface {
	DomainEvents() []domain.Event
	ClearDomainEvents()
}
