package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/repository"
)

// Publisher flushes an aggregate's accumulated events after a successful
// save: each event is enqueued into the durable outbox, published to the
// event bus, and the aggregate's list is cleared. Events held only in memory
// are lost on crash; the outbox enqueue is the durability seam.
type Publisher struct {
	bus     *EventBus
	outbox  EventOutbox
	history repository.EventStore
	logger  *zap.Logger
}

func NewPublisher(bus *EventBus, outbox EventOutbox, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		bus:    bus,
		outbox: outbox,
		logger: logger,
	}
}

// WithEventStore attaches an optional durable history: flushed events are
// appended there before being published.
func (p *Publisher) WithEventStore(store repository.EventStore) *Publisher {
	p.history = store
	return p
}

// Flush drains src's pending events in emission order.
func (p *Publisher) Flush(ctx context.Context, src EventSource) {
	if p == nil || src == nil {
		return
	}
	events := src.DomainEvents()
	if len(events) == 0 {
		return
	}
	if p.history != nil {
		if err := p.history.AppendEvents(ctx, events[0].AggregateID, events); err != nil {
			p.logger.Warn("failed to append events to history",
				zap.String("aggregate_id", events[0].AggregateID),
				zap.Error(err))
		}
	}
	for _, event := range events {
		p.publish(ctx, event)
	}
	src.ClearDomainEvents()
}

func (p *Publisher) publish(ctx context.Context, event domain.Event) {
	if p.outbox != nil {
		if err := p.outbox.Enqueue(ctx, event); err != nil {
			p.logger.Warn("failed to enqueue event to outbox",
				zap.String("event", event.Type),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err))
		}
	}
	if p.bus != nil {
		p.bus.Publish(ctx, event)
	}
}
