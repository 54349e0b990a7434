package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
)

// EventHandler reacts to one published domain event.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus fans a published event out to every handler subscribed to its
// type. Delivery is best-effort and at-most-once: handler failures are
// contained individually and never reach the publisher or the sibling
// handlers.
type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		handlers: make(map[string][]EventHandler),
		logger:   logger,
	}
}

// Subscribe appends a handler for the event type. Unlike the command and
// query buses, any number of handlers may share one type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	if eventType == "" || handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish invokes all handlers for the event's type concurrently and returns
// once every one has settled. It never fails: each handler error or panic is
// caught and logged in isolation.
func (b *EventBus) Publish(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()
	if len(handlers) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h EventHandler) {
			defer wg.Done()
			if err := b.invoke(ctx, h, event); err != nil {
				b.logger.Error("event handler failed",
					zap.String("event", event.Type),
					zap.String("aggregate_id", event.AggregateID),
					zap.Error(err))
			}
		}(handler)
	}
	wg.Wait()
}

// Dispatch invokes all handlers for the event's type sequentially and
// reports every failure. The outbox relay uses it to decide whether a
// buffered event may be removed or has to be retried.
func (b *EventBus) Dispatch(ctx context.Context, event domain.Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	var result error
	for _, handler := range handlers {
		if err := b.invoke(ctx, handler, event); err != nil {
			result = errors.Join(result, err)
		}
	}
	return result
}

func (b *EventBus) invoke(ctx context.Context, handler EventHandler, event domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic: %v", r)
		}
	}()
	return handler(ctx, event)
}

// SubscriberCount returns how many handlers listen to the event type.
func (b *EventBus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Reset clears all subscriptions, for test isolation.
func (b *EventBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]EventHandler)
}
