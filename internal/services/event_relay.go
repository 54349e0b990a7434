package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/idforge/backend/internal/infrastructure/outbox"
	"github.com/idforge/backend/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// RelayConfig controls how frequently the outbox is drained.
type RelayConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// EventRelay drains buffered domain events from the outbox and redelivers
// them through the event bus. Records whose subscribers keep failing are
// requeued until the retry ceiling, then dropped.
type EventRelay struct {
	store   *outbox.Store
	bus     *usecase.EventBus
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     RelayConfig
}

func NewEventRelay(
	store *outbox.Store,
	bus *usecase.EventBus,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg RelayConfig,
) *EventRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	// The cron spec has whole-second resolution; anything finer would render
	// as "@every 0s" and never fire.
	if cfg.Interval < time.Second {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &EventRelay{
		store:   store,
		bus:     bus,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("outbox drain failed", zap.Error(err))
		}
	}); err != nil {
		r.logger.Error("failed to schedule outbox drain",
			zap.String("schedule", schedule),
			zap.Error(err))
	}
	if _, err := r.cron.AddFunc("@hourly", func() {
		if err := r.store.Cleanup(time.Now().Add(-cfg.Retention)); err != nil {
			r.logger.Warn("outbox cleanup failed", zap.Error(err))
		}
	}); err != nil {
		r.logger.Error("failed to schedule outbox cleanup", zap.Error(err))
	}

	return r
}

// Config returns the effective relay configuration after defaulting.
func (r *EventRelay) Config() RelayConfig {
	return r.cfg
}

// Start launches the cron scheduler.
func (r *EventRelay) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("event relay started")
}

// Stop gracefully stops the scheduler.
func (r *EventRelay) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("event relay stopped")
}

// Drain redelivers buffered events synchronously.
func (r *EventRelay) Drain(ctx context.Context) error {
	if r == nil || r.store == nil {
		return nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	records, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := r.bus.Dispatch(ctx, record.Event()); err != nil {
			r.logger.Error("failed to redeliver buffered event",
				zap.String("record_id", record.ID),
				zap.String("event", record.EventType),
				zap.Error(err))

			record.Retries++
			if record.Retries >= r.cfg.MaxRetries {
				r.logger.Warn("dropping buffered event (max retries reached)",
					zap.String("record_id", record.ID))
				_ = r.store.Remove(record)
				continue
			}

			if err := r.store.Remove(record); err != nil {
				r.logger.Warn("failed to remove buffered event", zap.Error(err))
			}
			if err := r.store.Requeue(record); err != nil {
				r.logger.Error("failed to requeue buffered event", zap.Error(err))
			}
			continue
		}

		if err := r.store.Remove(record); err != nil {
			r.logger.Warn("failed to purge delivered event", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of buffered events.
func (r *EventRelay) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}
