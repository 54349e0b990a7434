package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc tears one component down; it must respect ctx's deadline.
type ShutdownFunc func(ctx context.Context) error

type teardown struct {
	component string
	stop      ShutdownFunc
}

// Manager collects teardown callbacks from the composition root and runs
// them on shutdown in reverse registration order, so dependents stop before
// the things they depend on. A single deadline covers the whole sequence;
// Shutdown runs at most once.
type Manager struct {
	deadline time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	queue []teardown
	once  sync.Once
	err   error
}

func New(deadline time.Duration, logger *zap.Logger) *Manager {
	if deadline <= 0 {
		deadline = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		deadline: deadline,
		logger:   logger,
	}
}

// Register queues a teardown callback under a component name used in logs.
func (m *Manager) Register(component string, stop ShutdownFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, teardown{component: component, stop: stop})
}

// Shutdown drains the queue newest-first under the configured deadline and
// joins every teardown error. Repeat calls return the first run's result.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.once.Do(func() {
		m.err = m.run(ctx)
	})
	return m.err
}

func (m *Manager) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.deadline)
	defer cancel()

	m.mu.Lock()
	queue := make([]teardown, len(m.queue))
	copy(queue, m.queue)
	m.mu.Unlock()

	var joined error
	for i := len(queue) - 1; i >= 0; i-- {
		td := queue[i]
		started := time.Now()
		if err := td.stop(ctx); err != nil {
			m.logger.Error("component teardown failed",
				zap.String("component", td.component),
				zap.Duration("elapsed", time.Since(started)),
				zap.Error(err))
			joined = errors.Join(joined, err)
			continue
		}
		m.logger.Info("component stopped",
			zap.String("component", td.component),
			zap.Duration("elapsed", time.Since(started)))
	}
	return joined
}

// Listen watches for SIGTERM and SIGINT in the background and fires cancel
// on the first one received.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(signals)
		received := <-signals
		m.logger.Info("shutdown signal received", zap.String("signal", received.String()))
		cancel()
	}()
}
