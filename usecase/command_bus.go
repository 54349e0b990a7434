package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
)

// CommandHandler executes one command type and returns its result.
type CommandHandler func(ctx context.Context, cmd *Command) (interface{}, error)

// CommandBus routes each command to exactly one registered handler. The
// registry is populated once at startup by the composition root; tests build
// a fresh bus per case instead of sharing a singleton.
type CommandBus struct {
	handlers map[string]CommandHandler
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewCommandBus(logger *zap.Logger) *CommandBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandBus{
		handlers: make(map[string]CommandHandler),
		logger:   logger,
	}
}

// Register binds a command name to a handler. Re-registering the same name
// silently replaces the previous binding (last registration wins); the
// replacement is logged so the collision is at least visible.
func (b *CommandBus) Register(name string, handler CommandHandler) {
	if name == "" || handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[name]; exists {
		b.logger.Warn("command handler replaced", zap.String("command", name))
	}
	b.handlers[name] = handler
}

// Execute resolves the handler by the command's name and returns its result
// unmodified. Handler errors are logged and re-thrown unchanged; the bus does
// no retry, rollback or transaction wrapping.
func (b *CommandBus) Execute(ctx context.Context, cmd *Command) (interface{}, error) {
	if cmd == nil {
		return nil, domain.ErrInvalidPayload
	}
	b.mu.RLock()
	handler, ok := b.handlers[cmd.Name]
	b.mu.RUnlock()
	if !ok {
		return nil, domain.NewErrorf(domain.ErrCodeNotRegistered, "command handler %s not registered", cmd.Name)
	}

	result, err := handler(ctx, cmd)
	if err != nil {
		b.logger.Error("command failed",
			zap.String("command", cmd.Name),
			zap.String("command_id", cmd.CommandID),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Reset clears all registrations, for test isolation.
func (b *CommandBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string]CommandHandler)
}
