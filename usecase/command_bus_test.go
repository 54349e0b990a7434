package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/usecase"
)

func TestCommandBus_Execute(t *testing.T) {
	bus := usecase.NewCommandBus(nil)

	bus.Register("widget.create", func(_ context.Context, cmd *usecase.Command) (interface{}, error) {
		input := cmd.Data.(string)
		return "created:" + input, nil
	})

	result, err := bus.Execute(context.Background(), usecase.NewCommand("widget.create", "w1"))
	require.NoError(t, err)
	assert.Equal(t, "created:w1", result)
}

func TestCommandBus_NotRegistered(t *testing.T) {
	bus := usecase.NewCommandBus(nil)

	_, err := bus.Execute(context.Background(), usecase.NewCommand("widget.delete", nil))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotRegistered))
	assert.Contains(t, err.Error(), "widget.delete")
}

func TestCommandBus_LastRegistrationWins(t *testing.T) {
	bus := usecase.NewCommandBus(nil)

	bus.Register("widget.create", func(context.Context, *usecase.Command) (interface{}, error) {
		return "first", nil
	})
	bus.Register("widget.create", func(context.Context, *usecase.Command) (interface{}, error) {
		return "second", nil
	})

	result, err := bus.Execute(context.Background(), usecase.NewCommand("widget.create", nil))
	require.NoError(t, err)
	assert.Equal(t, "second", result)
}

func TestCommandBus_HandlerErrorPassesThrough(t *testing.T) {
	bus := usecase.NewCommandBus(nil)
	boom := errors.New("boom")

	bus.Register("widget.create", func(context.Context, *usecase.Command) (interface{}, error) {
		return nil, boom
	})

	result, err := bus.Execute(context.Background(), usecase.NewCommand("widget.create", nil))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)
}

func TestCommandBus_IgnoresEmptyRegistrations(t *testing.T) {
	bus := usecase.NewCommandBus(nil)

	bus.Register("", func(context.Context, *usecase.Command) (interface{}, error) { return nil, nil })
	bus.Register("widget.create", nil)

	_, err := bus.Execute(context.Background(), usecase.NewCommand("widget.create", nil))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotRegistered))
}

func TestCommandBus_NilCommand(t *testing.T) {
	bus := usecase.NewCommandBus(nil)
	_, err := bus.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCommandBus_Reset(t *testing.T) {
	bus := usecase.NewCommandBus(nil)
	bus.Register("widget.create", func(context.Context, *usecase.Command) (interface{}, error) {
		return nil, nil
	})

	bus.Reset()

	_, err := bus.Execute(context.Background(), usecase.NewCommand("widget.create", nil))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotRegistered))
}

func TestNewCommand_StampsEnvelope(t *testing.T) {
	first := usecase.NewCommand("widget.create", 1)
	second := usecase.NewCommand("widget.create", 1)

	assert.NotEmpty(t, first.CommandID)
	assert.NotEqual(t, first.CommandID, second.CommandID)
	assert.False(t, first.Timestamp.IsZero())

	first.WithCorrelation("corr-1", "cause-1")
	assert.Equal(t, "corr-1", first.CorrelationID)
	assert.Equal(t, "cause-1", first.CausationID)
}
