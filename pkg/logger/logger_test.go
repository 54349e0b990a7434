package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/idforge/backend/pkg/logger"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := logger.ContextWithCorrelationID(context.Background(), "corr-123")
	assert.Equal(t, "corr-123", logger.CorrelationIDFromContext(ctx))

	assert.Empty(t, logger.CorrelationIDFromContext(context.Background()))
	assert.Empty(t, logger.CorrelationIDFromContext(nil))
}

func TestWithCorrelationIDStampsField(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := logger.ContextWithCorrelationID(context.Background(), "corr-123")
	logger.WithCorrelationID(ctx, base).Info("tenant.created")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "corr-123", entries[0].ContextMap()["correlation_id"])
}

func TestWithCorrelationIDWithoutID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	logger.WithCorrelationID(context.Background(), base).Info("tenant.created")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "correlation_id")
}
