package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridclash/gridclash-backend/internal/config"
)

func TestInitLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("Error level suppresses warnings", func(t *testing.T) {
		logger := initLogger(&config.Config{LogLevel: "error"})

		assert.True(t, logger.Enabled(ctx, slog.LevelError))
		assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
	})

	t.Run("Warn level suppresses info", func(t *testing.T) {
		logger := initLogger(&config.Config{LogLevel: "warn"})

		assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
		assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	})

	t.Run("Unknown level falls back to info", func(t *testing.T) {
		logger := initLogger(&config.Config{LogLevel: "verbose"})

		assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
		assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
	})
}
