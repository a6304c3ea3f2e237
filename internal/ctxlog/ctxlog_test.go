package ctxlog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), ctxlog.FromContext(context.Background()))

	var buf bytes.Buffer
	logger := ctxlog.New("debug", "json", &buf)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	require.Same(t, logger, ctxlog.FromContext(ctx))

	ctxlog.FromContext(ctx).Debug("step", "iteration", 3)
	assert.Contains(t, buf.String(), `"iteration":3`)
}

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := ctxlog.New("warn", "text", &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.False(t, ctxlog.Discard().Enabled(context.Background(), slog.LevelError))
}
