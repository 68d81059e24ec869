package log_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/stepledger/pkg/log"
	"github.com/stretchr/testify/assert"
)

func TestWithModule_ReturnsSameLoggerPerModule(t *testing.T) {
	first := log.WithModule("codec")
	second := log.WithModule("codec")
	other := log.WithModule("api")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}

func TestSetup_ResetsModuleLoggers(t *testing.T) {
	before := log.WithModule("worker")

	log.Setup("debug")

	after := log.WithModule("worker")
	assert.NotSame(t, before, after)
	assert.True(t, after.Enabled(context.Background(), slog.LevelDebug))

	log.Setup("error")
	assert.False(t, log.WithModule("worker").Enabled(context.Background(), slog.LevelInfo))
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	ctx := log.NewContext(context.Background(), logger)

	assert.Same(t, logger, log.FromContext(ctx))
	assert.NotNil(t, log.FromContext(context.Background()))
}
