package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/stepledger/pkg/otelhelper"
)

// SetupTracing installs the OTLP tracer provider when enabled. The returned
// shutdown func is always safe to call.
func SetupTracing(ctx context.Context, logger *slog.Logger, enabled bool, serviceName string) (otelhelper.ShutdownFunc, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	logger.InfoContext(ctx, "Tracing enabled", "service_name", serviceName)

	return shutdown, nil
}
