// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/dukex/stepledger/pkg/persistence/file"
	"github.com/dukex/stepledger/pkg/persistence/postgresql"
	"github.com/dukex/stepledger/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql", "redis"}

// NewPersistence picks a backend from the URL scheme. URLs without a known
// scheme are treated as file system paths.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)

	logger.InfoContext(ctx, "Initializing persistence", "provider", provider)

	switch provider {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger.With("module", "postgresql"), databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL persistence: %w", err)
		}

		return p, nil
	case "redis":
		p, err := redis.NewPersistence(ctx, logger.With("module", "redis"), databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
