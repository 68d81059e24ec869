// Package redis provides Redis persistence for step results.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "stepledger"

// Persistence implements the persistence layer on a Redis server.
type Persistence struct {
	client         redis.UniversalClient
	logger         *slog.Logger
	stepResultRepo *StepResultRepository
}

// NewPersistence connects to the server at redisURL (redis://[:password@]host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewPersistenceWithClient(logger, client, defaultKeyPrefix), nil
}

// NewPersistenceWithClient wraps an existing client; keys are namespaced under prefix.
func NewPersistenceWithClient(logger *slog.Logger, client redis.UniversalClient, prefix string) *Persistence {
	return &Persistence{
		client:         client,
		logger:         logger,
		stepResultRepo: NewStepResultRepository(client, prefix),
	}
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

func (p *Persistence) StepResultRepository() persistence.StepResultRepository {
	return p.stepResultRepo
}
