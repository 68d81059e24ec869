// Package postgresql stores step results in PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/dukex/stepledger/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

var ErrSchemaOutdated = errors.New("database schema is behind the expected migration version")

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	migrator    *sqlbase.MigrationManager
	stepResults *StepResultRepository
}

// NewPersistence connects to databaseURL and migrates the schema before
// returning.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	database.SetMaxOpenConns(maxOpenConns)
	database.SetMaxIdleConns(maxIdleConns)
	database.SetConnMaxLifetime(connMaxLifetime)

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrator := sqlbase.NewMigrationManager(logger, database, migrations())

	if err := migrator.RunMigrations(ctx); err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		migrator:    migrator,
		stepResults: NewStepResultRepository(database, logger),
	}, nil
}

func (p *Persistence) StepResultRepository() persistence.StepResultRepository {
	return p.stepResults
}

// HealthCheck pings the server and checks that every migration is applied.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	current, err := p.migrator.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	if latest := p.migrator.LatestVersion(); current < latest {
		return fmt.Errorf("%w: at %d, want %d", ErrSchemaOutdated, current, latest)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}
