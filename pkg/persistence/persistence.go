// Package persistence provides the storage abstraction for step results.
package persistence

import (
	"context"

	"github.com/dukex/stepledger/pkg/models"
)

// StepResultRepository stores one step result per (run, step) pair.
type StepResultRepository interface {
	// Save inserts or replaces the record for record.RunID and record.StepName.
	Save(ctx context.Context, record *models.StepRecord) error

	// Get returns ErrStepResultNotFound when no record exists.
	Get(ctx context.Context, runID, stepName string) (*models.StepRecord, error)

	// ListByRun returns the records of a run ordered by RecordedAt, then
	// StepName. An unknown run yields an empty slice.
	ListByRun(ctx context.Context, runID string) ([]*models.StepRecord, error)

	// ListRuns returns every run ID that has at least one record, sorted.
	ListRuns(ctx context.Context) ([]string, error)

	// Delete returns ErrStepResultNotFound when no record exists.
	Delete(ctx context.Context, runID, stepName string) error
}

type Persistence interface {
	StepResultRepository() StepResultRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
