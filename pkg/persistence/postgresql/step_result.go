package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/persistence"
)

// StepResultRepository keeps one row per (run_id, step_name). The result
// column holds the step result in its wire format.
type StepResultRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStepResultRepository(db *sql.DB, logger *slog.Logger) *StepResultRepository {
	return &StepResultRepository{db: db, logger: logger}
}

func (r *StepResultRepository) Save(ctx context.Context, record *models.StepRecord) error {
	if err := persistence.ValidateKeys("Save", record.RunID, record.StepName, true); err != nil {
		return err
	}

	query := `
		INSERT INTO step_results (run_id, step_name, result, step_result, complete, error_count, warning_count, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, step_name) DO UPDATE SET
			result = EXCLUDED.result
		  , step_result = EXCLUDED.step_result
		  , complete = EXCLUDED.complete
		  , error_count = EXCLUDED.error_count
		  , warning_count = EXCLUDED.warning_count
		  , recorded_at = EXCLUDED.recorded_at
	`

	var stepResult sql.NullString
	if value, ok := record.Result.StepResult(); ok {
		stepResult = sql.NullString{String: value.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		record.RunID,
		record.StepName,
		record.Result.String(),
		stepResult,
		record.Result.Complete(),
		len(record.Result.StepErrors()),
		len(record.Result.StepWarnings()),
		record.RecordedAt,
	)
	if err != nil {
		return persistence.NewStepResultError("Save", record.RunID, record.StepName, fmt.Errorf("failed to save step result: %w", err))
	}

	return nil
}

func (r *StepResultRepository) Get(ctx context.Context, runID, stepName string) (*models.StepRecord, error) {
	if err := persistence.ValidateKeys("Get", runID, stepName, true); err != nil {
		return nil, err
	}

	query := `
		SELECT run_id, step_name, result, recorded_at
		FROM step_results
		WHERE run_id = $1 AND step_name = $2
	`

	record, err := r.scanRecord(r.db.QueryRowContext(ctx, query, runID, stepName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStepResultError("Get", runID, stepName, persistence.ErrStepResultNotFound)
		}

		return nil, persistence.NewStepResultError("Get", runID, stepName, err)
	}

	return record, nil
}

func (r *StepResultRepository) ListByRun(ctx context.Context, runID string) ([]*models.StepRecord, error) {
	if err := persistence.ValidateKeys("ListByRun", runID, "", false); err != nil {
		return nil, err
	}

	query := `
		SELECT run_id, step_name, result, recorded_at
		FROM step_results
		WHERE run_id = $1
		ORDER BY recorded_at ASC, step_name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query step results: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.StepRecord, 0)

	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, persistence.NewStepResultError("ListByRun", runID, "", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating step results: %w", err)
	}

	// Postgres collation may not match byte order for step names.
	persistence.SortRecords(records)

	return records, nil
}

func (r *StepResultRepository) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM step_results`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]string, 0)

	for rows.Next() {
		var runID string

		err := rows.Scan(&runID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}

		runs = append(runs, runID)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	slices.Sort(runs)

	return runs, nil
}

func (r *StepResultRepository) Delete(ctx context.Context, runID, stepName string) error {
	if err := persistence.ValidateKeys("Delete", runID, stepName, true); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM step_results WHERE run_id = $1 AND step_name = $2`, runID, stepName)
	if err != nil {
		return persistence.NewStepResultError("Delete", runID, stepName, fmt.Errorf("failed to delete step result: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.NewStepResultError("Delete", runID, stepName, persistence.ErrStepResultNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *StepResultRepository) scanRecord(row rowScanner) (*models.StepRecord, error) {
	var (
		record models.StepRecord
		body   string
	)

	err := row.Scan(&record.RunID, &record.StepName, &body, &record.RecordedAt)
	if err != nil {
		return nil, err
	}

	record.Result, err = models.ParseWorkflowStepResult(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", persistence.ErrCorruptRecord, err)
	}

	record.RecordedAt = record.RecordedAt.UTC()

	return &record, nil
}
