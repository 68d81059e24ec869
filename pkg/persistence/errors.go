// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/stepledger/pkg/models"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrStepResultNotFound indicates no step result is stored for a run/step pair.
	ErrStepResultNotFound = errors.New("step result not found")

	// ErrInvalidKey indicates a run ID or step name unusable as a storage key.
	ErrInvalidKey = errors.New("invalid step result key")

	// ErrCorruptRecord indicates a stored record that no longer decodes.
	ErrCorruptRecord = errors.New("corrupt step result record")
)

// StepResultError wraps step result errors with additional context.
type StepResultError struct {
	Op       string // Operation being performed (e.g., "Get", "Save", "Delete")
	RunID    string
	StepName string
	Err      error
}

func (e *StepResultError) Error() string {
	if e.StepName == "" {
		return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for step %s in run %s: %v", e.Op, e.StepName, e.RunID, e.Err)
}

func (e *StepResultError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for step result errors.
func (e *StepResultError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStepResultError creates a new step result error with context.
func NewStepResultError(op, runID, stepName string, err error) *StepResultError {
	return &StepResultError{
		Op:       op,
		RunID:    runID,
		StepName: stepName,
		Err:      err,
	}
}

// IsStepResultNotFound checks if an error indicates a step result was not found.
func IsStepResultNotFound(err error) bool {
	return errors.Is(err, ErrStepResultNotFound)
}

// IsInvalidKey checks if an error indicates an unusable run ID or step name.
func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}

// ValidateKeys checks a run ID and optional step name before they reach a backend.
func ValidateKeys(op, runID, stepName string, checkStep bool) error {
	if err := models.ValidateKey(runID); err != nil {
		return NewStepResultError(op, runID, stepName, fmt.Errorf("%w: %w", ErrInvalidKey, err))
	}

	if !checkStep {
		return nil
	}

	if err := models.ValidateKey(stepName); err != nil {
		return NewStepResultError(op, runID, stepName, fmt.Errorf("%w: %w", ErrInvalidKey, err))
	}

	return nil
}

// SortRecords orders records by RecordedAt, then StepName.
func SortRecords(records []*models.StepRecord) {
	slices.SortStableFunc(records, func(a, b *models.StepRecord) int {
		if c := a.RecordedAt.Compare(b.RecordedAt); c != 0 {
			return c
		}

		return strings.Compare(a.StepName, b.StepName)
	})
}
