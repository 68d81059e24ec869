package models

import (
	"errors"
	"strings"
	"time"
)

// StepRecord is a stored step result, addressed by the workflow run it
// belongs to and the step name.
type StepRecord struct {
	RunID      string              `json:"run_id"      validate:"required"`
	StepName   string              `json:"step_name"   validate:"required"`
	Result     *WorkflowStepResult `json:"result"      validate:"required"`
	RecordedAt time.Time           `json:"recorded_at"`
}

var (
	ErrEmptyKey   = errors.New("run ID and step name cannot be empty")
	ErrInvalidKey = errors.New("run ID or step name contains invalid characters")
)

// ValidateKey checks that a run ID or step name is usable as a storage key.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if strings.Contains(key, "..") || strings.ContainsAny(key, "/\\") {
		return ErrInvalidKey
	}

	return nil
}

// Validate checks the record's key fields.
func (r *StepRecord) Validate() error {
	if err := ValidateKey(r.RunID); err != nil {
		return err
	}

	if err := ValidateKey(r.StepName); err != nil {
		return err
	}

	if r.Result == nil {
		return errors.New("step record has no result")
	}

	return nil
}
