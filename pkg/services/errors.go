// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/stepledger/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidStepResult = errors.New("invalid step result document")
	ErrInvalidStepValue  = errors.New("invalid step value document")

	// Schema violations under strict recording (422 Unprocessable Entity).
	ErrSchemaViolation = errors.New("step result violates schema")

	// ErrStepResultNotFound is returned when no result is stored for a run/step pair (404).
	ErrStepResultNotFound = persistence.ErrStepResultNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidStepResult) ||
		errors.Is(err, ErrInvalidStepValue) ||
		persistence.IsInvalidKey(err)
}

// IsSchemaViolation checks if an error should return HTTP 422.
func IsSchemaViolation(err error) bool {
	return errors.Is(err, ErrSchemaViolation)
}

// IsNotFound checks if an error should return HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStepResultNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
