package models

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is wrapped by every decoding failure of the step result codec.
	ErrParse = errors.New("parse error")

	// ErrUnknownStepResult indicates a step_result name outside the known set.
	ErrUnknownStepResult = errors.New("unknown step result")
)

// FieldDecodeError reports a field whose JSON shape does not match the wire
// format.
type FieldDecodeError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %q: %s: %v", e.Field, e.Reason, e.Err)
	}

	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func (e *FieldDecodeError) Unwrap() error {
	return e.Err
}

func newParseError(err error) error {
	return fmt.Errorf("%w: %w", ErrParse, err)
}

// IsParseError reports whether err came from the step result codec.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}
