// Package schema validates step result documents against the JSON Schema of
// the wire format. The codec itself is lenient (it skips unreadable step
// values and bad timestamps); strict validation rejects such documents up
// front instead.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed step_result.schema.json
	stepResultSchema string

	//go:embed step_value.schema.json
	stepValueSchema string
)

// ErrInvalidDocument is wrapped by every validation failure.
var ErrInvalidDocument = errors.New("document does not match schema")

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Schema     string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation errors: %s", e.Schema, strings.Join(e.Violations, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}

// Validator holds the compiled schemas. It is safe for concurrent use.
type Validator struct {
	stepResult *gojsonschema.Schema
	stepValue  *gojsonschema.Schema
}

// NewValidator compiles the embedded schemas.
func NewValidator() (*Validator, error) {
	stepResult, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(stepResultSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile step result schema: %w", err)
	}

	stepValue, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(stepValueSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile step value schema: %w", err)
	}

	return &Validator{stepResult: stepResult, stepValue: stepValue}, nil
}

// ValidateStepResult checks a WorkflowStepResult document.
func (v *Validator) ValidateStepResult(document string) error {
	return validate("WorkflowStepResult", v.stepResult, document)
}

// ValidateStepValue checks a WorkflowStepValue document.
func (v *Validator) ValidateStepValue(document string) error {
	return validate("WorkflowStepValue", v.stepValue, document)
}

// StepResultSchema returns the step result schema document.
func StepResultSchema() string {
	return stepResultSchema
}

func validate(name string, schema *gojsonschema.Schema, document string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return &ValidationError{Schema: name, Violations: violations}
}
