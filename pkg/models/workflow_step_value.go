package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/dukex/stepledger/pkg/jsontree"
)

// WorkflowStepValue is a named, typed scalar produced by a workflow step,
// with an optional display name and units.
//
// The zero value has an empty name and holds the empty string.
type WorkflowStepValue struct {
	name        string
	displayName *string
	units       *string
	value       Variant
}

// NewWorkflowStepValue creates a step value holding value.
func NewWorkflowStepValue(name string, value Variant) WorkflowStepValue {
	return WorkflowStepValue{name: name, value: value}
}

func NewStringStepValue(name, value string) WorkflowStepValue {
	return NewWorkflowStepValue(name, StringVariant(value))
}

func NewDoubleStepValue(name string, value float64) WorkflowStepValue {
	return NewWorkflowStepValue(name, DoubleVariant(value))
}

func NewIntegerStepValue(name string, value int) WorkflowStepValue {
	return NewWorkflowStepValue(name, IntegerVariant(value))
}

func NewBooleanStepValue(name string, value bool) WorkflowStepValue {
	return NewWorkflowStepValue(name, BooleanVariant(value))
}

func (v WorkflowStepValue) Name() string {
	return v.name
}

// DisplayName returns the display name, or the name when none was set.
func (v WorkflowStepValue) DisplayName() string {
	if v.displayName != nil {
		return *v.displayName
	}

	return v.name
}

// HasDisplayName reports whether a display name was set explicitly.
func (v WorkflowStepValue) HasDisplayName() bool {
	return v.displayName != nil
}

func (v WorkflowStepValue) Units() (string, bool) {
	if v.units == nil {
		return "", false
	}

	return *v.units, true
}

func (v WorkflowStepValue) VariantType() VariantType {
	return v.value.Type()
}

func (v WorkflowStepValue) Value() Variant {
	return v.value
}

// The ValueAs accessors follow Variant: check VariantType first, a mismatched
// accessor returns the zero value.

func (v WorkflowStepValue) ValueAsString() string {
	return v.value.AsString()
}

func (v WorkflowStepValue) ValueAsDouble() float64 {
	return v.value.AsDouble()
}

func (v WorkflowStepValue) ValueAsInteger() int {
	return v.value.AsInteger()
}

func (v WorkflowStepValue) ValueAsBoolean() bool {
	return v.value.AsBoolean()
}

// Finite reports false for NaN and infinite doubles, which have no JSON form.
func (v WorkflowStepValue) Finite() bool {
	if v.value.Type() != VariantTypeDouble {
		return true
	}

	d := v.value.AsDouble()

	return !math.IsNaN(d) && !math.IsInf(d, 0)
}

func (v *WorkflowStepValue) SetName(name string) {
	v.name = name
}

func (v *WorkflowStepValue) SetDisplayName(displayName string) {
	v.displayName = &displayName
}

func (v *WorkflowStepValue) ResetDisplayName() {
	v.displayName = nil
}

func (v *WorkflowStepValue) SetUnits(units string) {
	v.units = &units
}

func (v *WorkflowStepValue) ResetUnits() {
	v.units = nil
}

// String renders the value in its JSON wire format.
func (v WorkflowStepValue) String() string {
	out, err := jsontree.Pretty(v.node())
	if err != nil {
		return ""
	}

	return out
}

// MarshalJSON implements json.Marshaler using the wire format.
func (v WorkflowStepValue) MarshalJSON() ([]byte, error) {
	out, err := jsontree.Pretty(v.node())
	if err != nil {
		return nil, err
	}

	return []byte(out), nil
}

// UnmarshalJSON implements json.Unmarshaler using the wire format.
func (v *WorkflowStepValue) UnmarshalJSON(data []byte) error {
	parsed, err := ParseWorkflowStepValue(string(data))
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

func (v WorkflowStepValue) node() map[string]any {
	obj := map[string]any{"name": v.name}

	if v.displayName != nil {
		obj["display_name"] = *v.displayName
	}

	if v.units != nil {
		obj["units"] = *v.units
	}

	switch v.value.Type() {
	case VariantTypeString:
		obj["value"] = v.value.AsString()
	case VariantTypeDouble:
		obj["value"] = v.value.AsDouble()
	case VariantTypeInteger:
		obj["value"] = int64(v.value.AsInteger())
	case VariantTypeBoolean:
		obj["value"] = v.value.AsBoolean()
	}

	return obj
}

// ParseWorkflowStepValue decodes a step value from its JSON wire format.
// Every failure wraps ErrParse.
func ParseWorkflowStepValue(s string) (WorkflowStepValue, error) {
	obj, err := jsontree.ParseObject(s)
	if err != nil {
		return WorkflowStepValue{}, newParseError(err)
	}

	value, err := decodeStepValue(obj)
	if err != nil {
		return WorkflowStepValue{}, newParseError(err)
	}

	return value, nil
}

// decodeStepValueNode decodes one element of a step_values array.
func decodeStepValueNode(node any) (WorkflowStepValue, error) {
	obj, ok := node.(map[string]any)
	if !ok {
		return WorkflowStepValue{}, &FieldDecodeError{Field: "step_values", Reason: "expected object, got " + jsontree.Kind(node)}
	}

	return decodeStepValue(obj)
}

func decodeStepValue(obj map[string]any) (WorkflowStepValue, error) {
	name, ok, err := jsontree.OptionalString(obj, "name")
	if err != nil {
		return WorkflowStepValue{}, &FieldDecodeError{Field: "name", Reason: "invalid type", Err: err}
	}

	if !ok || name == "" {
		return WorkflowStepValue{}, &FieldDecodeError{Field: "name", Reason: "required"}
	}

	variant, err := decodeVariant(obj["value"])
	if err != nil {
		return WorkflowStepValue{}, &FieldDecodeError{Field: "value", Reason: "unsupported value", Err: err}
	}

	result := NewWorkflowStepValue(name, variant)

	displayName, ok, err := jsontree.OptionalString(obj, "display_name")
	if err != nil {
		return WorkflowStepValue{}, &FieldDecodeError{Field: "display_name", Reason: "invalid type", Err: err}
	}

	if ok {
		result.SetDisplayName(displayName)
	}

	units, ok, err := jsontree.OptionalString(obj, "units")
	if err != nil {
		return WorkflowStepValue{}, &FieldDecodeError{Field: "units", Reason: "invalid type", Err: err}
	}

	if ok {
		result.SetUnits(units)
	}

	return result, nil
}

var errUnsupportedValue = errors.New("value must be a string, number or boolean")

func decodeVariant(node any) (Variant, error) {
	switch v := node.(type) {
	case string:
		return StringVariant(v), nil
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return Variant{}, fmt.Errorf("integer %d out of range", v)
		}

		return IntegerVariant(int(v)), nil
	case float64:
		return DoubleVariant(v), nil
	case bool:
		return BooleanVariant(v), nil
	default:
		return Variant{}, fmt.Errorf("%w, got %s", errUnsupportedValue, jsontree.Kind(node))
	}
}
