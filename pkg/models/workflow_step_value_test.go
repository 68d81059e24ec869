package models_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/dukex/stepledger/pkg/jsontree"
	"github.com/dukex/stepledger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowStepValue_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    models.WorkflowStepValue
		expected map[string]any
	}{
		{
			name:     "string",
			value:    models.NewStringStepValue("zone", "Core_ZN"),
			expected: map[string]any{"name": "zone", "value": "Core_ZN"},
		},
		{
			name:     "double",
			value:    models.NewDoubleStepValue("R_value", 3.5),
			expected: map[string]any{"name": "R_value", "value": 3.5},
		},
		{
			name:     "integer",
			value:    models.NewIntegerStepValue("num_zones", 12),
			expected: map[string]any{"name": "num_zones", "value": int64(12)},
		},
		{
			name:     "boolean",
			value:    models.NewBooleanStepValue("applicable", true),
			expected: map[string]any{"name": "applicable", "value": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			obj, err := jsontree.ParseObject(tt.value.String())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obj)
		})
	}
}

func TestWorkflowStepValue_StringContainsNameAndValue(t *testing.T) {
	t.Parallel()

	out := models.NewDoubleStepValue("R_value", 3.5).String()

	assert.Contains(t, out, `"value": 3.5`)
	assert.Contains(t, out, `"name": "R_value"`)
}

func TestWorkflowStepValue_OptionalKeys(t *testing.T) {
	t.Parallel()

	value := models.NewDoubleStepValue("area", 120)
	assert.Equal(t, "area", value.DisplayName())
	assert.False(t, value.HasDisplayName())

	obj, err := jsontree.ParseObject(value.String())
	require.NoError(t, err)
	assert.NotContains(t, obj, "display_name")
	assert.NotContains(t, obj, "units")

	value.SetDisplayName("Floor Area")
	value.SetUnits("m^2")

	obj, err = jsontree.ParseObject(value.String())
	require.NoError(t, err)
	assert.Equal(t, "Floor Area", obj["display_name"])
	assert.Equal(t, "m^2", obj["units"])
	assert.InDelta(t, 120.0, obj["value"], 0)

	value.ResetDisplayName()
	value.ResetUnits()
	assert.Equal(t, "area", value.DisplayName())

	_, ok := value.Units()
	assert.False(t, ok)
}

func TestWorkflowStepValue_IntegralDoubleKeepsKind(t *testing.T) {
	t.Parallel()

	value := models.NewDoubleStepValue("count_as_double", 4)
	assert.Contains(t, value.String(), `"value": 4.0`)

	parsed, err := models.ParseWorkflowStepValue(value.String())
	require.NoError(t, err)
	assert.Equal(t, models.VariantTypeDouble, parsed.VariantType())
	assert.InDelta(t, 4.0, parsed.ValueAsDouble(), 0)
}

func TestParseWorkflowStepValue_RoundTrip(t *testing.T) {
	t.Parallel()

	withUnits := models.NewDoubleStepValue("u_factor", 0.35)
	withUnits.SetUnits("W/m^2*K")
	withUnits.SetDisplayName("U-Factor")

	values := []models.WorkflowStepValue{
		models.NewStringStepValue("s", "hello \"world\""),
		models.NewDoubleStepValue("d", -12.125),
		models.NewIntegerStepValue("i", -7),
		models.NewBooleanStepValue("b", false),
		withUnits,
	}

	for _, original := range values {
		parsed, err := models.ParseWorkflowStepValue(original.String())
		require.NoError(t, err, original.Name())

		assert.Equal(t, original.Name(), parsed.Name())
		assert.Equal(t, original.VariantType(), parsed.VariantType())
		assert.Equal(t, original.Value(), parsed.Value())
		assert.Equal(t, original.DisplayName(), parsed.DisplayName())

		originalUnits, originalHasUnits := original.Units()
		parsedUnits, parsedHasUnits := parsed.Units()
		assert.Equal(t, originalHasUnits, parsedHasUnits)
		assert.Equal(t, originalUnits, parsedUnits)
	}
}

func TestParseWorkflowStepValue_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "not json"},
		{name: "empty", input: ""},
		{name: "array", input: `[1]`},
		{name: "missing name", input: `{"value": 1}`},
		{name: "empty name", input: `{"name": "", "value": 1}`},
		{name: "numeric name", input: `{"name": 5, "value": 1}`},
		{name: "missing value", input: `{"name": "x"}`},
		{name: "null value", input: `{"name": "x", "value": null}`},
		{name: "object value", input: `{"name": "x", "value": {"a": 1}}`},
		{name: "array value", input: `{"name": "x", "value": [1, 2]}`},
		{name: "numeric units", input: `{"name": "x", "value": 1, "units": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := models.ParseWorkflowStepValue(tt.input)
			require.Error(t, err)
			assert.True(t, models.IsParseError(err))
		})
	}
}

func TestParseWorkflowStepValue_NumberKinds(t *testing.T) {
	t.Parallel()

	integer, err := models.ParseWorkflowStepValue(`{"name": "n", "value": 10}`)
	require.NoError(t, err)
	assert.Equal(t, models.VariantTypeInteger, integer.VariantType())
	assert.Equal(t, 10, integer.ValueAsInteger())

	double, err := models.ParseWorkflowStepValue(`{"name": "n", "value": 10.25}`)
	require.NoError(t, err)
	assert.Equal(t, models.VariantTypeDouble, double.VariantType())
	assert.InDelta(t, 10.25, double.ValueAsDouble(), 0)
}

func TestWorkflowStepValue_NonFiniteDoubleDoesNotParse(t *testing.T) {
	t.Parallel()

	value := models.NewDoubleStepValue("broken", math.NaN())
	assert.Contains(t, value.String(), `"value": null`)

	_, err := models.ParseWorkflowStepValue(value.String())
	assert.Error(t, err)
}

func TestWorkflowStepValue_MismatchedAccessorReturnsZero(t *testing.T) {
	t.Parallel()

	value := models.NewStringStepValue("s", "text")

	assert.Equal(t, models.VariantTypeString, value.VariantType())
	assert.Zero(t, value.ValueAsDouble())
	assert.Zero(t, value.ValueAsInteger())
	assert.False(t, value.ValueAsBoolean())
	assert.Equal(t, "text", value.Value().Interface())
}

func TestWorkflowStepValue_CopiesAreIndependent(t *testing.T) {
	t.Parallel()

	original := models.NewIntegerStepValue("n", 1)
	original.SetUnits("kg")

	copied := original
	copied.SetUnits("lb")
	copied.SetName("m")

	units, _ := original.Units()
	assert.Equal(t, "kg", units)
	assert.Equal(t, "n", original.Name())
}

func TestWorkflowStepValue_JSONMarshalers(t *testing.T) {
	t.Parallel()

	type envelope struct {
		Value models.WorkflowStepValue `json:"value"`
	}

	data, err := json.Marshal(envelope{Value: models.NewBooleanStepValue("ok", true)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": {"name": "ok", "value": true}}`, string(data))

	var decoded envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ok", decoded.Value.Name())
	assert.True(t, decoded.Value.ValueAsBoolean())
}
