package models_test

import (
	"testing"
	"time"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO8601(t *testing.T) {
	t.Parallel()

	want := time.Date(2016, time.October, 10, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{name: "extended utc", input: "2016-10-10T12:30:45Z"},
		{name: "extended offset", input: "2016-10-10T14:30:45+02:00"},
		{name: "extended without zone", input: "2016-10-10T12:30:45"},
		{name: "basic", input: "20161010T123045"},
		{name: "basic utc", input: "20161010T123045Z"},
		{name: "surrounding whitespace", input: " 2016-10-10T12:30:45Z\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := models.ParseISO8601(tt.input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseISO8601_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "yesterday", "2016-13-40T99:00:00Z", "1476102645"} {
		_, err := models.ParseISO8601(input)
		assert.Error(t, err, input)
	}
}

func TestFormatISO8601_RoundTrip(t *testing.T) {
	t.Parallel()

	original := time.Date(2024, time.February, 29, 23, 59, 59, 123456789, time.FixedZone("BRT", -3*3600))

	parsed, err := models.ParseISO8601(models.FormatISO8601(original))
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))
	assert.Equal(t, "2024-02-29T23:59:59.123456789-03:00", models.FormatISO8601(original))
}

func TestParseStepResult(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"Success", "success", "FAIL", "Skip", "na"} {
		_, err := models.ParseStepResult(name)
		assert.NoError(t, err, name)
	}

	_, err := models.ParseStepResult("Exploded")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownStepResult)

	assert.Equal(t, []models.StepResult{
		models.StepResultSuccess,
		models.StepResultFail,
		models.StepResultSkip,
		models.StepResultNA,
	}, models.StepResults())
}
