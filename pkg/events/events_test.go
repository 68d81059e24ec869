package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dukex/stepledger/pkg/events"
	"github.com/dukex/stepledger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStepResultRecorded(t *testing.T) {
	result := models.NewWorkflowStepResult()
	result.SetStartedAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	result.SetCompletedAt(time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC))
	result.SetStepResult(models.StepResultFail)
	result.AddStepError("exit status 2")
	result.AddStepWarning("slow")
	result.AddStepWarning("slower")

	record := &models.StepRecord{RunID: "run-1", StepName: "simulate", Result: result}

	event := events.NewStepResultRecorded("evt-1", record)

	assert.Equal(t, events.StepResultRecordedEvent, event.GetType())
	assert.Equal(t, events.StepResultRecordedEvent, event.Type)
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "simulate", event.StepName)
	assert.Equal(t, "Fail", event.StepResult)
	assert.True(t, event.Complete)
	assert.Equal(t, 1, event.ErrorCount)
	assert.Equal(t, 2, event.WarningCount)

	// The event carries its own copy of the result.
	result.AddStepError("later")
	assert.Len(t, event.Result.StepErrors(), 1)
}

func TestStepResultRecorded_JSON(t *testing.T) {
	result := models.NewWorkflowStepResult()
	result.SetInitialCondition("warm")

	event := events.NewStepResultRecorded("evt-2", &models.StepRecord{RunID: "run-2", StepName: "a", Result: result})

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"initial_condition":"warm"`)
	assert.NotContains(t, string(payload), `"step_result"`)

	var decoded events.StepResultRecorded
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, "run-2", decoded.RunID)
	assert.False(t, decoded.Complete)
	require.NotNil(t, decoded.Result)

	condition, ok := decoded.Result.InitialCondition()
	assert.True(t, ok)
	assert.Equal(t, "warm", condition)
}

func TestNewStepResultDeleted(t *testing.T) {
	event := events.NewStepResultDeleted("evt-3", "run-3", "cleanup")

	assert.Equal(t, events.StepResultDeletedEvent, event.GetType())
	assert.Equal(t, "run-3", event.RunID)
	assert.Equal(t, "cleanup", event.StepName)
	assert.False(t, event.Timestamp.IsZero())
}
