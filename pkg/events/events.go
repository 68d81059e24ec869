// Package events defines event types and structures for step result lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/stepledger/pkg/models"
)

type EventType string

// Topic carries every step result event; messages are keyed by run ID.
const Topic = "stepledger.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	StepResultRecordedEvent EventType = "step.result.recorded"
	StepResultDeletedEvent  EventType = "step.result.deleted"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	StepName  string         `json:"step_name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// StepResultRecorded is published after a step result has been stored.
// Result holds the stored result in its wire format.
type StepResultRecorded struct {
	BaseEvent

	StepResult   string                     `json:"step_result,omitempty"`
	Complete     bool                       `json:"complete"`
	ErrorCount   int                        `json:"error_count"`
	WarningCount int                        `json:"warning_count"`
	Result       *models.WorkflowStepResult `json:"result"`
}

func (e StepResultRecorded) GetType() EventType {
	return StepResultRecordedEvent
}

type StepResultDeleted struct {
	BaseEvent
}

func (e StepResultDeleted) GetType() EventType {
	return StepResultDeletedEvent
}

// NewStepResultRecorded summarises record into a recorded event.
func NewStepResultRecorded(id string, record *models.StepRecord) StepResultRecorded {
	event := StepResultRecorded{
		BaseEvent: BaseEvent{
			ID:        id,
			Type:      StepResultRecordedEvent,
			Timestamp: time.Now().UTC(),
			RunID:     record.RunID,
			StepName:  record.StepName,
		},
		Complete:     record.Result.Complete(),
		ErrorCount:   len(record.Result.StepErrors()),
		WarningCount: len(record.Result.StepWarnings()),
		Result:       record.Result.Clone(),
	}

	if stepResult, ok := record.Result.StepResult(); ok {
		event.StepResult = stepResult.String()
	}

	return event
}

func NewStepResultDeleted(id, runID, stepName string) StepResultDeleted {
	return StepResultDeleted{
		BaseEvent: BaseEvent{
			ID:        id,
			Type:      StepResultDeletedEvent,
			Timestamp: time.Now().UTC(),
			RunID:     runID,
			StepName:  stepName,
		},
	}
}
