// Package web provides HTTP request and response types for the step result API.
package web

import (
	"encoding/json"
	"time"

	"github.com/dukex/stepledger/pkg/models"
)

// StepPath holds the run/step pair taken from the URL.
type StepPath struct {
	RunID    string `validate:"required,max=255,stepkey"`
	StepName string `validate:"required,max=255,stepkey"`
}

// CodecReportResponse reports what the decoder skipped in a recorded document.
type CodecReportResponse struct {
	DroppedStepValues int      `json:"dropped_step_values"`
	SkippedTimestamps []string `json:"skipped_timestamps"`
	SkippedFields     []string `json:"skipped_fields"`
}

// StepRecordResponse represents a stored step result. Result is the
// step result in its wire format.
type StepRecordResponse struct {
	RunID      string               `json:"run_id"`
	StepName   string               `json:"step_name"`
	RecordedAt time.Time            `json:"recorded_at"`
	Complete   bool                 `json:"complete"`
	StepResult string               `json:"step_result,omitempty"`
	Result     json.RawMessage      `json:"result"`
	Report     *CodecReportResponse `json:"report,omitempty"`
}

// RunStepsResponse lists the records of one run.
type RunStepsResponse struct {
	RunID string                `json:"run_id"`
	Steps []*StepRecordResponse `json:"steps"`
}

type RunsResponse struct {
	Runs []string `json:"runs"`
}

// QueryResponse holds the JSONPath matches within one stored step result.
type QueryResponse struct {
	RunID    string `json:"run_id"`
	StepName string `json:"step_name"`
	Query    string `json:"query"`
	Matches  any    `json:"matches"`
}

// StepValueResponse describes a validated step value.
type StepValueResponse struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Units       string          `json:"units,omitempty"`
	Type        string          `json:"type"`
	Canonical   json.RawMessage `json:"canonical"`
}

func newStepRecordResponse(record *models.StepRecord) *StepRecordResponse {
	resp := &StepRecordResponse{
		RunID:      record.RunID,
		StepName:   record.StepName,
		RecordedAt: record.RecordedAt,
		Complete:   record.Result.Complete(),
		Result:     json.RawMessage(record.Result.String()),
	}

	if stepResult, ok := record.Result.StepResult(); ok {
		resp.StepResult = stepResult.String()
	}

	return resp
}

func newCodecReportResponse(report models.CodecReport) *CodecReportResponse {
	return &CodecReportResponse{
		DroppedStepValues: report.DroppedStepValues,
		SkippedTimestamps: orEmpty(report.SkippedTimestamps),
		SkippedFields:     orEmpty(report.SkippedFields),
	}
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}

	return items
}

func newStepValueResponse(value models.WorkflowStepValue) *StepValueResponse {
	units, _ := value.Units()

	return &StepValueResponse{
		Name:        value.Name(),
		DisplayName: value.DisplayName(),
		Units:       units,
		Type:        value.VariantType().String(),
		Canonical:   json.RawMessage(value.String()),
	}
}
