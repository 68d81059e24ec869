package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/dukex/stepledger/pkg/jsontree"
)

// WorkflowStepResult records the execution outcome of one workflow step.
//
// A result is built incrementally by whoever runs the step and is not safe
// for concurrent mutation. A step counts as complete once CompletedAt is set.
type WorkflowStepResult struct {
	startedAt        *time.Time
	completedAt      *time.Time
	stepResult       *StepResult
	initialCondition *string
	finalCondition   *string
	stepErrors       []string
	stepWarnings     []string
	stepInfo         []string
	stepValues       []WorkflowStepValue
	stepFiles        []string
	stdOut           *string
	stdErr           *string
}

// NewWorkflowStepResult returns an empty result.
func NewWorkflowStepResult() *WorkflowStepResult {
	return &WorkflowStepResult{}
}

// Clone returns a deep copy; mutating either afterwards does not affect the
// other.
func (r *WorkflowStepResult) Clone() *WorkflowStepResult {
	c := &WorkflowStepResult{
		stepErrors:   slices.Clone(r.stepErrors),
		stepWarnings: slices.Clone(r.stepWarnings),
		stepInfo:     slices.Clone(r.stepInfo),
		stepValues:   slices.Clone(r.stepValues),
		stepFiles:    slices.Clone(r.stepFiles),
	}

	if t, ok := r.StartedAt(); ok {
		c.SetStartedAt(t)
	}

	if t, ok := r.CompletedAt(); ok {
		c.SetCompletedAt(t)
	}

	if s, ok := r.StepResult(); ok {
		c.SetStepResult(s)
	}

	if s, ok := r.InitialCondition(); ok {
		c.SetInitialCondition(s)
	}

	if s, ok := r.FinalCondition(); ok {
		c.SetFinalCondition(s)
	}

	if s, ok := r.StdOut(); ok {
		c.SetStdOut(s)
	}

	if s, ok := r.StdErr(); ok {
		c.SetStdErr(s)
	}

	return c
}

// CodecReport counts what the codec silently dropped.
type CodecReport struct {
	// DroppedStepValues counts step values omitted because they could not be
	// encoded or decoded.
	DroppedStepValues int
	// SkippedTimestamps lists timestamp fields present in the input that were
	// ignored because they were not valid ISO-8601.
	SkippedTimestamps []string
	// SkippedFields lists optional text fields and list elements that were
	// ignored because they held a number, boolean, object or array.
	SkippedFields []string
}

// Clean reports whether nothing was dropped.
func (r CodecReport) Clean() bool {
	return r.DroppedStepValues == 0 && len(r.SkippedTimestamps) == 0 && len(r.SkippedFields) == 0
}

func (r *WorkflowStepResult) StartedAt() (time.Time, bool) {
	return optionalTime(r.startedAt)
}

func (r *WorkflowStepResult) CompletedAt() (time.Time, bool) {
	return optionalTime(r.completedAt)
}

// Complete reports whether CompletedAt is set.
func (r *WorkflowStepResult) Complete() bool {
	return r.completedAt != nil
}

func (r *WorkflowStepResult) StepResult() (StepResult, bool) {
	if r.stepResult == nil {
		return "", false
	}

	return *r.stepResult, true
}

func (r *WorkflowStepResult) InitialCondition() (string, bool) {
	return optionalString(r.initialCondition)
}

func (r *WorkflowStepResult) FinalCondition() (string, bool) {
	return optionalString(r.finalCondition)
}

func (r *WorkflowStepResult) StepErrors() []string {
	return slices.Clone(r.stepErrors)
}

func (r *WorkflowStepResult) StepWarnings() []string {
	return slices.Clone(r.stepWarnings)
}

func (r *WorkflowStepResult) StepInfo() []string {
	return slices.Clone(r.stepInfo)
}

func (r *WorkflowStepResult) StepValues() []WorkflowStepValue {
	return slices.Clone(r.stepValues)
}

// StepFiles returns the paths of files produced by the step.
func (r *WorkflowStepResult) StepFiles() []string {
	return slices.Clone(r.stepFiles)
}

func (r *WorkflowStepResult) StdOut() (string, bool) {
	return optionalString(r.stdOut)
}

func (r *WorkflowStepResult) StdErr() (string, bool) {
	return optionalString(r.stdErr)
}

func (r *WorkflowStepResult) SetStartedAt(t time.Time) {
	r.startedAt = &t
}

func (r *WorkflowStepResult) ResetStartedAt() {
	r.startedAt = nil
}

func (r *WorkflowStepResult) SetCompletedAt(t time.Time) {
	r.completedAt = &t
}

func (r *WorkflowStepResult) ResetCompletedAt() {
	r.completedAt = nil
}

func (r *WorkflowStepResult) SetStepResult(result StepResult) {
	r.stepResult = &result
}

func (r *WorkflowStepResult) ResetStepResult() {
	r.stepResult = nil
}

func (r *WorkflowStepResult) SetInitialCondition(condition string) {
	r.initialCondition = &condition
}

func (r *WorkflowStepResult) ResetInitialCondition() {
	r.initialCondition = nil
}

func (r *WorkflowStepResult) SetFinalCondition(condition string) {
	r.finalCondition = &condition
}

func (r *WorkflowStepResult) ResetFinalCondition() {
	r.finalCondition = nil
}

func (r *WorkflowStepResult) AddStepError(msg string) {
	r.stepErrors = append(r.stepErrors, msg)
}

func (r *WorkflowStepResult) ResetStepErrors() {
	r.stepErrors = nil
}

func (r *WorkflowStepResult) AddStepWarning(msg string) {
	r.stepWarnings = append(r.stepWarnings, msg)
}

func (r *WorkflowStepResult) ResetStepWarnings() {
	r.stepWarnings = nil
}

func (r *WorkflowStepResult) AddStepInfo(msg string) {
	r.stepInfo = append(r.stepInfo, msg)
}

func (r *WorkflowStepResult) ResetStepInfo() {
	r.stepInfo = nil
}

func (r *WorkflowStepResult) AddStepValue(value WorkflowStepValue) {
	r.stepValues = append(r.stepValues, value)
}

func (r *WorkflowStepResult) ResetStepValues() {
	r.stepValues = nil
}

func (r *WorkflowStepResult) AddStepFile(path string) {
	r.stepFiles = append(r.stepFiles, path)
}

func (r *WorkflowStepResult) ResetStepFiles() {
	r.stepFiles = nil
}

func (r *WorkflowStepResult) SetStdOut(out string) {
	r.stdOut = &out
}

func (r *WorkflowStepResult) ResetStdOut() {
	r.stdOut = nil
}

func (r *WorkflowStepResult) SetStdErr(out string) {
	r.stdErr = &out
}

func (r *WorkflowStepResult) ResetStdErr() {
	r.stdErr = nil
}

// String renders the result in its JSON wire format.
func (r *WorkflowStepResult) String() string {
	out, _ := r.StringWithReport()

	return out
}

// StringWithReport renders the result and reports step values that were
// dropped because their own encoding could not be read back.
func (r *WorkflowStepResult) StringWithReport() (string, CodecReport) {
	var report CodecReport

	obj := map[string]any{}
	complete := r.Complete()

	if r.startedAt != nil {
		obj["started_at"] = FormatISO8601(*r.startedAt)
	}

	if r.completedAt != nil {
		obj["completed_at"] = FormatISO8601(*r.completedAt)
	}

	// An unset status on a complete result is omitted rather than invented.
	if complete && r.stepResult != nil {
		obj["step_result"] = r.stepResult.String()
	}

	if r.initialCondition != nil {
		obj["initial_condition"] = *r.initialCondition
	}

	if r.finalCondition != nil {
		obj["final_condition"] = *r.finalCondition
	}

	if complete || len(r.stepErrors) > 0 {
		obj["step_errors"] = stringArray(r.stepErrors)
	}

	if complete || len(r.stepWarnings) > 0 {
		obj["step_warnings"] = stringArray(r.stepWarnings)
	}

	if complete || len(r.stepInfo) > 0 {
		obj["step_info"] = stringArray(r.stepInfo)
	}

	if complete || len(r.stepValues) > 0 {
		values := make([]any, 0, len(r.stepValues))

		for _, value := range r.stepValues {
			if !value.Finite() {
				report.DroppedStepValues++

				continue
			}

			node, err := jsontree.Parse(value.String())
			if err != nil {
				report.DroppedStepValues++

				continue
			}

			values = append(values, node)
		}

		obj["step_values"] = values
	}

	if complete || len(r.stepFiles) > 0 {
		obj["step_files"] = stringArray(r.stepFiles)
	}

	if r.stdOut != nil {
		obj["stdout"] = *r.stdOut
	}

	if r.stdErr != nil {
		obj["stderr"] = *r.stdErr
	}

	out, err := jsontree.Pretty(obj)
	if err != nil {
		return "", report
	}

	return out, report
}

// MarshalJSON implements json.Marshaler using the wire format.
func (r *WorkflowStepResult) MarshalJSON() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler using the wire format.
func (r *WorkflowStepResult) UnmarshalJSON(data []byte) error {
	parsed, err := ParseWorkflowStepResult(string(data))
	if err != nil {
		return err
	}

	*r = *parsed

	return nil
}

// ParseWorkflowStepResult decodes a result from its JSON wire format.
// Malformed optional fields, list elements and step values are skipped and
// their siblings kept. Only input that is not a JSON object or an unknown
// step_result name fails the parse. Every failure wraps ErrParse.
func ParseWorkflowStepResult(s string) (*WorkflowStepResult, error) {
	result, _, err := ParseWorkflowStepResultWithReport(s)

	return result, err
}

// ParseWorkflowStepResultWithReport is ParseWorkflowStepResult that also
// reports what was skipped.
func ParseWorkflowStepResultWithReport(s string) (*WorkflowStepResult, CodecReport, error) {
	var report CodecReport

	obj, err := jsontree.ParseObject(s)
	if err != nil {
		return nil, report, newParseError(err)
	}

	result, err := decodeStepResult(obj, &report)
	if err != nil {
		return nil, CodecReport{}, newParseError(err)
	}

	return result, report, nil
}

func decodeStepResult(obj map[string]any, report *CodecReport) (*WorkflowStepResult, error) {
	result := NewWorkflowStepResult()

	for _, field := range []struct {
		key string
		set func(time.Time)
	}{
		{key: "started_at", set: result.SetStartedAt},
		{key: "completed_at", set: result.SetCompletedAt},
	} {
		node, present := obj[field.key]
		if !present {
			continue
		}

		raw, _ := jsontree.Text(node)

		t, err := ParseISO8601(raw)
		if err != nil {
			report.SkippedTimestamps = append(report.SkippedTimestamps, field.key)

			continue
		}

		field.set(t)
	}

	if node, present := obj["step_result"]; present {
		raw, ok := jsontree.Text(node)
		if !ok {
			report.SkippedFields = append(report.SkippedFields, "step_result")
		} else {
			stepResult, err := ParseStepResult(raw)
			if err != nil {
				return nil, &FieldDecodeError{Field: "step_result", Reason: "invalid value", Err: err}
			}

			result.SetStepResult(stepResult)
		}
	}

	for _, field := range []struct {
		key string
		set func(string)
	}{
		{key: "initial_condition", set: result.SetInitialCondition},
		{key: "final_condition", set: result.SetFinalCondition},
		{key: "stdout", set: result.SetStdOut},
		{key: "stderr", set: result.SetStdErr},
	} {
		node, present := obj[field.key]
		if !present {
			continue
		}

		value, ok := jsontree.Text(node)
		if !ok {
			report.SkippedFields = append(report.SkippedFields, field.key)

			continue
		}

		field.set(value)
	}

	for _, field := range []struct {
		key string
		add func(string)
	}{
		{key: "step_errors", add: result.AddStepError},
		{key: "step_warnings", add: result.AddStepWarning},
		{key: "step_info", add: result.AddStepInfo},
		{key: "step_files", add: result.AddStepFile},
	} {
		for i, node := range jsontree.ArrayOrEmpty(obj, field.key) {
			s, ok := jsontree.Text(node)
			if !ok {
				report.SkippedFields = append(report.SkippedFields, fmt.Sprintf("%s[%d]", field.key, i))

				continue
			}

			field.add(s)
		}
	}

	for _, node := range jsontree.ArrayOrEmpty(obj, "step_values") {
		value, err := decodeStepValueNode(node)
		if err != nil {
			report.DroppedStepValues++

			continue
		}

		result.AddStepValue(value)
	}

	return result, nil
}

func stringArray(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}

	return out
}

func optionalTime(t *time.Time) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}

	return *t, true
}

func optionalString(s *string) (string, bool) {
	if s == nil {
		return "", false
	}

	return *s, true
}
