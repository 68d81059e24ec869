package models

import (
	"fmt"
	"strings"
)

// StepResult is the outcome status of a completed workflow step.
type StepResult string

const (
	StepResultSuccess StepResult = "Success"
	StepResultFail    StepResult = "Fail"
	StepResultSkip    StepResult = "Skip"
	StepResultNA      StepResult = "NA"
)

var stepResults = []StepResult{StepResultSuccess, StepResultFail, StepResultSkip, StepResultNA}

// ParseStepResult returns the StepResult whose name matches s, ignoring case.
func ParseStepResult(s string) (StepResult, error) {
	for _, r := range stepResults {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownStepResult, s)
}

// StepResults lists every known StepResult in declaration order.
func StepResults() []StepResult {
	out := make([]StepResult, len(stepResults))
	copy(out, stepResults)

	return out
}

func (r StepResult) String() string {
	return string(r)
}
