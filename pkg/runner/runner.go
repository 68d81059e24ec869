// Package runner executes steps and fills in their WorkflowStepResult.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepledger/pkg/log"
	"github.com/dukex/stepledger/pkg/models"
)

// ErrSkipStep, returned (possibly wrapped) from Step.Execute, marks the step
// as skipped rather than failed.
var ErrSkipStep = errors.New("step skipped")

// Step is a unit of work that reports into a result while it runs. Errors
// and warnings added to the result are kept; a step that records any error
// fails even if Execute returns nil.
type Step interface {
	Name() string
	Execute(ctx context.Context, result *models.WorkflowStepResult) error
}

type funcStep struct {
	name string
	fn   func(ctx context.Context, result *models.WorkflowStepResult) error
}

// NewFuncStep adapts a function to Step.
func NewFuncStep(name string, fn func(ctx context.Context, result *models.WorkflowStepResult) error) Step {
	return &funcStep{name: name, fn: fn}
}

func (s *funcStep) Name() string {
	return s.name
}

func (s *funcStep) Execute(ctx context.Context, result *models.WorkflowStepResult) error {
	return s.fn(ctx, result)
}

type Runner struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes step and returns its completed result. The result is always
// complete and carries a StepResult: Skip when the step returned
// ErrSkipStep, Fail when it returned another error, recorded a step error or
// panicked, Success otherwise.
func (r *Runner) Run(ctx context.Context, step Step) *models.WorkflowStepResult {
	result := models.NewWorkflowStepResult()
	result.SetStartedAt(r.now())

	r.logger.InfoContext(ctx, "Running step", "step_name", step.Name())

	ctx = log.NewContext(ctx, r.logger.With("step_name", step.Name()))

	err := r.execute(ctx, step, result)

	switch {
	case errors.Is(err, ErrSkipStep):
		result.AddStepInfo(err.Error())
		result.SetStepResult(models.StepResultSkip)
	case err != nil:
		result.AddStepError(err.Error())
		result.SetStepResult(models.StepResultFail)
	case len(result.StepErrors()) > 0:
		result.SetStepResult(models.StepResultFail)
	default:
		result.SetStepResult(models.StepResultSuccess)
	}

	result.SetCompletedAt(r.now())

	stepResult, _ := result.StepResult()
	r.logger.InfoContext(ctx, "Step finished",
		"step_name", step.Name(),
		"step_result", stepResult,
		"errors", len(result.StepErrors()),
		"warnings", len(result.StepWarnings()))

	return result
}

func (r *Runner) execute(ctx context.Context, step Step, result *models.WorkflowStepResult) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.ErrorContext(ctx, "Step panicked", "step_name", step.Name(), "panic", recovered)
			err = fmt.Errorf("step panicked: %v", recovered)
		}
	}()

	return step.Execute(ctx, result)
}
