package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukex/stepledger/pkg/log"
	"github.com/dukex/stepledger/pkg/models"
)

var ErrEmptyCommand = errors.New("command is empty")

// CommandStep runs an external program. It records the step values
// "command" (string), "exit_code" (integer) and "elapsed" (double, seconds),
// captures stdout and stderr, and adds each existing output path as a step
// file. A non-zero exit status is recorded as a step error.
type CommandStep struct {
	StepName string
	Command  []string
	// Dir is the working directory; relative Outputs resolve against it.
	Dir string
	// Env entries (KEY=VALUE) are added to the inherited environment.
	Env     []string
	Outputs []string
	// Timeout of zero means no limit beyond the caller's context.
	Timeout time.Duration

	InitialCondition string
	// FinalCondition is recorded only when the command exits with status 0.
	FinalCondition string
}

func (s *CommandStep) Name() string {
	return s.StepName
}

func (s *CommandStep) Execute(ctx context.Context, result *models.WorkflowStepResult) error {
	if len(s.Command) == 0 || s.Command[0] == "" {
		return ErrEmptyCommand
	}

	if s.InitialCondition != "" {
		result.SetInitialCondition(s.InitialCondition)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	cmd.Dir = s.Dir
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	result.AddStepValue(models.NewStringStepValue("command", strings.Join(s.Command, " ")))

	logger := log.FromContext(ctx)
	logger.DebugContext(ctx, "Executing command", "command", s.Command, "dir", s.Dir)

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	result.SetStdOut(stdout.String())
	result.SetStdErr(stderr.String())

	elapsedValue := models.NewDoubleStepValue("elapsed", elapsed.Seconds())
	elapsedValue.SetDisplayName("Elapsed time")
	elapsedValue.SetUnits("s")
	result.AddStepValue(elapsedValue)

	exitCode := 0

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("failed to run %s: %w", s.Command[0], err)
		}

		exitCode = exitErr.ExitCode()
	}

	logger.DebugContext(ctx, "Command finished", "exit_code", exitCode, "elapsed", elapsed)

	result.AddStepValue(models.NewIntegerStepValue("exit_code", exitCode))

	if ctx.Err() != nil {
		result.AddStepError(fmt.Sprintf("command interrupted: %v", ctx.Err()))
	} else if exitCode != 0 {
		result.AddStepError(fmt.Sprintf("command exited with status %d", exitCode))
	}

	s.collectOutputs(result)

	if exitCode == 0 && ctx.Err() == nil && s.FinalCondition != "" {
		result.SetFinalCondition(s.FinalCondition)
	}

	return nil
}

func (s *CommandStep) collectOutputs(result *models.WorkflowStepResult) {
	for _, output := range s.Outputs {
		path := output
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.Dir, path)
		}

		if _, err := os.Stat(path); err != nil {
			result.AddStepWarning("output not produced: " + output)

			continue
		}

		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}

		result.AddStepFile(path)
	}
}
