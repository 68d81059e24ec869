package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepValue(t *testing.T, result *models.WorkflowStepResult, name string) models.WorkflowStepValue {
	t.Helper()

	for _, value := range result.StepValues() {
		if value.Name() == name {
			return value
		}
	}

	t.Fatalf("step value %q not recorded", name)

	return models.WorkflowStepValue{}
}

func TestCommandStep_Success(t *testing.T) {
	dir := t.TempDir()

	step := &CommandStep{
		StepName:         "build",
		Command:          []string{"sh", "-c", "echo built > out.txt; echo hello; echo careful >&2"},
		Dir:              dir,
		Outputs:          []string{"out.txt", "missing.txt"},
		InitialCondition: "clean",
		FinalCondition:   "built",
	}

	result := newTestRunner().Run(context.Background(), step)

	stepResult, _ := result.StepResult()
	assert.Equal(t, models.StepResultSuccess, stepResult)

	stdout, _ := result.StdOut()
	stderr, _ := result.StdErr()
	assert.Equal(t, "hello\n", stdout)
	assert.Equal(t, "careful\n", stderr)

	exitCode := stepValue(t, result, "exit_code")
	assert.Equal(t, models.VariantTypeInteger, exitCode.VariantType())
	assert.Equal(t, 0, exitCode.ValueAsInteger())

	elapsed := stepValue(t, result, "elapsed")
	assert.Equal(t, models.VariantTypeDouble, elapsed.VariantType())
	units, ok := elapsed.Units()
	require.True(t, ok)
	assert.Equal(t, "s", units)

	assert.Equal(t, "sh -c echo built > out.txt; echo hello; echo careful >&2",
		stepValue(t, result, "command").ValueAsString())

	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(absDir, "out.txt")}, result.StepFiles())
	assert.Equal(t, []string{"output not produced: missing.txt"}, result.StepWarnings())

	initial, _ := result.InitialCondition()
	final, _ := result.FinalCondition()
	assert.Equal(t, "clean", initial)
	assert.Equal(t, "built", final)
}

func TestCommandStep_NonZeroExit(t *testing.T) {
	step := &CommandStep{
		StepName:       "test",
		Command:        []string{"sh", "-c", "echo failing >&2; exit 3"},
		FinalCondition: "tested",
	}

	result := newTestRunner().Run(context.Background(), step)

	stepResult, _ := result.StepResult()
	assert.Equal(t, models.StepResultFail, stepResult)
	assert.Equal(t, []string{"command exited with status 3"}, result.StepErrors())
	assert.Equal(t, 3, stepValue(t, result, "exit_code").ValueAsInteger())

	_, ok := result.FinalCondition()
	assert.False(t, ok)
}

func TestCommandStep_Environment(t *testing.T) {
	step := &CommandStep{
		StepName: "env",
		Command:  []string{"sh", "-c", "printf %s \"$STEP_TARGET\""},
		Env:      []string{"STEP_TARGET=staging"},
	}

	result := newTestRunner().Run(context.Background(), step)

	stdout, _ := result.StdOut()
	assert.Equal(t, "staging", stdout)
}

func TestCommandStep_Timeout(t *testing.T) {
	step := &CommandStep{
		StepName: "sleep",
		Command:  []string{"sleep", "5"},
		Timeout:  100 * time.Millisecond,
	}

	result := newTestRunner().Run(context.Background(), step)

	stepResult, _ := result.StepResult()
	assert.Equal(t, models.StepResultFail, stepResult)
	require.Len(t, result.StepErrors(), 1)
	assert.Contains(t, result.StepErrors()[0], "command interrupted")
}

func TestCommandStep_NotFound(t *testing.T) {
	step := &CommandStep{
		StepName: "ghost",
		Command:  []string{filepath.Join(os.TempDir(), "stepledger-no-such-binary")},
	}

	result := newTestRunner().Run(context.Background(), step)

	stepResult, _ := result.StepResult()
	assert.Equal(t, models.StepResultFail, stepResult)
	require.Len(t, result.StepErrors(), 1)
	assert.Contains(t, result.StepErrors()[0], "failed to run")
}

func TestCommandStep_EmptyCommand(t *testing.T) {
	result := newTestRunner().Run(context.Background(), &CommandStep{StepName: "empty"})

	stepResult, _ := result.StepResult()
	assert.Equal(t, models.StepResultFail, stepResult)
	assert.Equal(t, []string{ErrEmptyCommand.Error()}, result.StepErrors())
}
