package main

import (
	"context"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/dukex/stepledger/pkg/config"
	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/persistence/file"
	"github.com/dukex/stepledger/pkg/runner"
	"github.com/dukex/stepledger/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, steps []config.StepConfig) (*Worker, *services.StepResults) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	stepResults := services.NewStepResults(logger, file.NewPersistence(t.TempDir()), nil, nil)

	worker := NewWorker(logger, runner.NewRunner(logger), stepResults, steps)

	ids := 0
	worker.newRunID = func() string {
		ids++

		return "run-" + strconv.Itoa(ids)
	}

	return worker, stepResults
}

func TestWorker_RunStep(t *testing.T) {
	worker, stepResults := newTestWorker(t, nil)

	record, err := worker.RunStep(t.Context(), config.StepConfig{
		Name:     "greet",
		Schedule: "@hourly",
		Command:  []string{"sh", "-c", "echo hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", record.RunID)

	stored, err := stepResults.Fetch(t.Context(), "run-1", "greet")
	require.NoError(t, err)

	stepResult, ok := stored.Result.StepResult()
	require.True(t, ok)
	assert.Equal(t, models.StepResultSuccess, stepResult)

	stdout, _ := stored.Result.StdOut()
	assert.Equal(t, "hi\n", stdout)
}

func TestWorker_RunStep_FixedRunID(t *testing.T) {
	worker, _ := newTestWorker(t, nil)

	record, err := worker.RunStep(t.Context(), config.StepConfig{
		Name:     "fail",
		Schedule: "@hourly",
		Command:  []string{"sh", "-c", "exit 2"},
		RunID:    "nightly",
	})
	require.NoError(t, err)
	assert.Equal(t, "nightly", record.RunID)

	stepResult, _ := record.Result.StepResult()
	assert.Equal(t, models.StepResultFail, stepResult)
}

func TestWorker_RunAll(t *testing.T) {
	steps := []config.StepConfig{
		{Name: "one", Schedule: "@hourly", Command: []string{"true"}},
		{Name: "two", Schedule: "@hourly", Command: []string{"false"}},
		{Name: "pinned", Schedule: "@hourly", Command: []string{"true"}, RunID: "pinned-run"},
	}

	worker, stepResults := newTestWorker(t, steps)

	records, err := worker.RunAll(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 3)

	run, err := stepResults.ListRun(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Len(t, run, 2)

	assert.Equal(t, "pinned-run", records[2].RunID)
}

func TestWorker_Schedule(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the scheduler")
	}

	steps := []config.StepConfig{
		{Name: "tick", Schedule: "@every 1s", Command: []string{"true"}, RunID: "ticks"},
	}

	worker, stepResults := newTestWorker(t, steps)

	require.NoError(t, worker.Start(t.Context()))

	assert.Eventually(t, func() bool {
		_, err := stepResults.Fetch(context.Background(), "ticks", "tick")

		return err == nil
	}, 5*time.Second, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, worker.Stop(ctx))
}

func TestWorker_Start_InvalidSchedule(t *testing.T) {
	worker, _ := newTestWorker(t, []config.StepConfig{
		{Name: "bad", Schedule: "not a schedule", Command: []string{"true"}},
	})

	require.Error(t, worker.Start(t.Context()))
	require.NoError(t, worker.Stop(t.Context()))
}
