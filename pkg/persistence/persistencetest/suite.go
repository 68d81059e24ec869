// Package persistencetest holds behaviour checks shared by every
// StepResultRepository backend.
package persistencetest

import (
	"testing"
	"time"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// NewRecord builds a completed record with a couple of step values.
func NewRecord(runID, stepName string, recordedAt time.Time) *models.StepRecord {
	result := models.NewWorkflowStepResult()
	result.SetStartedAt(recordedAt.Add(-2 * time.Second))
	result.SetCompletedAt(recordedAt)
	result.SetStepResult(models.StepResultSuccess)
	result.AddStepInfo("processed 3 zones")
	result.AddStepWarning("zone 2 has no windows")

	elapsed := models.NewDoubleStepValue("elapsed", 2.0)
	elapsed.SetUnits("s")
	result.AddStepValue(elapsed)
	result.AddStepValue(models.NewIntegerStepValue("zones", 3))
	result.AddStepFile("/tmp/out/report.html")
	result.SetStdOut("ok\n")

	return &models.StepRecord{
		RunID:      runID,
		StepName:   stepName,
		Result:     result,
		RecordedAt: recordedAt,
	}
}

// RunRepositoryTests exercises the StepResultRepository contract against repo,
// which must start out empty.
func RunRepositoryTests(t *testing.T, repo persistence.StepResultRepository) {
	t.Helper()

	t.Run("save and get preserve the wire format", func(t *testing.T) {
		record := NewRecord("run-roundtrip", "measure", baseTime)

		require.NoError(t, repo.Save(t.Context(), record))

		got, err := repo.Get(t.Context(), "run-roundtrip", "measure")
		require.NoError(t, err)

		assert.Equal(t, "run-roundtrip", got.RunID)
		assert.Equal(t, "measure", got.StepName)
		assert.True(t, record.RecordedAt.Equal(got.RecordedAt))
		assert.Equal(t, record.Result.String(), got.Result.String())
	})

	t.Run("save replaces an existing record", func(t *testing.T) {
		first := NewRecord("run-replace", "step", baseTime)
		require.NoError(t, repo.Save(t.Context(), first))

		second := NewRecord("run-replace", "step", baseTime.Add(time.Hour))
		second.Result.SetStepResult(models.StepResultFail)
		second.Result.AddStepError("boom")
		require.NoError(t, repo.Save(t.Context(), second))

		got, err := repo.Get(t.Context(), "run-replace", "step")
		require.NoError(t, err)

		stepResult, ok := got.Result.StepResult()
		require.True(t, ok)
		assert.Equal(t, models.StepResultFail, stepResult)
		assert.Equal(t, []string{"boom"}, got.Result.StepErrors())

		records, err := repo.ListByRun(t.Context(), "run-replace")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("get missing record", func(t *testing.T) {
		_, err := repo.Get(t.Context(), "run-missing", "nothing")
		assert.True(t, persistence.IsStepResultNotFound(err))
	})

	t.Run("list by run orders by recorded time then name", func(t *testing.T) {
		require.NoError(t, repo.Save(t.Context(), NewRecord("run-list", "zeta", baseTime)))
		require.NoError(t, repo.Save(t.Context(), NewRecord("run-list", "alpha", baseTime.Add(time.Minute))))
		require.NoError(t, repo.Save(t.Context(), NewRecord("run-list", "beta", baseTime)))
		require.NoError(t, repo.Save(t.Context(), NewRecord("run-other", "alpha", baseTime)))

		records, err := repo.ListByRun(t.Context(), "run-list")
		require.NoError(t, err)
		require.Len(t, records, 3)

		names := []string{records[0].StepName, records[1].StepName, records[2].StepName}
		assert.Equal(t, []string{"beta", "zeta", "alpha"}, names)
	})

	t.Run("list by unknown run is empty", func(t *testing.T) {
		records, err := repo.ListByRun(t.Context(), "run-unknown")
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("list runs is sorted and distinct", func(t *testing.T) {
		runs, err := repo.ListRuns(t.Context())
		require.NoError(t, err)

		assert.IsNonDecreasing(t, runs)
		assert.Contains(t, runs, "run-list")
		assert.Contains(t, runs, "run-other")

		seen := map[string]bool{}
		for _, run := range runs {
			assert.False(t, seen[run], "duplicate run %s", run)
			seen[run] = true
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Save(t.Context(), NewRecord("run-delete", "only", baseTime)))

		require.NoError(t, repo.Delete(t.Context(), "run-delete", "only"))

		_, err := repo.Get(t.Context(), "run-delete", "only")
		assert.True(t, persistence.IsStepResultNotFound(err))

		err = repo.Delete(t.Context(), "run-delete", "only")
		assert.True(t, persistence.IsStepResultNotFound(err))

		runs, err := repo.ListRuns(t.Context())
		require.NoError(t, err)
		assert.NotContains(t, runs, "run-delete")
	})

	t.Run("rejects unsafe keys", func(t *testing.T) {
		err := repo.Save(t.Context(), NewRecord("../escape", "step", baseTime))
		assert.True(t, persistence.IsInvalidKey(err))

		_, err = repo.Get(t.Context(), "run", "a/b")
		assert.True(t, persistence.IsInvalidKey(err))

		err = repo.Delete(t.Context(), "", "step")
		assert.True(t, persistence.IsInvalidKey(err))
	})

	t.Run("incomplete results keep optional fields absent", func(t *testing.T) {
		result := models.NewWorkflowStepResult()
		result.SetStartedAt(baseTime)
		result.SetInitialCondition("cold start")

		record := &models.StepRecord{RunID: "run-partial", StepName: "running", Result: result, RecordedAt: baseTime}
		require.NoError(t, repo.Save(t.Context(), record))

		got, err := repo.Get(t.Context(), "run-partial", "running")
		require.NoError(t, err)

		assert.False(t, got.Result.Complete())
		_, ok := got.Result.StepResult()
		assert.False(t, ok)
		assert.Equal(t, result.String(), got.Result.String())
	})
}
