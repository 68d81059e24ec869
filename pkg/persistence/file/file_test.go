package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/dukex/stepledger/pkg/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	p := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", p.root)

	p = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", p.root)
}

func TestPersistence_Close(t *testing.T) {
	p := NewPersistence("./test-data")
	err := p.Close(t.Context())
	assert.NoError(t, err)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	require.NoError(t, p.HealthCheck(t.Context()))

	p = NewPersistence(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, p.HealthCheck(t.Context()), os.ErrNotExist)

	notDir := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o600))

	p = NewPersistence(notDir)
	assert.ErrorIs(t, p.HealthCheck(t.Context()), errRootNotDirectory)
}

func TestStepResultRepository(t *testing.T) {
	p := NewPersistence(t.TempDir())

	persistencetest.RunRepositoryTests(t, p.StepResultRepository())
}

func TestStepResultRepository_FileLayout(t *testing.T) {
	testDir := t.TempDir()
	repo := NewStepResultRepository(testDir)

	record := persistencetest.NewRecord("run-1", "simulate", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, repo.Save(t.Context(), record))

	filePath := filepath.Join(testDir, "runs", "run-1", "simulate.json")
	assert.FileExists(t, filePath)

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "run-1"`)
	assert.Contains(t, string(data), `"step_result": "Success"`)

	leftovers, err := filepath.Glob(filepath.Join(testDir, "runs", "run-1", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStepResultRepository_CorruptRecord(t *testing.T) {
	testDir := t.TempDir()
	repo := NewStepResultRepository(testDir)

	runDir := filepath.Join(testDir, "runs", "run-1")
	require.NoError(t, os.MkdirAll(runDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "bad.json"), []byte(`{"run_id":"run-1","result":{"step_result":"Maybe"}}`), 0o600))

	_, err := repo.Get(t.Context(), "run-1", "bad")
	assert.ErrorIs(t, err, persistence.ErrCorruptRecord)
}

func TestStepResultRepository_ListRunsOnEmptyRoot(t *testing.T) {
	repo := NewStepResultRepository(t.TempDir())

	runs, err := repo.ListRuns(t.Context())
	require.NoError(t, err)
	assert.Empty(t, runs)
}
