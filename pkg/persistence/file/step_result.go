package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/persistence"
)

const runsDir = "runs"

// StepResultRepository stores each record as root/runs/<runID>/<stepName>.json.
type StepResultRepository struct {
	root string
	mu   sync.RWMutex
}

func NewStepResultRepository(root string) *StepResultRepository {
	return &StepResultRepository{root: root}
}

func (r *StepResultRepository) Save(_ context.Context, record *models.StepRecord) error {
	if err := persistence.ValidateKeys("Save", record.RunID, record.StepName, true); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return persistence.NewStepResultError("Save", record.RunID, record.StepName, fmt.Errorf("failed to marshal step record: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	runDir := filepath.Join(r.root, runsDir, record.RunID)

	err = os.MkdirAll(runDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	// Write to a temp file first so readers never observe a partial record.
	tmp, err := os.CreateTemp(runDir, record.StepName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write step record: %w", err)
	}

	err = os.Rename(tmp.Name(), r.recordPath(record.RunID, record.StepName))
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to store step record: %w", err)
	}

	return nil
}

func (r *StepResultRepository) Get(_ context.Context, runID, stepName string) (*models.StepRecord, error) {
	if err := persistence.ValidateKeys("Get", runID, stepName, true); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(runID, stepName)
}

func (r *StepResultRepository) ListByRun(_ context.Context, runID string) ([]*models.StepRecord, error) {
	if err := persistence.ValidateKeys("ListByRun", runID, "", false); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	root := os.DirFS(filepath.Join(r.root, runsDir, runID))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list step files: %w", err)
	}

	records := make([]*models.StepRecord, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		stepName := strings.TrimSuffix(file, ".json")

		record, err := r.read(runID, stepName)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	persistence.SortRecords(records)

	return records, nil
}

func (r *StepResultRepository) ListRuns(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(r.root, runsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}

		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		steps, err := fs.Glob(os.DirFS(filepath.Join(r.root, runsDir, entry.Name())), "*.json")
		if err != nil || len(steps) == 0 {
			continue
		}

		runs = append(runs, entry.Name())
	}

	sort.Strings(runs)

	return runs, nil
}

func (r *StepResultRepository) Delete(_ context.Context, runID, stepName string) error {
	if err := persistence.ValidateKeys("Delete", runID, stepName, true); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.recordPath(runID, stepName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewStepResultError("Delete", runID, stepName, persistence.ErrStepResultNotFound)
		}

		return fmt.Errorf("failed to delete step record: %w", err)
	}

	// Drop the run directory once its last step is gone.
	runDir := filepath.Join(r.root, runsDir, runID)
	if remaining, _ := os.ReadDir(runDir); len(remaining) == 0 {
		_ = os.Remove(runDir)
	}

	return nil
}

func (r *StepResultRepository) recordPath(runID, stepName string) string {
	return filepath.Join(r.root, runsDir, runID, stepName+".json")
}

func (r *StepResultRepository) read(runID, stepName string) (*models.StepRecord, error) {
	data, err := os.ReadFile(r.recordPath(runID, stepName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStepResultError("Get", runID, stepName, persistence.ErrStepResultNotFound)
		}

		return nil, fmt.Errorf("failed to read step record: %w", err)
	}

	var record models.StepRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, persistence.NewStepResultError("Get", runID, stepName, fmt.Errorf("%w: %w", persistence.ErrCorruptRecord, err))
	}

	return &record, nil
}
