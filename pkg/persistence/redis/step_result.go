package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

// StepResultRepository layout:
//
//	<prefix>:runs                       set of run IDs
//	<prefix>:run:<runID>:steps          set of step names
//	<prefix>:run:<runID>:step:<name>    JSON-encoded StepRecord
type StepResultRepository struct {
	client redis.UniversalClient
	prefix string
}

func NewStepResultRepository(client redis.UniversalClient, prefix string) *StepResultRepository {
	return &StepResultRepository{client: client, prefix: prefix}
}

func (r *StepResultRepository) Save(ctx context.Context, record *models.StepRecord) error {
	if err := persistence.ValidateKeys("Save", record.RunID, record.StepName, true); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return persistence.NewStepResultError("Save", record.RunID, record.StepName, fmt.Errorf("failed to marshal step record: %w", err))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.recordKey(record.RunID, record.StepName), data, 0)
		pipe.SAdd(ctx, r.stepsKey(record.RunID), record.StepName)
		pipe.SAdd(ctx, r.runsKey(), record.RunID)

		return nil
	})
	if err != nil {
		return persistence.NewStepResultError("Save", record.RunID, record.StepName, fmt.Errorf("failed to save step result: %w", err))
	}

	return nil
}

func (r *StepResultRepository) Get(ctx context.Context, runID, stepName string) (*models.StepRecord, error) {
	if err := persistence.ValidateKeys("Get", runID, stepName, true); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, r.recordKey(runID, stepName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewStepResultError("Get", runID, stepName, persistence.ErrStepResultNotFound)
		}

		return nil, persistence.NewStepResultError("Get", runID, stepName, err)
	}

	record, err := decodeRecord(data)
	if err != nil {
		return nil, persistence.NewStepResultError("Get", runID, stepName, err)
	}

	return record, nil
}

func (r *StepResultRepository) ListByRun(ctx context.Context, runID string) ([]*models.StepRecord, error) {
	if err := persistence.ValidateKeys("ListByRun", runID, "", false); err != nil {
		return nil, err
	}

	steps, err := r.client.SMembers(ctx, r.stepsKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}

	records := make([]*models.StepRecord, 0, len(steps))
	if len(steps) == 0 {
		return records, nil
	}

	keys := make([]string, len(steps))
	for i, step := range steps {
		keys[i] = r.recordKey(runID, step)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load step results: %w", err)
	}

	for _, value := range values {
		// A step deleted between SMEMBERS and MGET comes back as nil.
		data, ok := value.(string)
		if !ok {
			continue
		}

		record, err := decodeRecord([]byte(data))
		if err != nil {
			return nil, persistence.NewStepResultError("ListByRun", runID, "", err)
		}

		records = append(records, record)
	}

	persistence.SortRecords(records)

	return records, nil
}

func (r *StepResultRepository) ListRuns(ctx context.Context) ([]string, error) {
	runs, err := r.client.SMembers(ctx, r.runsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	slices.Sort(runs)

	return runs, nil
}

func (r *StepResultRepository) Delete(ctx context.Context, runID, stepName string) error {
	if err := persistence.ValidateKeys("Delete", runID, stepName, true); err != nil {
		return err
	}

	var deleted *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, r.recordKey(runID, stepName))
		pipe.SRem(ctx, r.stepsKey(runID), stepName)

		return nil
	})
	if err != nil {
		return persistence.NewStepResultError("Delete", runID, stepName, fmt.Errorf("failed to delete step result: %w", err))
	}

	if deleted.Val() == 0 {
		return persistence.NewStepResultError("Delete", runID, stepName, persistence.ErrStepResultNotFound)
	}

	remaining, err := r.client.SCard(ctx, r.stepsKey(runID)).Result()
	if err != nil {
		return fmt.Errorf("failed to count remaining steps: %w", err)
	}

	if remaining == 0 {
		err = r.client.SRem(ctx, r.runsKey(), runID).Err()
		if err != nil {
			return fmt.Errorf("failed to remove run: %w", err)
		}
	}

	return nil
}

func (r *StepResultRepository) runsKey() string {
	return r.prefix + ":runs"
}

func (r *StepResultRepository) stepsKey(runID string) string {
	return r.prefix + ":run:" + runID + ":steps"
}

func (r *StepResultRepository) recordKey(runID, stepName string) string {
	return r.prefix + ":run:" + runID + ":step:" + stepName
}

func decodeRecord(data []byte) (*models.StepRecord, error) {
	var record models.StepRecord

	err := json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", persistence.ErrCorruptRecord, err)
	}

	return &record, nil
}
