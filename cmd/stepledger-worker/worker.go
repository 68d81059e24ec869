package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/stepledger/pkg/config"
	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/runner"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// StepSaver stores a finished step result.
type StepSaver interface {
	Save(ctx context.Context, runID, stepName string, result *models.WorkflowStepResult) (*models.StepRecord, error)
}

// Worker runs the configured steps on their cron schedules and records
// every result.
type Worker struct {
	logger   *slog.Logger
	runner   *runner.Runner
	saver    StepSaver
	steps    []config.StepConfig
	newRunID func() string

	cron   *cron.Cron
	jobs   map[string]cron.EntryID
	mutex  sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWorker(logger *slog.Logger, stepRunner *runner.Runner, saver StepSaver, steps []config.StepConfig) *Worker {
	return &Worker{
		logger:   logger,
		runner:   stepRunner,
		saver:    saver,
		steps:    steps,
		newRunID: uuid.NewString,
		jobs:     make(map[string]cron.EntryID),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker", "steps_count", len(w.steps))
	w.ctx, w.cancel = context.WithCancel(ctx)

	logger := &slogCronLogger{logger: w.logger.With("component", "cron")}
	w.cron = cron.New(cron.WithLogger(logger), cron.WithChain(
		cron.SkipIfStillRunning(logger),
		cron.Recover(logger),
	))

	for _, step := range w.steps {
		if err := w.schedule(step); err != nil {
			return err
		}
	}

	w.cron.Start()
	w.logger.InfoContext(ctx, "Worker started")

	return nil
}

func (w *Worker) schedule(step config.StepConfig) error {
	entryID, err := w.cron.AddFunc(step.Schedule, func() {
		if _, err := w.RunStep(w.ctx, step); err != nil {
			w.logger.ErrorContext(w.ctx, "Failed to record step result", "step_name", step.Name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule step %s: %w", step.Name, err)
	}

	w.mutex.Lock()
	w.jobs[step.Name] = entryID
	w.mutex.Unlock()

	w.logger.Info("Scheduled step", "step_name", step.Name, "schedule", step.Schedule, "entry_id", entryID)

	return nil
}

// RunStep executes step once and saves its result under the step's fixed
// run ID, or a fresh one.
func (w *Worker) RunStep(ctx context.Context, step config.StepConfig) (*models.StepRecord, error) {
	runID := step.RunID
	if runID == "" {
		runID = w.newRunID()
	}

	result := w.runner.Run(ctx, step.CommandStep())

	record, err := w.saver.Save(ctx, runID, step.Name, result)
	if err != nil {
		return nil, err
	}

	w.logger.InfoContext(ctx, "Recorded step result", "run_id", runID, "step_name", step.Name)

	return record, nil
}

// RunAll executes every step once, in file order, under one run ID.
func (w *Worker) RunAll(ctx context.Context) ([]*models.StepRecord, error) {
	runID := w.newRunID()
	records := make([]*models.StepRecord, 0, len(w.steps))

	for _, step := range w.steps {
		if step.RunID == "" {
			step.RunID = runID
		}

		record, err := w.RunStep(ctx, step)
		if err != nil {
			return records, err
		}

		records = append(records, record)
	}

	return records, nil
}

// Stop cancels running steps and waits for their jobs to return.
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Stopping worker")

	if w.cancel != nil {
		w.cancel()
	}

	if w.cron != nil {
		select {
		case <-w.cron.Stop().Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	w.mutex.Lock()
	w.jobs = make(map[string]cron.EntryID)
	w.mutex.Unlock()

	return nil
}

// slogCronLogger sends robfig/cron's logging to slog.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l *slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
