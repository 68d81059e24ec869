package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepledger/pkg/eventbus"
	"github.com/dukex/stepledger/pkg/events"
	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/otelhelper"
	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/dukex/stepledger/pkg/schema"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RecordRequest carries a step result document received as text.
type RecordRequest struct {
	RunID    string `validate:"required,max=255,stepkey"`
	StepName string `validate:"required,max=255,stepkey"`
	Body     string `validate:"required"`

	// Strict validates Body against the JSON Schema before decoding, so
	// documents the codec would accept leniently are rejected.
	Strict bool
}

// RecordResponse is the stored record plus what the decoder skipped.
type RecordResponse struct {
	Record *models.StepRecord
	Report models.CodecReport
}

// ValidateValueResponse echoes a step value in canonical form.
type ValidateValueResponse struct {
	Value     models.WorkflowStepValue
	Canonical string
}

// StepResults records, serves and deletes step results.
type StepResults struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventPublisher
	schema      *schema.Validator
	validate    *validator.Validate
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewStepResults creates the service. eventBus may be nil, in which case no
// events are published. A nil schemaValidator is replaced by one built from
// the embedded schemas.
func NewStepResults(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventPublisher,
	schemaValidator *schema.Validator,
) *StepResults {
	if schemaValidator == nil {
		var err error

		schemaValidator, err = schema.NewValidator()
		if err != nil {
			logger.Error("Failed to build schema validator, strict checks disabled", "error", err)
		}
	}

	return &StepResults{
		persistence: persistence,
		eventBus:    eventBus,
		schema:      schemaValidator,
		validate:    NewRequestValidator(),
		tracer:      otelhelper.GlobalTracer("stepledger/services"),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// NewRequestValidator returns a validator that also understands the
// "stepkey" tag (a run ID or step name usable as a storage key).
func NewRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("stepkey", func(fl validator.FieldLevel) bool {
		return models.ValidateKey(fl.Field().String()) == nil
	})

	return v
}

// HealthCheck checks the health of the persistence layer.
func (s *StepResults) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Record decodes req.Body, stores it and announces it.
func (s *StepResults) Record(ctx context.Context, req RecordRequest) (*RecordResponse, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "StepResults.Record", otelhelper.StepAttributes(req.RunID, req.StepName)...)
	defer span.End()

	err := s.validate.Struct(req)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, NewValidationError("Record", "INVALID_REQUEST", err.Error(), errors.Join(ErrInvalidRequest, err))
	}

	if req.Strict && s.schema != nil {
		err = s.schema.ValidateStepResult(req.Body)
		if err != nil {
			otelhelper.SetError(span, err)

			var violation *schema.ValidationError
			if errors.As(err, &violation) {
				return nil, NewValidationError("Record", "SCHEMA_VIOLATION", err.Error(), errors.Join(ErrSchemaViolation, err))
			}

			// Not JSON at all: the decoder would reject it too.
			return nil, NewValidationError("Record", "INVALID_STEP_RESULT", err.Error(), errors.Join(ErrInvalidStepResult, err))
		}
	}

	result, report, err := models.ParseWorkflowStepResultWithReport(req.Body)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, NewValidationError("Record", "INVALID_STEP_RESULT", err.Error(), errors.Join(ErrInvalidStepResult, err))
	}

	if !report.Clean() {
		s.logger.WarnContext(ctx, "Step result decoded with omissions",
			"run_id", req.RunID,
			"step_name", req.StepName,
			"dropped_step_values", report.DroppedStepValues,
			"skipped_timestamps", report.SkippedTimestamps,
			"skipped_fields", report.SkippedFields)
	}

	record, err := s.Save(ctx, req.RunID, req.StepName, result)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return &RecordResponse{Record: record, Report: report}, nil
}

// Save stores an already-built result under (runID, stepName) and publishes
// a recorded event.
func (s *StepResults) Save(ctx context.Context, runID, stepName string, result *models.WorkflowStepResult) (*models.StepRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "StepResults.Save", otelhelper.StepAttributes(runID, stepName)...)
	defer span.End()

	if result == nil {
		return nil, NewValidationError("Save", "INVALID_REQUEST", "step result is required", ErrInvalidRequest)
	}

	record := &models.StepRecord{
		RunID:      runID,
		StepName:   stepName,
		Result:     result.Clone(),
		RecordedAt: s.now(),
	}

	err := record.Validate()
	if err != nil {
		return nil, NewValidationError("Save", "INVALID_REQUEST", err.Error(), errors.Join(ErrInvalidRequest, err))
	}

	err = s.persistence.StepResultRepository().Save(ctx, record)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save step result: %w", err)
	}

	span.SetAttributes(attribute.Bool(otelhelper.CompleteKey, record.Result.Complete()))

	if stepResult, ok := record.Result.StepResult(); ok {
		span.SetAttributes(attribute.String(otelhelper.StepResultKey, stepResult.String()))
	}

	s.logger.InfoContext(ctx, "Recorded step result", "run_id", runID, "step_name", stepName, "complete", record.Result.Complete())

	if s.eventBus != nil {
		s.publish(ctx, runID, events.NewStepResultRecorded(s.generateID(), record))
	}

	return record, nil
}

func (s *StepResults) Fetch(ctx context.Context, runID, stepName string) (*models.StepRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "StepResults.Fetch", otelhelper.StepAttributes(runID, stepName)...)
	defer span.End()

	record, err := s.persistence.StepResultRepository().Get(ctx, runID, stepName)
	if err != nil {
		if !persistence.IsStepResultNotFound(err) {
			otelhelper.SetError(span, err)
		}

		return nil, err
	}

	return record, nil
}

func (s *StepResults) ListRun(ctx context.Context, runID string) ([]*models.StepRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "StepResults.ListRun", attribute.String(otelhelper.RunIDKey, runID))
	defer span.End()

	records, err := s.persistence.StepResultRepository().ListByRun(ctx, runID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return records, nil
}

func (s *StepResults) ListRuns(ctx context.Context) ([]string, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "StepResults.ListRuns")
	defer span.End()

	runs, err := s.persistence.StepResultRepository().ListRuns(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return runs, nil
}

// Delete removes a stored result and publishes a deleted event.
func (s *StepResults) Delete(ctx context.Context, runID, stepName string) error {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "StepResults.Delete", otelhelper.StepAttributes(runID, stepName)...)
	defer span.End()

	err := s.persistence.StepResultRepository().Delete(ctx, runID, stepName)
	if err != nil {
		if !persistence.IsStepResultNotFound(err) {
			otelhelper.SetError(span, err)
		}

		return err
	}

	s.logger.InfoContext(ctx, "Deleted step result", "run_id", runID, "step_name", stepName)

	if s.eventBus != nil {
		s.publish(ctx, runID, events.NewStepResultDeleted(s.generateID(), runID, stepName))
	}

	return nil
}

// ValidateStepValue parses a single step value document and returns its
// canonical serialization.
func (s *StepResults) ValidateStepValue(ctx context.Context, body string, strict bool) (*ValidateValueResponse, error) {
	_, span := otelhelper.StartSpan(ctx, s.tracer, "StepResults.ValidateStepValue")
	defer span.End()

	if strict && s.schema != nil {
		var violation *schema.ValidationError

		err := s.schema.ValidateStepValue(body)
		if errors.As(err, &violation) {
			otelhelper.SetError(span, err)

			return nil, NewValidationError("ValidateStepValue", "SCHEMA_VIOLATION", err.Error(), errors.Join(ErrSchemaViolation, err))
		}
	}

	value, err := models.ParseWorkflowStepValue(body)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, NewValidationError("ValidateStepValue", "INVALID_STEP_VALUE", err.Error(), errors.Join(ErrInvalidStepValue, err))
	}

	return &ValidateValueResponse{Value: value, Canonical: value.String()}, nil
}

func (s *StepResults) generateID() string {
	if bus, ok := s.eventBus.(interface{ GenerateID() string }); ok {
		return bus.GenerateID()
	}

	return ""
}

// publish failures are logged only; the result is already stored.
func (s *StepResults) publish(ctx context.Context, runID string, event eventbus.Event) {
	err := s.eventBus.Publish(ctx, runID, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "run_id", runID, "error", err)
	}
}
