// Package web provides HTTP handlers and REST API endpoints for step results.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/stepledger/pkg/jsontree"
	"github.com/dukex/stepledger/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	stepResults *services.StepResults
	validator   *validator.Validate
}

func NewAPIHandlers(
	stepResults *services.StepResults,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		stepResults: stepResults,
		validator:   validator,
	}
}

// RecordStepResult stores the request body as the result of a step.
// PUT /runs/:runId/steps/:stepName[?strict=true].
func (h *APIHandlers) RecordStepResult(c fiber.Ctx) error {
	strict, err := parseBoolQuery(c, "strict")
	if err != nil {
		return badRequest(c, "Invalid strict parameter: "+err.Error())
	}

	resp, err := h.stepResults.Record(c.Context(), services.RecordRequest{
		RunID:    c.Params("runId"),
		StepName: c.Params("stepName"),
		Body:     string(c.Body()),
		Strict:   strict,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	body := newStepRecordResponse(resp.Record)
	body.Report = newCodecReportResponse(resp.Report)

	return c.Status(fiber.StatusCreated).JSON(body)
}

// GetStepResult returns the stored step result in its wire format, or the
// JSONPath matches within it when ?query= is given.
func (h *APIHandlers) GetStepResult(c fiber.Ctx) error {
	path, err := h.stepPath(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	record, err := h.stepResults.Fetch(c.Context(), path.RunID, path.StepName)
	if err != nil {
		return handleServiceError(c, err)
	}

	query := c.Query("query")
	if query == "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)

		return c.SendString(record.Result.String())
	}

	node, err := jsontree.Parse(record.Result.String())
	if err != nil {
		return internalError(c, err)
	}

	matches, err := jsontree.Query(node, query)
	if err != nil {
		return badRequest(c, "Invalid query: "+err.Error())
	}

	return c.JSON(QueryResponse{
		RunID:    path.RunID,
		StepName: path.StepName,
		Query:    query,
		Matches:  jsontree.Normalize(matches),
	})
}

func (h *APIHandlers) DeleteStepResult(c fiber.Ctx) error {
	path, err := h.stepPath(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	err = h.stepResults.Delete(c.Context(), path.RunID, path.StepName)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ListRunSteps(c fiber.Ctx) error {
	runID := c.Params("runId")

	records, err := h.stepResults.ListRun(c.Context(), runID)
	if err != nil {
		return handleServiceError(c, err)
	}

	steps := make([]*StepRecordResponse, 0, len(records))
	for _, record := range records {
		steps = append(steps, newStepRecordResponse(record))
	}

	return c.JSON(RunStepsResponse{RunID: runID, Steps: steps})
}

func (h *APIHandlers) ListRuns(c fiber.Ctx) error {
	runs, err := h.stepResults.ListRuns(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RunsResponse{Runs: runs})
}

// ValidateStepValue parses a single step value and echoes its canonical form.
func (h *APIHandlers) ValidateStepValue(c fiber.Ctx) error {
	strict, err := parseBoolQuery(c, "strict")
	if err != nil {
		return badRequest(c, "Invalid strict parameter: "+err.Error())
	}

	resp, err := h.stepResults.ValidateStepValue(c.Context(), string(c.Body()), strict)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(newStepValueResponse(resp.Value))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.stepResults.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Stepledger API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Stepledger API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// NotFound answers any unrouted request.
func (h *APIHandlers) NotFound(c fiber.Ctx) error {
	return notFound(c, "no route for "+c.Method()+" "+c.Path())
}

func (h *APIHandlers) stepPath(c fiber.Ctx) (*StepPath, error) {
	path := &StepPath{
		RunID:    c.Params("runId"),
		StepName: c.Params("stepName"),
	}

	if err := h.validator.Struct(path); err != nil {
		return nil, err
	}

	return path, nil
}

func parseBoolQuery(c fiber.Ctx, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}

	return strconv.ParseBool(raw)
}
