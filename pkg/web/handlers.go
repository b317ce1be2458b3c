package web

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowforge/flowforge/pkg/ledger"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/patterns"
	"github.com/flowforge/flowforge/pkg/services"
	"github.com/flowforge/flowforge/pkg/store"
	"github.com/flowforge/flowforge/pkg/validation"
)

// APIHandlers bundles the HTTP handlers over the service layer.
type APIHandlers struct {
	generation *services.Generation
	edit       *services.Edit
	store      store.Store
	matcher    *patterns.Matcher
	memory     ledger.Ledger
	validate   *validator.Validate
}

func NewAPIHandlers(
	generation *services.Generation,
	edit *services.Edit,
	workflowStore store.Store,
	matcher *patterns.Matcher,
	memory ledger.Ledger,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		generation: generation,
		edit:       edit,
		store:      workflowStore,
		matcher:    matcher,
		memory:     memory,
		validate:   validate,
	}
}

// Register mounts every route on the app. Shared between the API binary and
// handler tests.
func Register(app *fiber.App, h *APIHandlers) {
	w := app.Group("/workflows")
	w.Post("/generate", h.GenerateWorkflow)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/edit", h.EditWorkflow)
	w.Post("/:id/execute", h.ExecuteWorkflow)

	app.Get("/patterns/match", h.MatchPatterns)
	app.Get("/memory", h.QueryMemory)
	app.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GenerateWorkflow(c fiber.Ctx) error {
	var req GenerateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	response, err := h.generation.Generate(c.Context(), services.GenerateRequest{
		Goal:    req.Goal,
		Profile: validation.Profile(req.Profile),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	if err := h.store.Create(c.Context(), req.ID, req.Graph); err != nil {
		if errors.Is(err, store.ErrWorkflowAlreadyExists) {
			return conflict(c, "workflow "+req.ID+" already exists")
		}

		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(req.Graph)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	graph, err := h.store.Get(c.Context(), id)
	if err != nil {
		if store.IsNotFound(err) {
			return notFound(c, "workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(graph)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var graph models.WorkflowGraph
	if err := c.Bind().JSON(&graph); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.store.Update(c.Context(), id, &graph); err != nil {
		if store.IsNotFound(err) {
			return notFound(c, "workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(graph)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.store.Delete(c.Context(), id); err != nil {
		if store.IsNotFound(err) {
			return notFound(c, "workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// EditWorkflow runs a diff request. Rejections come back as 422 with the
// failed stage and per-operation issues; only transport and store failures
// are 4xx/5xx problems.
func (h *APIHandlers) EditWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req EditWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	persist := true
	if req.Persist != nil {
		persist = *req.Persist
	}

	result, err := h.edit.Apply(c.Context(), services.EditRequest{
		WorkflowID: id,
		Operations: req.Operations,
		Persist:    persist,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	if !result.Success {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(EditRejectionResponse{
			Success:     false,
			WorkflowID:  result.WorkflowID,
			FailedStage: result.FailedStage,
			Issues:      result.Issues,
		})
	}

	return c.JSON(result)
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	execution, err := h.edit.Execute(c.Context(), id)
	if err != nil {
		if store.IsNotFound(err) {
			return notFound(c, "workflow not found")
		}

		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(execution)
}

func (h *APIHandlers) MatchPatterns(c fiber.Ctx) error {
	goal := c.Query("goal")
	if goal == "" {
		return badRequest(c, "goal query parameter is required")
	}

	return c.JSON(MatchPatternsResponse{
		Goal:    goal,
		Matches: h.matcher.Match(goal),
	})
}

func (h *APIHandlers) QueryMemory(c fiber.Ctx) error {
	pattern := c.Query("pattern")
	if pattern == "" {
		pattern = "*"
	}

	opts := ledger.QueryOptions{
		Type: models.MemoryEntryType(c.Query("type")),
	}

	if maxAgeStr := c.Query("max_age_hours"); maxAgeStr != "" {
		hours, err := strconv.ParseFloat(maxAgeStr, 64)
		if err != nil || hours < 0 {
			return badRequest(c, "max_age_hours must be a non-negative number")
		}

		opts.MaxAge = time.Duration(hours * float64(time.Hour))
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}

		opts.Limit = limit
	}

	entries, err := h.memory.Query(c.Context(), pattern, opts)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(MemoryResponse{Entries: entries, Count: len(entries)})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.store.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}
