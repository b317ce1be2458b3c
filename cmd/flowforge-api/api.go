// Package main provides the FlowForge API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/diff"
	"github.com/flowforge/flowforge/pkg/eventbus"
	"github.com/flowforge/flowforge/pkg/generator"
	"github.com/flowforge/flowforge/pkg/insight"
	"github.com/flowforge/flowforge/pkg/ledger"
	"github.com/flowforge/flowforge/pkg/patterns"
	"github.com/flowforge/flowforge/pkg/services"
	"github.com/flowforge/flowforge/pkg/store"
	"github.com/flowforge/flowforge/pkg/validation"
	"github.com/flowforge/flowforge/pkg/web"
)

type API struct {
	logger   *slog.Logger
	store    store.Store
	memory   ledger.Ledger
	eventBus eventbus.EventBus
	insight  insight.Client
	tracer   trace.Tracer
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	workflowStore store.Store,
	memory ledger.Ledger,
	eventBus eventbus.EventBus,
	insightClient insight.Client,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:   logger,
		store:    workflowStore,
		memory:   memory,
		eventBus: eventBus,
		insight:  insightClient,
		tracer:   tracer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	cat := catalog.NewDefaultStatic()
	matcher := patterns.NewDefaultMatcher()
	graphValidator := validation.New(cat)

	generation := services.NewGeneration(
		matcher,
		generator.New(cat, nil),
		graphValidator,
		a.insight,
		a.memory,
		a.eventBus,
		a.tracer,
	)
	edit := services.NewEdit(a.store, diff.NewEngine(graphValidator, nil), a.memory, a.eventBus, a.tracer)

	handlers := web.NewAPIHandlers(generation, edit, a.store, matcher, a.memory, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("FlowForge API")
	})

	web.Register(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
