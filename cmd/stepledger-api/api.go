// Package main provides the Stepledger API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/stepledger/pkg/eventbus"
	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/dukex/stepledger/pkg/schema"
	"github.com/dukex/stepledger/pkg/services"
	"github.com/dukex/stepledger/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventPublisher
	schema      *schema.Validator
}

// NewAPI wires the HTTP server. eventBus may be nil.
func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventPublisher,
	schemaValidator *schema.Validator,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		schema:      schemaValidator,
	}
}

func (a *API) App() *fiber.App {
	stepResults := services.NewStepResults(a.logger, a.persistence, a.eventBus, a.schema)
	handlers := web.NewAPIHandlers(stepResults, services.NewRequestValidator())

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stepledger API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

// Start serves until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		a.logger.Info("Shutting down Stepledger API")

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shutdown API server", "error", err)
		}
	}()

	return app.Listen(":" + strconv.Itoa(port))
}
