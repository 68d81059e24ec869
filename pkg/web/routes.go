package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the step result API on app. Unmatched requests get a
// 404 problem, so register other routes before calling it.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	app.Get("/health", handlers.HealthCheck)

	app.Get("/runs", handlers.ListRuns)

	r := app.Group("/runs/:runId")
	r.Get("/steps", handlers.ListRunSteps)
	r.Put("/steps/:stepName", handlers.RecordStepResult)
	r.Get("/steps/:stepName", handlers.GetStepResult)
	r.Delete("/steps/:stepName", handlers.DeleteStepResult)

	app.Post("/step-values/validate", handlers.ValidateStepValue)

	app.Use(handlers.NotFound)
}
