package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counselor-presence/internal/api/http/handlers"
	"github.com/spec-kit/counselor-presence/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Presence       *handlers.PresenceHandler
	Alerts         *handlers.AlertsHandler
	WorkItems      *handlers.WorkItemsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	presence := api.Group("/presence")
	presence.Post("/login", auth.RequireCounselor(), cfg.Presence.Login)
	presence.Post("/activity", auth.RequireCounselor(), cfg.Presence.Activity)
	presence.Get("/:counselorId", auth.RequireSelfOrOperator("counselorId"), cfg.Presence.Get)

	operator := auth.RequireOperator()
	api.Get("/counselors/:counselorId/capacity", operator, cfg.Presence.Capacity)
	api.Get("/alerts/scan", operator, cfg.Alerts.Scan)
	api.Post("/alerts/scan", operator, cfg.Alerts.Scan)

	work := api.Group("/work-items", operator)
	work.Post("/reassign-batch", cfg.WorkItems.ReassignBatch)
	work.Post("/:id/reassign", cfg.WorkItems.Reassign)
	work.Post("/:id/release", cfg.WorkItems.Release)
	work.Get("/:id/candidates", cfg.WorkItems.Candidates)
	work.Get("/:id/reassignments", cfg.WorkItems.Reassignments)
}
