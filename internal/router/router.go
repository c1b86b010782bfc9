package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/landtube/landtube-go/internal/handler"
	"github.com/landtube/landtube-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health    *handler.HealthHandler
	Dashboard *handler.DashboardHandler
	Session   *handler.SessionHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins, jwtSecret string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Health and metrics (before API group, no auth needed)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api",
		middleware.NewAPIRateLimiter().Handler(),
		middleware.RequireAuth(jwtSecret),
	)

	// Dashboard routes
	api.Get("/dashboard", h.Dashboard.Get)
	api.Post("/profile/password", h.Dashboard.ChangePassword)

	// Review session routes
	api.Post("/session", h.Session.Open)
	api.Get("/session", h.Session.Get)
	api.Delete("/session", h.Session.Close)
	api.Post("/session/watch", h.Session.Watch)
	api.Put("/session/rating", h.Session.Rate)
	api.Post("/session/submit", middleware.NewSubmitRateLimiter().Handler(), h.Session.Submit)
}
