package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticketd/internal/api/http/handlers"
	"github.com/supportdesk/ticketd/internal/auth"
	"github.com/supportdesk/ticketd/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireRole())

	// Static segments before the :id wildcard.
	tickets.Get("/stats", cfg.Stats.Stats)
	tickets.Post("/bulk/assign", cfg.Tickets.BulkAssign)
	tickets.Post("/bulk/status", cfg.Tickets.BulkStatus)

	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)

	attachments := app.Group("/attachments", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.UserRoleAgent, domain.UserRoleAdmin))
	attachments.Delete("/:id", cfg.Tickets.DeleteAttachment)
}
