package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-ledger/internal/api/http/handlers"
	"github.com/spec-kit/ticket-ledger/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Reads are public; writes require a
// bearer token whose subject becomes the change-set author.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	writer := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireRole(auth.RoleReporter, auth.RoleAgent)}
	agent := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireRole(auth.RoleAgent)}

	tickets := app.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", append(writer, cfg.Tickets.CreateTicket)...)
	tickets.Get("/report.csv", cfg.Tickets.Report)

	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/status-history", cfg.Tickets.StatusHistory)
	tickets.Get("/:id/change-sets", cfg.Tickets.ListChangeSets)
	tickets.Post("/:id/change-sets", append(writer, cfg.Tickets.AppendChangeSet)...)
	tickets.Get("/:id/hash", cfg.Tickets.Hash)
	tickets.Get("/:id/affected", cfg.Tickets.Affected)
	tickets.Post("/:id/affected", append(agent, cfg.Tickets.LinkAffected)...)
}
