package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/http/handlers"
	"github.com/spec-kit/repair-service/internal/auth"
	"github.com/spec-kit/repair-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Faults         *handlers.FaultsHandler
	Tickets        *handlers.TicketsHandler
	Repair         *handlers.RepairHandler
	Equipment      *handlers.EquipmentHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	client := api.Group("/client", auth.RequireRole(domain.RoleClient, domain.RoleAdmin))
	client.Post("/equipment/:equipmentId/faults/:breakdownId", cfg.Faults.ReportWithTicket)
	clientSelf := auth.RequireSelfOrAdmin("clientId", domain.RoleClient)
	client.Get("/:clientId/tickets", clientSelf, cfg.Tickets.ByClient)
	client.Get("/:clientId/equipment", clientSelf, cfg.Equipment.ByClient)

	admin := api.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Post("/equipment/:equipmentId/faults/:breakdownId", cfg.Faults.Report)
	admin.Get("/tickets", cfg.Tickets.List)
	admin.Get("/tickets/pending", cfg.Tickets.Pending)
	admin.Get("/tickets/export", cfg.Tickets.Export)
	admin.Put("/tickets/:ticketId/assign/:technicianId", cfg.Tickets.Assign)
	admin.Get("/equipment", cfg.Equipment.List)
	admin.Put("/equipment/:equipmentId/assign/:clientId", cfg.Equipment.AssignToClient)
	admin.Get("/equipment/:equipmentId/faults", cfg.Equipment.FaultReports)
	admin.Get("/technicians/available", cfg.Equipment.AvailableTechnicians)

	technician := api.Group("/technician", auth.RequireRole(domain.RoleTechnician, domain.RoleAdmin))
	technician.Put("/tickets/:ticketId/repairing", cfg.Repair.Start)
	technician.Put("/tickets/:ticketId/repaired", cfg.Repair.Complete)
	technician.Put("/tickets/:ticketId/failed", cfg.Repair.Fail)
	techSelf := auth.RequireSelfOrAdmin("technicianId", domain.RoleTechnician)
	technician.Get("/:technicianId/tickets", techSelf, cfg.Tickets.ByTechnician)
	technician.Get("/:technicianId/tickets/processing", techSelf, cfg.Tickets.Processing)

	api.Get("/tickets/:ticketId/history", cfg.Tickets.History)
}
