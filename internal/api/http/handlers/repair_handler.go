package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/dto"
	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/service"
)

// RepairHandler lets technicians progress the tickets they hold.
type RepairHandler struct {
	tickets *service.TicketService
	repair  *service.RepairService
}

// NewRepairHandler constructs handler.
func NewRepairHandler(tickets *service.TicketService, repair *service.RepairService) *RepairHandler {
	return &RepairHandler{tickets: tickets, repair: repair}
}

// Start PUT /api/technician/tickets/:ticketId/repairing.
func (h *RepairHandler) Start(c *fiber.Ctx) error {
	return h.progress(c, h.repair.StartRepair)
}

// Complete PUT /api/technician/tickets/:ticketId/repaired.
func (h *RepairHandler) Complete(c *fiber.Ctx) error {
	return h.progress(c, h.repair.CompleteRepair)
}

// Fail PUT /api/technician/tickets/:ticketId/failed.
func (h *RepairHandler) Fail(c *fiber.Ctx) error {
	return h.progress(c, h.repair.FailRepair)
}

func (h *RepairHandler) progress(c *fiber.Ctx, op func(context.Context, string) (*domain.Ticket, error)) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ticketID := c.Params("ticketId")
	current, err := h.tickets.GetTicket(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	if err := ensureTechnicianOwns(p, current); err != nil {
		return err
	}

	ticket, err := op(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewTicketResponse(ticket)))
}
