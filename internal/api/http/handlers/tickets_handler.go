package handlers

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/dto"
	"github.com/spec-kit/repair-service/internal/report"
	"github.com/spec-kit/repair-service/internal/service"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// exportLimit caps the rows written to a single workbook.
const exportLimit = 5000

// TicketsHandler serves ticket listings, dispatch and history.
type TicketsHandler struct {
	tickets    *service.TicketService
	assignment *service.AssignmentService
	validate   *dto.Validator
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assignment *service.AssignmentService, validate *dto.Validator) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignment: assignment, validate: validate}
}

// List GET /api/admin/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	query, err := h.ticketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewTicketResponses(tickets)))
}

// Pending GET /api/admin/tickets/pending.
func (h *TicketsHandler) Pending(c *fiber.Ctx) error {
	var page dto.PageQuery
	if err := parseQuery(c, h.validate, &page); err != nil {
		return err
	}
	limit, offset := page.Bounds()
	tickets, err := h.tickets.ListPendingTickets(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewTicketResponses(tickets)))
}

// Export GET /api/admin/tickets/export.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	query, err := h.ticketQuery(c)
	if err != nil {
		return err
	}
	query.Limit, query.Offset = exportLimit, 0
	tickets, err := h.tickets.ListTickets(c.UserContext(), query)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.WriteTickets(&buf, tickets); err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, report.ContentType)
	c.Attachment(report.FileName(time.Now()))
	return c.Send(buf.Bytes())
}

// Assign PUT /api/admin/tickets/:ticketId/assign/:technicianId.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	ticket, err := h.assignment.AssignTicket(c.UserContext(), c.Params("ticketId"), c.Params("technicianId"))
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewTicketResponse(ticket)))
}

// ByClient GET /api/client/:clientId/tickets.
func (h *TicketsHandler) ByClient(c *fiber.Ctx) error {
	var page dto.PageQuery
	if err := parseQuery(c, h.validate, &page); err != nil {
		return err
	}
	limit, offset := page.Bounds()
	tickets, err := h.tickets.ListClientTickets(c.UserContext(), c.Params("clientId"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewTicketResponses(tickets)))
}

// ByTechnician GET /api/technician/:technicianId/tickets.
func (h *TicketsHandler) ByTechnician(c *fiber.Ctx) error {
	var page dto.PageQuery
	if err := parseQuery(c, h.validate, &page); err != nil {
		return err
	}
	limit, offset := page.Bounds()
	tickets, err := h.tickets.ListTechnicianTickets(c.UserContext(), c.Params("technicianId"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewTicketResponses(tickets)))
}

// Processing GET /api/technician/:technicianId/tickets/processing.
func (h *TicketsHandler) Processing(c *fiber.Ctx) error {
	var page dto.PageQuery
	if err := parseQuery(c, h.validate, &page); err != nil {
		return err
	}
	limit, offset := page.Bounds()
	tickets, err := h.tickets.ListProcessingTickets(c.UserContext(), c.Params("technicianId"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewTicketResponses(tickets)))
}

// History GET /api/tickets/:ticketId/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	if err := ensureParticipant(p, ticket); err != nil {
		return err
	}
	history, err := h.tickets.ListHistory(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewHistoryResponses(history)))
}

func (h *TicketsHandler) ticketQuery(c *fiber.Ctx) (service.TicketQuery, error) {
	var q dto.TicketListQuery
	if err := parseQuery(c, h.validate, &q); err != nil {
		return service.TicketQuery{}, err
	}
	limit, offset := q.Bounds()
	return service.TicketQuery{
		Statuses:     q.Statuses(),
		ClientID:     optional(q.ClientID),
		TechnicianID: optional(q.TechnicianID),
		EquipmentID:  optional(q.EquipmentID),
		Limit:        limit,
		Offset:       offset,
	}, nil
}
