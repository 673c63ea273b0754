package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/dto"
	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/service"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// FaultsHandler accepts fault reports.
type FaultsHandler struct {
	faults    *service.FaultService
	tickets   *service.TicketService
	equipment *service.EquipmentService
	validate  *dto.Validator
}

// NewFaultsHandler constructs handler.
func NewFaultsHandler(faults *service.FaultService, tickets *service.TicketService, equipment *service.EquipmentService, validate *dto.Validator) *FaultsHandler {
	return &FaultsHandler{faults: faults, tickets: tickets, equipment: equipment, validate: validate}
}

// ReportWithTicket POST /api/client/equipment/:equipmentId/faults/:breakdownId.
func (h *FaultsHandler) ReportWithTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ReportFaultRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	equipmentID := c.Params("equipmentId")
	if p.Role == domain.RoleClient {
		eq, err := h.equipment.GetEquipment(c.UserContext(), equipmentID)
		if err != nil {
			return err
		}
		if eq.ClientID == nil || *eq.ClientID != p.ID {
			return apperrors.NewForbidden("equipment belongs to another client")
		}
	}

	report, ticket, err := h.tickets.ReportFaultWithTicket(c.UserContext(), equipmentID, c.Params("breakdownId"), req.Description)
	if err != nil {
		return err
	}
	resp := dto.NewTicketResponse(ticket)
	return c.Status(http.StatusCreated).JSON(data(dto.ReportFaultResponse{
		FaultReport: dto.NewFaultReportResponse(report),
		Ticket:      &resp,
	}))
}

// Report POST /api/admin/equipment/:equipmentId/faults/:breakdownId.
func (h *FaultsHandler) Report(c *fiber.Ctx) error {
	report, err := h.faults.ReportFault(c.UserContext(), c.Params("equipmentId"), c.Params("breakdownId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(data(dto.ReportFaultResponse{
		FaultReport: dto.NewFaultReportResponse(report),
	}))
}
