package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/dto"
	"github.com/spec-kit/repair-service/internal/service"
)

// EquipmentHandler serves equipment, fault report and technician reads.
type EquipmentHandler struct {
	equipment *service.EquipmentService
	validate  *dto.Validator
}

// NewEquipmentHandler constructs handler.
func NewEquipmentHandler(equipment *service.EquipmentService, validate *dto.Validator) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment, validate: validate}
}

// List GET /api/admin/equipment.
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	var q dto.EquipmentListQuery
	if err := parseQuery(c, h.validate, &q); err != nil {
		return err
	}
	limit, offset := q.Bounds()
	items, err := h.equipment.ListEquipment(c.UserContext(), service.EquipmentQuery{
		Statuses: q.Statuses(),
		ClientID: optional(q.ClientID),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewEquipmentResponses(items)))
}

// ByClient GET /api/client/:clientId/equipment.
func (h *EquipmentHandler) ByClient(c *fiber.Ctx) error {
	var page dto.PageQuery
	if err := parseQuery(c, h.validate, &page); err != nil {
		return err
	}
	limit, offset := page.Bounds()
	items, err := h.equipment.ListClientEquipment(c.UserContext(), c.Params("clientId"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewEquipmentResponses(items)))
}

// AssignToClient PUT /api/admin/equipment/:equipmentId/assign/:clientId.
func (h *EquipmentHandler) AssignToClient(c *fiber.Ctx) error {
	eq, err := h.equipment.AssignToClient(c.UserContext(), c.Params("equipmentId"), c.Params("clientId"))
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewEquipmentResponse(eq)))
}

// FaultReports GET /api/admin/equipment/:equipmentId/faults.
func (h *EquipmentHandler) FaultReports(c *fiber.Ctx) error {
	reports, err := h.equipment.ListFaultReports(c.UserContext(), c.Params("equipmentId"))
	if err != nil {
		return err
	}
	out := make([]dto.FaultReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, dto.NewFaultReportResponse(&reports[i]))
	}
	return c.JSON(data(out))
}

// AvailableTechnicians GET /api/admin/technicians/available.
func (h *EquipmentHandler) AvailableTechnicians(c *fiber.Ctx) error {
	var page dto.PageQuery
	if err := parseQuery(c, h.validate, &page); err != nil {
		return err
	}
	limit, offset := page.Bounds()
	techs, err := h.equipment.ListAvailableTechnicians(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewTechnicianResponses(techs)))
}
