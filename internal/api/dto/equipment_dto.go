package dto

import (
	"time"

	"github.com/spec-kit/repair-service/internal/domain"
)

// EquipmentListQuery captures query filters for equipment listings.
type EquipmentListQuery struct {
	Status   string `query:"status" validate:"omitempty,equipment_statuses"`
	ClientID string `query:"client_id" validate:"omitempty,uuid"`
	PageQuery
}

// Statuses returns the requested statuses.
func (q EquipmentListQuery) Statuses() []domain.EquipmentStatus {
	parts := SplitList(q.Status)
	out := make([]domain.EquipmentStatus, 0, len(parts))
	for _, p := range parts {
		out = append(out, domain.EquipmentStatus(p))
	}
	return out
}

type EquipmentResponse struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Model        string                 `json:"model"`
	SerialNumber string                 `json:"serial_number"`
	Category     string                 `json:"category,omitempty"`
	Price        float64                `json:"price"`
	Status       domain.EquipmentStatus `json:"status"`
	ClientID     *string                `json:"client_id,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type BreakdownResponse struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Priority    domain.BreakdownPriority `json:"priority"`
	Category    domain.BreakdownCategory `json:"category"`
}

type TechnicianResponse struct {
	ID              string  `json:"id"`
	FullName        string  `json:"full_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone,omitempty"`
	Available       bool    `json:"available"`
	CurrentTicketID *string `json:"current_ticket_id,omitempty"`
}

func NewEquipmentResponse(e *domain.Equipment) EquipmentResponse {
	return EquipmentResponse{
		ID:           e.ID,
		Name:         e.Name,
		Model:        e.Model,
		SerialNumber: e.SerialNumber,
		Category:     e.Category,
		Price:        e.Price,
		Status:       e.Status,
		ClientID:     e.ClientID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func NewEquipmentResponses(items []domain.Equipment) []EquipmentResponse {
	out := make([]EquipmentResponse, 0, len(items))
	for i := range items {
		out = append(out, NewEquipmentResponse(&items[i]))
	}
	return out
}

func NewBreakdownResponse(b *domain.Breakdown) BreakdownResponse {
	return BreakdownResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Priority:    b.Priority,
		Category:    b.Category,
	}
}

func NewTechnicianResponses(techs []domain.Technician) []TechnicianResponse {
	out := make([]TechnicianResponse, 0, len(techs))
	for _, t := range techs {
		out = append(out, TechnicianResponse{
			ID:              t.ID,
			FullName:        t.FullName,
			Email:           t.Email,
			Phone:           t.Phone,
			Available:       t.Available,
			CurrentTicketID: t.CurrentTicketID,
		})
	}
	return out
}
