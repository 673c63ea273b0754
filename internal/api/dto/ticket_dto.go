package dto

import (
	"time"

	"github.com/spec-kit/repair-service/internal/domain"
)

// ReportFaultRequest payload.
type ReportFaultRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
}

// TicketListQuery captures query filters for ticket listings.
type TicketListQuery struct {
	Status       string `query:"status" validate:"omitempty,ticket_statuses"`
	ClientID     string `query:"client_id" validate:"omitempty,uuid"`
	TechnicianID string `query:"technician_id" validate:"omitempty,uuid"`
	EquipmentID  string `query:"equipment_id" validate:"omitempty,uuid"`
	PageQuery
}

// Statuses returns the requested statuses.
func (q TicketListQuery) Statuses() []domain.TicketStatus {
	parts := SplitList(q.Status)
	out := make([]domain.TicketStatus, 0, len(parts))
	for _, p := range parts {
		out = append(out, domain.TicketStatus(p))
	}
	return out
}

// MaxPage caps page so the computed offset cannot overflow.
const MaxPage = 100000

// PageQuery holds 1-based pagination parameters.
type PageQuery struct {
	Page     int `query:"page" validate:"omitempty,min=1,max=100000"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// Bounds converts the page into limit and offset, defaulting to 20 per page.
func (p PageQuery) Bounds() (limit, offset int) {
	page, size := p.Page, p.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return size, (page - 1) * size
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID           string              `json:"id"`
	Description  string              `json:"description"`
	Status       domain.TicketStatus `json:"status"`
	EquipmentID  string              `json:"equipment_id"`
	BreakdownID  string              `json:"breakdown_id"`
	ClientID     string              `json:"client_id"`
	TechnicianID *string             `json:"technician_id,omitempty"`
	ReportedAt   time.Time           `json:"reported_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	ResolvedAt   *time.Time          `json:"resolved_at,omitempty"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID            string                  `json:"id"`
	ChangedByType domain.Role             `json:"changed_by_type"`
	ChangedByID   *string                 `json:"changed_by_id,omitempty"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	OldValue      map[string]any          `json:"old_value"`
	NewValue      map[string]any          `json:"new_value"`
	CreatedAt     time.Time               `json:"created_at"`
}

// FaultReportResponse is the wire form of a fault report.
type FaultReportResponse struct {
	EquipmentID     string             `json:"equipment_id"`
	BreakdownID     string             `json:"breakdown_id"`
	ReportCount     int                `json:"report_count"`
	FirstReportedAt time.Time          `json:"first_reported_at"`
	LastReportedAt  time.Time          `json:"last_reported_at"`
	Equipment       *EquipmentResponse `json:"equipment,omitempty"`
	Breakdown       *BreakdownResponse `json:"breakdown,omitempty"`
}

// ReportFaultResponse is returned when a fault is reported with a ticket.
type ReportFaultResponse struct {
	FaultReport FaultReportResponse `json:"fault_report"`
	Ticket      *TicketResponse     `json:"ticket,omitempty"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Description:  t.Description,
		Status:       t.Status,
		EquipmentID:  t.EquipmentID,
		BreakdownID:  t.BreakdownID,
		ClientID:     t.ClientID,
		TechnicianID: t.TechnicianID,
		ReportedAt:   t.ReportedAt,
		UpdatedAt:    t.UpdatedAt,
		ResolvedAt:   t.ResolvedAt,
	}
}

// NewTicketResponses maps a ticket listing.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewHistoryResponses maps history entries.
func NewHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TicketHistoryResponse{
			ID:            e.ID,
			ChangedByType: e.ChangedByType,
			ChangedByID:   e.ChangedByID,
			ChangeType:    e.ChangeType,
			OldValue:      e.OldValue,
			NewValue:      e.NewValue,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}

// NewFaultReportResponse maps a fault report and whatever relations are loaded.
func NewFaultReportResponse(r *domain.FaultReport) FaultReportResponse {
	resp := FaultReportResponse{
		EquipmentID:     r.EquipmentID,
		BreakdownID:     r.BreakdownID,
		ReportCount:     r.ReportCount,
		FirstReportedAt: r.FirstReportedAt,
		LastReportedAt:  r.LastReportedAt,
	}
	if r.Equipment != nil {
		eq := NewEquipmentResponse(r.Equipment)
		resp.Equipment = &eq
	}
	if r.Breakdown != nil {
		b := NewBreakdownResponse(r.Breakdown)
		resp.Breakdown = &b
	}
	return resp
}
