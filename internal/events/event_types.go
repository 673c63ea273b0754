package events

import (
	"context"
	"time"

	"github.com/spec-kit/repair-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventFaultReported       EventType = "fault_reported"
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role domain.Role `json:"role,omitempty"`
	ID   *string     `json:"id,omitempty"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	TicketID    string      `json:"ticket_id,omitempty"`
	EquipmentID string      `json:"equipment_id,omitempty"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// FaultReportedPayload payload.
type FaultReportedPayload struct {
	BreakdownID string `json:"breakdown_id"`
	ReportCount int    `json:"report_count"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	BreakdownID string `json:"breakdown_id"`
	ClientID    string `json:"client_id"`
	Description string `json:"description"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID string `json:"technician_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus       domain.TicketStatus    `json:"old_status"`
	NewStatus       domain.TicketStatus    `json:"new_status"`
	EquipmentStatus domain.EquipmentStatus `json:"equipment_status,omitempty"`
}

type actorKey struct{}

// WithActor attaches the acting account to ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor, or the zero Actor.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
