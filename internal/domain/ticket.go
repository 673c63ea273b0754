package domain

import "time"

// TicketStatus enumerates lifecycle states for repair tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusProcessing TicketStatus = "PROCESSING"
	TicketStatusRepairing  TicketStatus = "REPAIRING"
	TicketStatusRepaired   TicketStatus = "REPAIRED"
	TicketStatusFailed     TicketStatus = "FAILED"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusProcessing, TicketStatusRepairing, TicketStatusRepaired, TicketStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusRepaired || s == TicketStatusFailed
}

// Active reports whether a technician is working the ticket.
func (s TicketStatus) Active() bool {
	return s == TicketStatusProcessing || s == TicketStatusRepairing
}

// Ticket is a repair request raised from a fault report.
//
// ClientID is the equipment owner at creation time and is never refreshed.
type Ticket struct {
	ID           string
	Description  string
	Status       TicketStatus
	EquipmentID  string
	BreakdownID  string
	ClientID     string
	TechnicianID *string
	ReportedAt   time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
}

// FaultReportKey returns the key of the report the ticket resolves.
func (t *Ticket) FaultReportKey() FaultReportKey {
	return FaultReportKey{EquipmentID: t.EquipmentID, BreakdownID: t.BreakdownID}
}
