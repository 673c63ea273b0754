package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus     TicketChangeType = "STATUS_CHANGE"
	ChangeTypeTechnician TicketChangeType = "TECHNICIAN_CHANGE"
)

// RoleSystem marks history written without an authenticated principal,
// such as changes made from the CLI.
const RoleSystem Role = "SYSTEM"

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType Role
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
