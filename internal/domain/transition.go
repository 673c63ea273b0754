package domain

import "fmt"

// TicketEvent is an input to the ticket state machine.
type TicketEvent string

const (
	EventAssign         TicketEvent = "ASSIGN"
	EventStartRepair    TicketEvent = "START_REPAIR"
	EventCompleteRepair TicketEvent = "COMPLETE_REPAIR"
	EventFailRepair     TicketEvent = "FAIL_REPAIR"
)

// TransitionError reports an event the current status does not accept.
type TransitionError struct {
	From  TicketStatus
	Event TicketEvent
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("ticket in status %s does not accept %s", e.From, e.Event)
}

var ticketTransitions = map[TicketStatus]map[TicketEvent]TicketStatus{
	TicketStatusPending: {
		EventAssign: TicketStatusProcessing,
	},
	TicketStatusProcessing: {
		EventStartRepair:    TicketStatusRepairing,
		EventCompleteRepair: TicketStatusRepaired,
		EventFailRepair:     TicketStatusFailed,
	},
	TicketStatusRepairing: {
		EventStartRepair:    TicketStatusRepairing,
		EventCompleteRepair: TicketStatusRepaired,
		EventFailRepair:     TicketStatusFailed,
	},
	TicketStatusRepaired: {},
	TicketStatusFailed:   {},
}

// NextTicketStatus applies event to current. Every ticket status write goes
// through here.
func NextTicketStatus(current TicketStatus, event TicketEvent) (TicketStatus, error) {
	next, ok := ticketTransitions[current][event]
	if !ok {
		return current, &TransitionError{From: current, Event: event}
	}
	return next, nil
}

// EquipmentStatusAfter returns the equipment status written by a terminal ticket status.
func EquipmentStatusAfter(terminal TicketStatus) (EquipmentStatus, bool) {
	switch terminal {
	case TicketStatusRepaired:
		return EquipmentStatusInService, true
	case TicketStatusFailed:
		return EquipmentStatusOutOfService, true
	}
	return "", false
}
