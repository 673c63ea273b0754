package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/repository"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// AssignmentService dispatches pending tickets to technicians.
type AssignmentService struct {
	workflow
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps Dependencies) *AssignmentService {
	return &AssignmentService{workflow: newWorkflow(deps)}
}

// AssignTicket binds an available technician to a PENDING ticket and moves
// the ticket to PROCESSING. Of two concurrent assignments naming the same
// technician exactly one succeeds; the other gets TECHNICIAN_UNAVAILABLE.
func (s *AssignmentService) AssignTicket(ctx context.Context, ticketID, technicianID string) (*domain.Ticket, error) {
	var (
		ticket *domain.Ticket
		from   domain.TicketStatus
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return lookupError(err, "ticket", "ticket_id", ticketID)
		}
		tech, err := repos.Technicians.GetForUpdate(ctx, technicianID)
		if err != nil {
			return lookupError(err, "technician", "technician_id", technicianID)
		}

		next, err := domain.NextTicketStatus(ticket.Status, domain.EventAssign)
		if err != nil {
			return transitionError(ticket, domain.EventAssign, err)
		}
		if !tech.Available {
			return apperrors.NewTechnicianUnavailable(tech.ID, tech.CurrentTicketID)
		}
		if err := repos.Technicians.Reserve(ctx, tech.ID, ticket.ID); err != nil {
			if errors.Is(err, repository.ErrTechnicianBusy) {
				return apperrors.NewTechnicianUnavailable(tech.ID, nil)
			}
			return fmt.Errorf("reserve technician: %w", err)
		}

		now := s.timestamp()
		oldTech := ticket.TechnicianID
		from = ticket.Status
		ticket.TechnicianID = &tech.ID
		ticket.Status = next
		ticket.UpdatedAt = now
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		if err := recordTechnicianChange(ctx, repos, ticket.ID, oldTech, ticket.TechnicianID, now); err != nil {
			return err
		}
		return recordStatusChange(ctx, repos, ticket.ID, from, ticket.Status, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx,
		events.Event{
			Type:        events.EventTicketAssigned,
			TicketID:    ticket.ID,
			EquipmentID: ticket.EquipmentID,
			Payload:     events.TicketAssignedPayload{TechnicianID: technicianID},
		},
		statusChangedEvent(ticket, from, ""),
	)
	s.transitioned(ticket.ID, from, ticket.Status)
	return ticket, nil
}
