package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/repository"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// RepairService moves assigned tickets through repair to a terminal outcome.
type RepairService struct {
	workflow
}

// NewRepairService creates the service.
func NewRepairService(deps Dependencies) *RepairService {
	return &RepairService{workflow: newWorkflow(deps)}
}

// StartRepair moves a PROCESSING ticket to REPAIRING. Starting a ticket that
// is already REPAIRING changes nothing.
func (s *RepairService) StartRepair(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	var (
		ticket  *domain.Ticket
		from    domain.TicketStatus
		changed bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return lookupError(err, "ticket", "ticket_id", ticketID)
		}
		if ticket.Status == domain.TicketStatusRepairing {
			return nil
		}
		next, err := domain.NextTicketStatus(ticket.Status, domain.EventStartRepair)
		if err != nil {
			return transitionError(ticket, domain.EventStartRepair, err)
		}

		now := s.timestamp()
		from = ticket.Status
		ticket.Status = next
		ticket.UpdatedAt = now
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		changed = true
		return recordStatusChange(ctx, repos, ticket.ID, from, ticket.Status, now)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, statusChangedEvent(ticket, from, ""))
		s.transitioned(ticket.ID, from, ticket.Status)
	}
	return ticket, nil
}

// CompleteRepair closes the ticket as REPAIRED, puts the equipment back
// IN_SERVICE and frees the technician.
func (s *RepairService) CompleteRepair(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.resolve(ctx, ticketID, domain.EventCompleteRepair)
}

// FailRepair closes the ticket as FAILED, marks the equipment OUT_OF_SERVICE
// and frees the technician.
func (s *RepairService) FailRepair(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.resolve(ctx, ticketID, domain.EventFailRepair)
}

func (s *RepairService) resolve(ctx context.Context, ticketID string, event domain.TicketEvent) (*domain.Ticket, error) {
	var (
		ticket          *domain.Ticket
		from            domain.TicketStatus
		equipmentStatus domain.EquipmentStatus
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return lookupError(err, "ticket", "ticket_id", ticketID)
		}
		equipment, err := repos.Equipment.GetForUpdate(ctx, ticket.EquipmentID)
		if err != nil {
			return lookupError(err, "equipment", "equipment_id", ticket.EquipmentID)
		}
		if ticket.TechnicianID == nil {
			return apperrors.NewNotFound("technician", map[string]any{"ticket_id": ticket.ID})
		}
		tech, err := repos.Technicians.GetForUpdate(ctx, *ticket.TechnicianID)
		if err != nil {
			return lookupError(err, "technician", "technician_id", *ticket.TechnicianID)
		}

		next, err := domain.NextTicketStatus(ticket.Status, event)
		if err != nil {
			return transitionError(ticket, event, err)
		}
		var ok bool
		equipmentStatus, ok = domain.EquipmentStatusAfter(next)
		if !ok {
			return fmt.Errorf("event %s does not resolve ticket %s", event, ticket.ID)
		}

		now := s.timestamp()
		from = ticket.Status
		ticket.Status = next
		ticket.UpdatedAt = now
		ticket.ResolvedAt = &now
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}

		equipment.Status = equipmentStatus
		if err := repos.Equipment.Update(ctx, equipment); err != nil {
			return fmt.Errorf("update equipment: %w", err)
		}
		if err := repos.Technicians.Release(ctx, tech.ID); err != nil {
			return fmt.Errorf("release technician: %w", err)
		}
		return recordStatusChange(ctx, repos, ticket.ID, from, ticket.Status, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, statusChangedEvent(ticket, from, equipmentStatus))
	s.transitioned(ticket.ID, from, ticket.Status)
	return ticket, nil
}
