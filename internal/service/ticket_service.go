package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/repository"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// TicketService opens repair tickets and serves ticket reads.
type TicketService struct {
	workflow
}

// TicketQuery describes ticket listing filters.
type TicketQuery struct {
	Statuses     []domain.TicketStatus
	ClientID     *string
	TechnicianID *string
	EquipmentID  *string
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps Dependencies) *TicketService {
	return &TicketService{workflow: newWorkflow(deps)}
}

// CreateTicket opens a PENDING ticket for an already loaded fault report.
// The equipment owner at this moment becomes the ticket's client.
func (s *TicketService) CreateTicket(ctx context.Context, report *domain.FaultReport, description string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = createTicket(ctx, repos, report, description, s.timestamp())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ticketCreatedEvent(ticket))
	s.transitioned(ticket.ID, "", ticket.Status)
	return ticket, nil
}

// ReportFaultWithTicket reports the fault and opens a ticket for it in one
// transaction: if no ticket can be opened the fault report is not kept either.
func (s *TicketService) ReportFaultWithTicket(ctx context.Context, equipmentID, breakdownID, description string) (*domain.FaultReport, *domain.Ticket, error) {
	var (
		report *domain.FaultReport
		ticket *domain.Ticket
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		now := s.timestamp()
		var err error
		report, err = reportFault(ctx, repos, s.catalog, equipmentID, breakdownID, now)
		if err != nil {
			return err
		}
		ticket, err = createTicket(ctx, repos, report, description, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, faultReportedEvent(report), ticketCreatedEvent(ticket))
	s.transitioned(ticket.ID, "", ticket.Status)
	return report, ticket, nil
}

func createTicket(ctx context.Context, repos repository.Repositories, report *domain.FaultReport, description string, now time.Time) (*domain.Ticket, error) {
	if report == nil {
		return nil, apperrors.NewValidationError("fault report is required", nil)
	}
	equipment := report.Equipment
	if equipment == nil {
		var err error
		equipment, err = repos.Equipment.GetByID(ctx, report.EquipmentID)
		if err != nil {
			return nil, lookupError(err, "equipment", "equipment_id", report.EquipmentID)
		}
	}
	if equipment.ClientID == nil {
		return nil, apperrors.NewNotFound("client", map[string]any{"equipment_id": equipment.ID})
	}
	client, err := loadClient(ctx, repos, *equipment.ClientID)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Description: strings.TrimSpace(description),
		Status:      domain.TicketStatusPending,
		EquipmentID: report.EquipmentID,
		BreakdownID: report.BreakdownID,
		ClientID:    client.ID,
		ReportedAt:  now,
		UpdatedAt:   now,
	}
	if err := repos.Tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if err := recordStatusChange(ctx, repos, ticket.ID, "", ticket.Status, now); err != nil {
		return nil, err
	}
	return ticket, nil
}

func loadClient(ctx context.Context, repos repository.Repositories, clientID string) (*domain.Client, error) {
	account, err := repos.Accounts.GetByID(ctx, clientID)
	if err != nil {
		return nil, lookupError(err, "client", "client_id", clientID)
	}
	client, ok := account.(*domain.Client)
	if !ok {
		return nil, apperrors.NewNotFound("client", map[string]any{"client_id": clientID})
	}
	return client, nil
}

func ticketCreatedEvent(ticket *domain.Ticket) events.Event {
	return events.Event{
		Type:        events.EventTicketCreated,
		TicketID:    ticket.ID,
		EquipmentID: ticket.EquipmentID,
		Payload: events.TicketCreatedPayload{
			BreakdownID: ticket.BreakdownID,
			ClientID:    ticket.ClientID,
			Description: ticket.Description,
		},
	}
}

// GetTicket returns a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Repos().Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupError(err, "ticket", "ticket_id", ticketID)
	}
	return ticket, nil
}

// ListTickets returns tickets matching query, most recently updated first.
func (s *TicketService) ListTickets(ctx context.Context, query TicketQuery) ([]domain.Ticket, error) {
	for _, st := range query.Statuses {
		if !st.Valid() {
			return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": st})
		}
	}
	tickets, err := s.store.Repos().Tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:     query.Statuses,
		ClientID:     query.ClientID,
		TechnicianID: query.TechnicianID,
		EquipmentID:  query.EquipmentID,
		Limit:        query.Limit,
		Offset:       query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// ListPendingTickets returns tickets waiting for a technician.
func (s *TicketService) ListPendingTickets(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	return s.ListTickets(ctx, TicketQuery{
		Statuses: []domain.TicketStatus{domain.TicketStatusPending},
		Limit:    limit,
		Offset:   offset,
	})
}

// ListClientTickets returns the tickets raised for a client's equipment.
func (s *TicketService) ListClientTickets(ctx context.Context, clientID string, limit, offset int) ([]domain.Ticket, error) {
	if _, err := loadClient(ctx, s.store.Repos(), clientID); err != nil {
		return nil, err
	}
	return s.ListTickets(ctx, TicketQuery{ClientID: &clientID, Limit: limit, Offset: offset})
}

// ListTechnicianTickets returns every ticket ever assigned to a technician.
func (s *TicketService) ListTechnicianTickets(ctx context.Context, technicianID string, limit, offset int) ([]domain.Ticket, error) {
	if err := s.ensureTechnician(ctx, technicianID); err != nil {
		return nil, err
	}
	return s.ListTickets(ctx, TicketQuery{TechnicianID: &technicianID, Limit: limit, Offset: offset})
}

// ListProcessingTickets returns the technician's tickets in PROCESSING.
func (s *TicketService) ListProcessingTickets(ctx context.Context, technicianID string, limit, offset int) ([]domain.Ticket, error) {
	if err := s.ensureTechnician(ctx, technicianID); err != nil {
		return nil, err
	}
	return s.ListTickets(ctx, TicketQuery{
		Statuses:     []domain.TicketStatus{domain.TicketStatusProcessing},
		TechnicianID: &technicianID,
		Limit:        limit,
		Offset:       offset,
	})
}

// ListHistory returns the audit trail of a ticket, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	repos := s.store.Repos()
	if _, err := repos.Tickets.GetByID(ctx, ticketID); err != nil {
		return nil, lookupError(err, "ticket", "ticket_id", ticketID)
	}
	history, err := repos.History.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return history, nil
}

func (s *TicketService) ensureTechnician(ctx context.Context, technicianID string) error {
	if _, err := s.store.Repos().Technicians.GetByID(ctx, technicianID); err != nil {
		return lookupError(err, "technician", "technician_id", technicianID)
	}
	return nil
}
