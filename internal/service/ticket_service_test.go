package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

func TestCreateTicketBindsCurrentOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c1 := f.seedClient(t, "c1")
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, &c1.ID)
	b := f.seedBreakdown(t, "screen")

	report, err := f.faults.ReportFault(ctx, eq.ID, b.ID)
	require.NoError(t, err)
	f.resetEvents()

	ticket, err := f.tickets.CreateTicket(ctx, report, "  screen cracked ")
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, c1.ID, ticket.ClientID)
	assert.Nil(t, ticket.TechnicianID)
	assert.Nil(t, ticket.ResolvedAt)
	assert.Equal(t, "screen cracked", ticket.Description)
	assert.Equal(t, report.Key(), ticket.FaultReportKey())
	assert.False(t, ticket.ReportedAt.IsZero())
	assert.Equal(t, ticket.ReportedAt, ticket.UpdatedAt)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.eventTypes())

	history, err := f.tickets.ListHistory(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChangeTypeStatus, history[0].ChangeType)
	assert.Equal(t, "PENDING", history[0].NewValue["status"])
}

func TestCreateTicketTwiceYieldsIndependentTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.seedClient(t, "c")
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, &c.ID)
	b := f.seedBreakdown(t, "screen")
	report, err := f.faults.ReportFault(ctx, eq.ID, b.ID)
	require.NoError(t, err)

	first, err := f.tickets.CreateTicket(ctx, report, "one")
	require.NoError(t, err)
	second, err := f.tickets.CreateTicket(ctx, report, "two")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.FaultReportKey(), second.FaultReportKey())
}

func TestCreateTicketKeepsClientSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c1 := f.seedClient(t, "c1")
	c2 := f.seedClient(t, "c2")
	eq := f.seedEquipment(t, domain.EquipmentStatusAvailable, &c1.ID)
	b := f.seedBreakdown(t, "screen")

	report, ticket, err := f.tickets.ReportFaultWithTicket(ctx, eq.ID, b.ID, "broken")
	require.NoError(t, err)
	require.Equal(t, c1.ID, ticket.ClientID)

	// ownership changes after the ticket was opened
	owned := f.equipmentByID(t, eq.ID)
	owned.ClientID = &c2.ID
	require.NoError(t, f.store.Repos().Equipment.Update(ctx, owned))

	assert.Equal(t, c1.ID, f.ticket(t, ticket.ID).ClientID)

	// a new ticket on a freshly loaded report binds the new owner
	report.Equipment = nil
	later, err := f.tickets.CreateTicket(ctx, report, "again")
	require.NoError(t, err)
	assert.Equal(t, c2.ID, later.ClientID)
}

func TestCreateTicketWithoutOwnerFailsWithClientNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, nil)
	b := f.seedBreakdown(t, "screen")
	report, err := f.faults.ReportFault(ctx, eq.ID, b.ID)
	require.NoError(t, err)

	_, err = f.tickets.CreateTicket(ctx, report, "no owner")
	assert.True(t, apperrors.IsNotFound(err, "client"), "got %v", err)

	tickets, err := f.tickets.ListTickets(ctx, TicketQuery{})
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestCreateTicketRejectsNonClientOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.seedTechnician(t, "tech")
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, &tech.ID)
	b := f.seedBreakdown(t, "screen")
	report, err := f.faults.ReportFault(ctx, eq.ID, b.ID)
	require.NoError(t, err)

	_, err = f.tickets.CreateTicket(ctx, report, "odd owner")
	assert.True(t, apperrors.IsNotFound(err, "client"), "got %v", err)

	_, err = f.tickets.CreateTicket(ctx, nil, "nil report")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestReportFaultWithTicketIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, nil)
	b := f.seedBreakdown(t, "screen")

	_, _, err := f.tickets.ReportFaultWithTicket(ctx, eq.ID, b.ID, "no owner")
	assert.True(t, apperrors.IsNotFound(err, "client"), "got %v", err)

	assert.Equal(t, domain.EquipmentStatusInService, f.equipmentByID(t, eq.ID).Status)
	reports, err := f.equipment.ListFaultReports(ctx, eq.ID)
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Empty(t, f.eventTypes())
}

func TestReportFaultWithTicketRollsBackOnHistoryFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.seedClient(t, "c")
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, &c.ID)
	b := f.seedBreakdown(t, "screen")
	f.store.FailOn("history.create", errors.New("write failed"))

	_, _, err := f.tickets.ReportFaultWithTicket(ctx, eq.ID, b.ID, "boom")
	require.Error(t, err)

	assert.Equal(t, domain.EquipmentStatusInService, f.equipmentByID(t, eq.ID).Status)
	tickets, err := f.tickets.ListClientTickets(ctx, c.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestReportFaultWithTicketPublishesBothEvents(t *testing.T) {
	f := newFixture(t)
	_, eq := f.openTicket(t)

	assert.Equal(t, []events.EventType{events.EventFaultReported, events.EventTicketCreated}, f.eventTypes())
	assert.Equal(t, domain.EquipmentStatusBrokenDown, f.equipmentByID(t, eq.ID).Status)
	assert.Equal(t, int64(1), f.metrics.TransitionCount("", "PENDING"))
}

func TestTicketReadPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1, _ := f.openTicket(t)
	t2, _ := f.openTicket(t)
	tech := f.seedTechnician(t, "tech")

	_, err := f.assignment.AssignTicket(ctx, t1.ID, tech.ID)
	require.NoError(t, err)

	pending, err := f.tickets.ListPendingTickets(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, t2.ID, pending[0].ID)

	byClient, err := f.tickets.ListClientTickets(ctx, t2.ClientID, 0, 0)
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, t2.ID, byClient[0].ID)

	byTech, err := f.tickets.ListTechnicianTickets(ctx, tech.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, byTech, 1)
	assert.Equal(t, t1.ID, byTech[0].ID)

	processing, err := f.tickets.ListProcessingTickets(ctx, tech.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, processing, 1)

	_, err = f.repair.StartRepair(ctx, t1.ID)
	require.NoError(t, err)
	processing, err = f.tickets.ListProcessingTickets(ctx, tech.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, processing)

	byStatus, err := f.tickets.ListTickets(ctx, TicketQuery{Statuses: []domain.TicketStatus{domain.TicketStatusRepairing}})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, t1.ID, byStatus[0].ID)

	all, err := f.tickets.ListTickets(ctx, TicketQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	got, err := f.tickets.GetTicket(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusRepairing, got.Status)
}

func TestTicketReadPathsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tickets.GetTicket(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err, "ticket"))

	_, err = f.tickets.ListHistory(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err, "ticket"))

	_, err = f.tickets.ListClientTickets(ctx, "missing", 0, 0)
	assert.True(t, apperrors.IsNotFound(err, "client"))

	_, err = f.tickets.ListTechnicianTickets(ctx, "missing", 0, 0)
	assert.True(t, apperrors.IsNotFound(err, "technician"))

	_, err = f.tickets.ListTickets(ctx, TicketQuery{Statuses: []domain.TicketStatus{"ARCHIVED"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
