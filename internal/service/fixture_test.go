package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/observability"
	"github.com/spec-kit/repair-service/internal/repository/repotest"
)

type fixture struct {
	store   *repotest.Store
	metrics *observability.Metrics

	faults     *FaultService
	tickets    *TicketService
	assignment *AssignmentService
	repair     *RepairService
	equipment  *EquipmentService

	mu        sync.Mutex
	published []events.Event
	seq       int
}

const defaultTestTTL = time.Minute

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   repotest.New(),
		metrics: observability.NewMetrics(),
	}

	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.published = append(f.published, e)
		return nil
	})

	var (
		clockMu sync.Mutex
		clock   = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	)
	deps := Dependencies{
		Store:      f.store,
		Catalog:    NewBreakdownCatalog(defaultTestTTL),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Metrics:    f.metrics,
		Now: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
	}

	f.faults = NewFaultService(deps)
	f.tickets = NewTicketService(deps)
	f.assignment = NewAssignmentService(deps)
	f.repair = NewRepairService(deps)
	f.equipment = NewEquipmentService(deps)
	return f
}

func (f *fixture) eventTypes() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Type)
	}
	return out
}

func (f *fixture) resetEvents() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = nil
}

func (f *fixture) seedClient(t *testing.T, name string) *domain.Client {
	t.Helper()
	c := domain.NewClient(domain.User{FullName: name, Email: name + "@example.com", Username: name})
	require.NoError(t, f.store.Repos().Accounts.Create(context.Background(), c))
	return c
}

func (f *fixture) seedTechnician(t *testing.T, name string) *domain.Technician {
	t.Helper()
	tech := domain.NewTechnician(domain.User{FullName: name, Email: name + "@example.com", Username: name})
	require.NoError(t, f.store.Repos().Accounts.Create(context.Background(), tech))
	return tech
}

func (f *fixture) seedEquipment(t *testing.T, status domain.EquipmentStatus, clientID *string) *domain.Equipment {
	t.Helper()
	e := &domain.Equipment{Name: "Laptop", Model: "X1", SerialNumber: "SN-1", Status: status, ClientID: clientID}
	require.NoError(t, f.store.Repos().Equipment.Create(context.Background(), e))
	return e
}

func (f *fixture) seedBreakdown(t *testing.T, name string) *domain.Breakdown {
	t.Helper()
	b := &domain.Breakdown{Name: name, Priority: domain.BreakdownPriorityHigh, Category: domain.BreakdownCategoryHardware}
	require.NoError(t, f.store.Repos().Breakdowns.Create(context.Background(), b))
	return b
}

// openTicket seeds an owned piece of equipment and returns a PENDING ticket for it.
func (f *fixture) openTicket(t *testing.T) (*domain.Ticket, *domain.Equipment) {
	t.Helper()
	f.seq++
	client := f.seedClient(t, fmt.Sprintf("client-%d", f.seq))
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, &client.ID)
	b := f.seedBreakdown(t, "screen")
	_, ticket, err := f.tickets.ReportFaultWithTicket(context.Background(), eq.ID, b.ID, "screen cracked")
	require.NoError(t, err)
	return ticket, eq
}

func (f *fixture) technician(t *testing.T, id string) *domain.Technician {
	t.Helper()
	tech, err := f.store.Repos().Technicians.GetByID(context.Background(), id)
	require.NoError(t, err)
	return tech
}

func (f *fixture) equipmentByID(t *testing.T, id string) *domain.Equipment {
	t.Helper()
	e, err := f.store.Repos().Equipment.GetByID(context.Background(), id)
	require.NoError(t, err)
	return e
}

func (f *fixture) ticket(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	tk, err := f.store.Repos().Tickets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return tk
}
