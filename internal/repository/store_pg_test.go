package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/persistence"
)

var testPool *pgxpool.Pool

// TestMain connects to TEST_POSTGRES_DSN and applies the embedded migrations.
// Without it the Postgres tests skip.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect test database: %v\n", err)
		os.Exit(1)
	}
	if err := persistence.RunMigrations(ctx, pool, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate test database: %v\n", err)
		os.Exit(1)
	}
	testPool = pool
	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func newTestStore(t *testing.T) Store {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE ticket_history, technicians, tickets, fault_reports, breakdowns, equipment, users CASCADE`)
	require.NoError(t, err)
	return NewStore(testPool)
}

func seedAccounts(t *testing.T, repos Repositories) (*domain.Client, *domain.Technician) {
	t.Helper()
	ctx := context.Background()
	client := domain.NewClient(domain.User{FullName: "Cleo", Email: "cleo@example.com", Username: "cleo"})
	tech := domain.NewTechnician(domain.User{FullName: "Tess", Email: "tess@example.com", Username: "tess"})
	require.NoError(t, repos.Accounts.Create(ctx, client))
	require.NoError(t, repos.Accounts.Create(ctx, tech))
	return client, tech
}

func seedTicket(t *testing.T, repos Repositories, client *domain.Client) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	eq := &domain.Equipment{Name: "Router", Status: domain.EquipmentStatusBrokenDown, ClientID: &client.ID}
	require.NoError(t, repos.Equipment.Create(ctx, eq))
	b := &domain.Breakdown{Name: "no link", Priority: domain.BreakdownPriorityMedium, Category: domain.BreakdownCategoryNetwork}
	require.NoError(t, repos.Breakdowns.Create(ctx, b))
	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repos.FaultReports.Upsert(ctx, &domain.FaultReport{
		EquipmentID: eq.ID, BreakdownID: b.ID, LastReportedAt: now,
	}))
	ticket := &domain.Ticket{
		Status: domain.TicketStatusPending, EquipmentID: eq.ID, BreakdownID: b.ID,
		ClientID: client.ID, ReportedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Tickets.Create(ctx, ticket))
	return ticket
}

func TestAccountsRoundTripByRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	client, tech := seedAccounts(t, store.Repos())
	admin := domain.NewAdmin(domain.User{FullName: "Ada", Email: "ada@example.com", Username: "ada"})
	require.NoError(t, store.Repos().Accounts.Create(ctx, admin))

	got, err := store.Repos().Accounts.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.IsType(t, &domain.Client{}, got)

	got, err = store.Repos().Accounts.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.IsType(t, &domain.Admin{}, got)

	got, err = store.Repos().Accounts.GetByID(ctx, tech.ID)
	require.NoError(t, err)
	storedTech, ok := got.(*domain.Technician)
	require.True(t, ok)
	assert.True(t, storedTech.Available)
	assert.Nil(t, storedTech.CurrentTicketID)
}

func TestFaultReportUpsertCountsReports(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	client, _ := seedAccounts(t, store.Repos())
	ticket := seedTicket(t, store.Repos(), client)

	later := time.Now().UTC().Add(time.Minute).Truncate(time.Microsecond)
	report := &domain.FaultReport{EquipmentID: ticket.EquipmentID, BreakdownID: ticket.BreakdownID, LastReportedAt: later}
	require.NoError(t, store.Repos().FaultReports.Upsert(ctx, report))
	assert.Equal(t, 2, report.ReportCount)
	assert.True(t, report.FirstReportedAt.Before(report.LastReportedAt))

	reports, err := store.Repos().FaultReports.ListByEquipment(ctx, ticket.EquipmentID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].ReportCount)
}

func TestTechnicianReserveIsExclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	client, tech := seedAccounts(t, store.Repos())
	first := seedTicket(t, store.Repos(), client)
	second := seedTicket(t, store.Repos(), client)

	require.NoError(t, store.Repos().Technicians.Reserve(ctx, tech.ID, first.ID))
	err := store.Repos().Technicians.Reserve(ctx, tech.ID, second.ID)
	assert.ErrorIs(t, err, ErrTechnicianBusy)

	busy := false
	techs, err := store.Repos().Technicians.List(ctx, TechnicianFilter{Available: &busy})
	require.NoError(t, err)
	require.Len(t, techs, 1)
	assert.Equal(t, first.ID, *techs[0].CurrentTicketID)

	require.NoError(t, store.Repos().Technicians.Release(ctx, tech.ID))
	got, err := store.Repos().Technicians.GetByID(ctx, tech.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestWithinTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	client, tech := seedAccounts(t, store.Repos())
	ticket := seedTicket(t, store.Repos(), client)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Technicians.Reserve(ctx, tech.ID, ticket.ID); err != nil {
			return err
		}
		ticket.Status = domain.TicketStatusProcessing
		ticket.TechnicianID = &tech.ID
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := store.Repos().Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)
	assert.Nil(t, stored.TechnicianID)
	storedTech, err := store.Repos().Technicians.GetByID(ctx, tech.ID)
	require.NoError(t, err)
	assert.True(t, storedTech.Available)
}

func TestTicketListAndHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	client, _ := seedAccounts(t, store.Repos())
	ticket := seedTicket(t, store.Repos(), client)
	seedTicket(t, store.Repos(), client)

	tickets, err := store.Repos().Tickets.ListWithFilter(ctx, TicketFilter{ClientID: &client.ID})
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	tickets, err = store.Repos().Tickets.ListWithFilter(ctx, TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusRepaired},
	})
	require.NoError(t, err)
	assert.Empty(t, tickets)

	at := time.Now().UTC()
	entries := []domain.TicketHistory{
		{ChangedByType: domain.RoleSystem, NewValue: map[string]any{"status": "PENDING"}},
		{ChangedByType: domain.RoleClient, ChangedByID: &client.ID, NewValue: map[string]any{"status": "PROCESSING"}},
	}
	for i := range entries {
		entry := entries[i]
		entry.TicketID = ticket.ID
		entry.ChangeType = domain.ChangeTypeStatus
		entry.OldValue = map[string]any{}
		entry.CreatedAt = at
		require.NoError(t, store.Repos().History.Create(ctx, &entry))
	}
	history, err := store.Repos().History.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "PENDING", history[0].NewValue["status"])
	assert.Equal(t, "PROCESSING", history[1].NewValue["status"])
	assert.Equal(t, domain.RoleSystem, history[0].ChangedByType)
	assert.Nil(t, history[0].ChangedByID)
	assert.Equal(t, domain.RoleClient, history[1].ChangedByType)
	require.NotNil(t, history[1].ChangedByID)
	assert.Equal(t, client.ID, *history[1].ChangedByID)

	_, err = store.Repos().Tickets.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
