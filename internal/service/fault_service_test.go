package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

func TestReportFaultMarksEquipmentBrokenDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.seedEquipment(t, domain.EquipmentStatusAvailable, nil)
	b := f.seedBreakdown(t, "screen")

	report, err := f.faults.ReportFault(ctx, eq.ID, b.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.FaultReportKey{EquipmentID: eq.ID, BreakdownID: b.ID}, report.Key())
	assert.Equal(t, 1, report.ReportCount)
	require.NotNil(t, report.Equipment)
	require.NotNil(t, report.Breakdown)
	assert.Equal(t, domain.EquipmentStatusBrokenDown, report.Equipment.Status)
	assert.Equal(t, domain.EquipmentStatusBrokenDown, f.equipmentByID(t, eq.ID).Status)
	assert.Equal(t, []events.EventType{events.EventFaultReported}, f.eventTypes())
}

func TestReportFaultOverwritesAnyStatus(t *testing.T) {
	for _, status := range []domain.EquipmentStatus{
		domain.EquipmentStatusInService,
		domain.EquipmentStatusOutOfService,
		domain.EquipmentStatusBrokenDown,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			eq := f.seedEquipment(t, status, nil)
			b := f.seedBreakdown(t, "disk")

			_, err := f.faults.ReportFault(context.Background(), eq.ID, b.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.EquipmentStatusBrokenDown, f.equipmentByID(t, eq.ID).Status)
		})
	}
}

func TestReportFaultTwiceReopensTheSameReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, nil)
	b := f.seedBreakdown(t, "fan")

	first, err := f.faults.ReportFault(ctx, eq.ID, b.ID)
	require.NoError(t, err)
	second, err := f.faults.ReportFault(ctx, eq.ID, b.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Key(), second.Key())
	assert.Equal(t, 2, second.ReportCount)
	assert.Equal(t, first.FirstReportedAt, second.FirstReportedAt)
	assert.True(t, second.LastReportedAt.After(first.LastReportedAt))

	reports, err := f.equipment.ListFaultReports(ctx, eq.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].ReportCount)
}

func TestReportFaultNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, nil)
	b := f.seedBreakdown(t, "psu")

	_, err := f.faults.ReportFault(ctx, "missing", b.ID)
	assert.True(t, apperrors.IsNotFound(err, "equipment"), "got %v", err)

	_, err = f.faults.ReportFault(ctx, eq.ID, "missing")
	assert.True(t, apperrors.IsNotFound(err, "breakdown"), "got %v", err)
	assert.Equal(t, domain.EquipmentStatusInService, f.equipmentByID(t, eq.ID).Status)

	// equipment is checked before breakdown
	_, err = f.faults.ReportFault(ctx, "missing", "missing")
	assert.True(t, apperrors.IsNotFound(err, "equipment"), "got %v", err)

	assert.Empty(t, f.eventTypes())
}

func TestReportFaultRollsBackWhenReportCannotBeStored(t *testing.T) {
	f := newFixture(t)
	eq := f.seedEquipment(t, domain.EquipmentStatusInService, nil)
	b := f.seedBreakdown(t, "ram")
	f.store.FailOn("fault_reports.upsert", errors.New("disk full"))

	_, err := f.faults.ReportFault(context.Background(), eq.ID, b.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, domain.EquipmentStatusInService, f.equipmentByID(t, eq.ID).Status)
	assert.Empty(t, f.eventTypes())
}

func TestBreakdownCatalogCachesLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.seedBreakdown(t, "keyboard")
	catalog := NewBreakdownCatalog(defaultTestTTL)

	got, err := catalog.Lookup(ctx, f.store.Repos().Breakdowns, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Name, got.Name)
	assert.Equal(t, 1, catalog.Len())

	// served from cache even when the store fails
	f.store.FailOn("breakdowns.get", errors.New("offline"))
	got, err = catalog.Lookup(ctx, f.store.Repos().Breakdowns, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	uncached := NewBreakdownCatalog(0)
	_, err = uncached.Lookup(ctx, f.store.Repos().Breakdowns, "missing")
	require.Error(t, err)
	assert.Zero(t, uncached.Len())
}

func TestLookupErrorTreatsMalformedIDAsMissing(t *testing.T) {
	err := lookupError(&pgconn.PgError{Code: "22P02"}, "ticket", "ticket_id", "nope")
	assert.True(t, apperrors.IsNotFound(err, "ticket"))

	err = lookupError(errors.New("conn reset"), "ticket", "ticket_id", "t-1")
	assert.False(t, apperrors.IsNotFound(err, ""))
	assert.Contains(t, err.Error(), "conn reset")
}
