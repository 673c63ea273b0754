package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/repository"
)

// FaultService records breakdowns reported against equipment.
type FaultService struct {
	workflow
}

// NewFaultService creates the service.
func NewFaultService(deps Dependencies) *FaultService {
	return &FaultService{workflow: newWorkflow(deps)}
}

// ReportFault marks the equipment BROKEN_DOWN and records the
// (equipment, breakdown) report. Reporting a known pair again reopens it.
func (s *FaultService) ReportFault(ctx context.Context, equipmentID, breakdownID string) (*domain.FaultReport, error) {
	var report *domain.FaultReport
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		report, err = reportFault(ctx, repos, s.catalog, equipmentID, breakdownID, s.timestamp())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, faultReportedEvent(report))
	return report, nil
}

func reportFault(ctx context.Context, repos repository.Repositories, catalog *BreakdownCatalog, equipmentID, breakdownID string, now time.Time) (*domain.FaultReport, error) {
	equipment, err := repos.Equipment.GetForUpdate(ctx, equipmentID)
	if err != nil {
		return nil, lookupError(err, "equipment", "equipment_id", equipmentID)
	}
	breakdown, err := catalog.Lookup(ctx, repos.Breakdowns, breakdownID)
	if err != nil {
		return nil, lookupError(err, "breakdown", "breakdown_id", breakdownID)
	}

	equipment.Status = domain.EquipmentStatusBrokenDown
	if err := repos.Equipment.Update(ctx, equipment); err != nil {
		return nil, fmt.Errorf("update equipment: %w", err)
	}

	report := &domain.FaultReport{
		EquipmentID:    equipment.ID,
		BreakdownID:    breakdown.ID,
		LastReportedAt: now,
	}
	if err := repos.FaultReports.Upsert(ctx, report); err != nil {
		return nil, fmt.Errorf("store fault report: %w", err)
	}
	report.Equipment = equipment
	report.Breakdown = breakdown
	return report, nil
}

func faultReportedEvent(report *domain.FaultReport) events.Event {
	return events.Event{
		Type:        events.EventFaultReported,
		EquipmentID: report.EquipmentID,
		Payload: events.FaultReportedPayload{
			BreakdownID: report.BreakdownID,
			ReportCount: report.ReportCount,
		},
	}
}
