package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-service/internal/domain"
)

// FaultReportRepository stores (equipment, breakdown) reports.
type FaultReportRepository interface {
	// Upsert inserts the report or, when the pair already exists, increments
	// its ReportCount and refreshes LastReportedAt. The stored row is scanned
	// back into report.
	Upsert(ctx context.Context, report *domain.FaultReport) error
	Get(ctx context.Context, key domain.FaultReportKey) (*domain.FaultReport, error)
	ListByEquipment(ctx context.Context, equipmentID string) ([]domain.FaultReport, error)
}

const faultReportColumns = `equipment_id, breakdown_id, report_count, first_reported_at, last_reported_at`

type faultReportRepository struct {
	db DBTX
}

// NewFaultReportRepository builds repository.
func NewFaultReportRepository(db DBTX) FaultReportRepository {
	return &faultReportRepository{db: db}
}

func (r *faultReportRepository) Upsert(ctx context.Context, report *domain.FaultReport) error {
	const query = `
        INSERT INTO fault_reports (equipment_id, breakdown_id, report_count, first_reported_at, last_reported_at)
        VALUES ($1,$2,1,$3,$3)
        ON CONFLICT (equipment_id, breakdown_id) DO UPDATE
        SET report_count = fault_reports.report_count + 1,
            last_reported_at = EXCLUDED.last_reported_at
        RETURNING report_count, first_reported_at, last_reported_at`
	return r.db.QueryRow(ctx, query,
		report.EquipmentID,
		report.BreakdownID,
		report.LastReportedAt,
	).Scan(&report.ReportCount, &report.FirstReportedAt, &report.LastReportedAt)
}

func (r *faultReportRepository) Get(ctx context.Context, key domain.FaultReportKey) (*domain.FaultReport, error) {
	const query = `
        SELECT ` + faultReportColumns + `
        FROM fault_reports WHERE equipment_id=$1 AND breakdown_id=$2`
	return scanFaultReport(r.db.QueryRow(ctx, query, key.EquipmentID, key.BreakdownID))
}

func (r *faultReportRepository) ListByEquipment(ctx context.Context, equipmentID string) ([]domain.FaultReport, error) {
	const query = `
        SELECT ` + faultReportColumns + `
        FROM fault_reports WHERE equipment_id=$1 ORDER BY last_reported_at DESC`
	rows, err := r.db.Query(ctx, query, equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FaultReport
	for rows.Next() {
		report, err := scanFaultReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *report)
	}
	return result, rows.Err()
}

func scanFaultReport(row pgx.Row) (*domain.FaultReport, error) {
	var report domain.FaultReport
	if err := row.Scan(
		&report.EquipmentID,
		&report.BreakdownID,
		&report.ReportCount,
		&report.FirstReportedAt,
		&report.LastReportedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}
