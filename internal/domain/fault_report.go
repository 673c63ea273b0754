package domain

import "time"

// FaultReportKey identifies a fault report.
type FaultReportKey struct {
	EquipmentID string
	BreakdownID string
}

// FaultReport records that a breakdown was reported against a piece of equipment.
// A pair is stored once; reporting it again bumps ReportCount.
type FaultReport struct {
	EquipmentID     string
	BreakdownID     string
	ReportCount     int
	FirstReportedAt time.Time
	LastReportedAt  time.Time

	Equipment *Equipment
	Breakdown *Breakdown
}

// Key returns the composite identifier of the report.
func (r *FaultReport) Key() FaultReportKey {
	return FaultReportKey{EquipmentID: r.EquipmentID, BreakdownID: r.BreakdownID}
}
