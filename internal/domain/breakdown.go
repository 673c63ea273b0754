package domain

import "time"

// BreakdownPriority enumerates breakdown urgency.
type BreakdownPriority string

const (
	BreakdownPriorityLow    BreakdownPriority = "LOW"
	BreakdownPriorityMedium BreakdownPriority = "MEDIUM"
	BreakdownPriorityHigh   BreakdownPriority = "HIGH"
)

// BreakdownCategory groups breakdown types.
type BreakdownCategory string

const (
	BreakdownCategoryHardware BreakdownCategory = "HARDWARE"
	BreakdownCategorySoftware BreakdownCategory = "SOFTWARE"
	BreakdownCategoryNetwork  BreakdownCategory = "NETWORK"
)

// Breakdown is an immutable fault type from the catalog.
type Breakdown struct {
	ID          string
	Name        string
	Description string
	Priority    BreakdownPriority
	Category    BreakdownCategory
	CreatedAt   time.Time
}
