package domain

import "time"

// EquipmentStatus enumerates the operational state of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentStatusAvailable    EquipmentStatus = "AVAILABLE"
	EquipmentStatusInService    EquipmentStatus = "IN_SERVICE"
	EquipmentStatusOutOfService EquipmentStatus = "OUT_OF_SERVICE"
	EquipmentStatusBrokenDown   EquipmentStatus = "BROKEN_DOWN"
)

// Valid reports whether s is a known equipment status.
func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentStatusAvailable, EquipmentStatusInService, EquipmentStatusOutOfService, EquipmentStatusBrokenDown:
		return true
	}
	return false
}

// Equipment is a physical asset, optionally owned by a client.
type Equipment struct {
	ID           string
	Name         string
	Model        string
	SerialNumber string
	Category     string
	Price        float64
	Status       EquipmentStatus
	ClientID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
