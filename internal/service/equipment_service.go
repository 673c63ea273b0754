package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/repository"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// EquipmentService serves equipment, fault report and technician reads and
// hands equipment over to clients.
type EquipmentService struct {
	workflow
}

// EquipmentQuery describes equipment listing filters.
type EquipmentQuery struct {
	Statuses []domain.EquipmentStatus
	ClientID *string
	Limit    int
	Offset   int
}

// NewEquipmentService creates the service.
func NewEquipmentService(deps Dependencies) *EquipmentService {
	return &EquipmentService{workflow: newWorkflow(deps)}
}

// GetEquipment returns a piece of equipment by id.
func (s *EquipmentService) GetEquipment(ctx context.Context, equipmentID string) (*domain.Equipment, error) {
	equipment, err := s.store.Repos().Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, lookupError(err, "equipment", "equipment_id", equipmentID)
	}
	return equipment, nil
}

// ListEquipment returns equipment matching query.
func (s *EquipmentService) ListEquipment(ctx context.Context, query EquipmentQuery) ([]domain.Equipment, error) {
	for _, st := range query.Statuses {
		if !st.Valid() {
			return nil, apperrors.NewValidationError("unknown equipment status", map[string]any{"status": st})
		}
	}
	items, err := s.store.Repos().Equipment.List(ctx, repository.EquipmentFilter{
		Statuses: query.Statuses,
		ClientID: query.ClientID,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return items, nil
}

// ListClientEquipment returns the equipment owned by a client.
func (s *EquipmentService) ListClientEquipment(ctx context.Context, clientID string, limit, offset int) ([]domain.Equipment, error) {
	if _, err := loadClient(ctx, s.store.Repos(), clientID); err != nil {
		return nil, err
	}
	return s.ListEquipment(ctx, EquipmentQuery{ClientID: &clientID, Limit: limit, Offset: offset})
}

// AssignToClient hands equipment over to a client and puts it IN_SERVICE.
// Equipment that is BROKEN_DOWN or OUT_OF_SERVICE cannot be handed over.
func (s *EquipmentService) AssignToClient(ctx context.Context, equipmentID, clientID string) (*domain.Equipment, error) {
	var equipment *domain.Equipment
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		equipment, err = repos.Equipment.GetForUpdate(ctx, equipmentID)
		if err != nil {
			return lookupError(err, "equipment", "equipment_id", equipmentID)
		}
		client, err := loadClient(ctx, repos, clientID)
		if err != nil {
			return err
		}
		switch equipment.Status {
		case domain.EquipmentStatusBrokenDown, domain.EquipmentStatusOutOfService:
			return apperrors.NewConflict("equipment cannot be handed over", map[string]any{
				"equipment_id": equipment.ID,
				"status":       equipment.Status,
			})
		}

		equipment.ClientID = &client.ID
		equipment.Status = domain.EquipmentStatusInService
		if err := repos.Equipment.Update(ctx, equipment); err != nil {
			return fmt.Errorf("update equipment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return equipment, nil
}

// ListFaultReports returns the fault reports of a piece of equipment with
// their equipment and breakdown loaded, most recently reported first.
func (s *EquipmentService) ListFaultReports(ctx context.Context, equipmentID string) ([]domain.FaultReport, error) {
	repos := s.store.Repos()
	equipment, err := repos.Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, lookupError(err, "equipment", "equipment_id", equipmentID)
	}
	reports, err := repos.FaultReports.ListByEquipment(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("list fault reports: %w", err)
	}
	for i := range reports {
		breakdown, err := s.catalog.Lookup(ctx, repos.Breakdowns, reports[i].BreakdownID)
		if err != nil {
			return nil, lookupError(err, "breakdown", "breakdown_id", reports[i].BreakdownID)
		}
		reports[i].Equipment = equipment
		reports[i].Breakdown = breakdown
	}
	return reports, nil
}

// ListAvailableTechnicians returns technicians free to take a ticket.
func (s *EquipmentService) ListAvailableTechnicians(ctx context.Context, limit, offset int) ([]domain.Technician, error) {
	techs, err := s.store.Repos().Technicians.List(ctx, repository.TechnicianFilter{
		Available: ptr(true),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	return techs, nil
}
