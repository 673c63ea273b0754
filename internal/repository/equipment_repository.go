package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-service/internal/domain"
)

// EquipmentFilter captures equipment listing parameters.
type EquipmentFilter struct {
	Statuses []domain.EquipmentStatus
	ClientID *string
	Limit    int
	Offset   int
}

// EquipmentRepository encapsulates equipment persistence.
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *domain.Equipment) error
	Update(ctx context.Context, equipment *domain.Equipment) error
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Equipment, error)
	List(ctx context.Context, filter EquipmentFilter) ([]domain.Equipment, error)
}

const equipmentColumns = `id, name, model, serial_number, category, price, status, client_id, created_at, updated_at`

type equipmentRepository struct {
	db DBTX
}

// NewEquipmentRepository instantiates repository.
func NewEquipmentRepository(db DBTX) EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) Create(ctx context.Context, equipment *domain.Equipment) error {
	const query = `
        INSERT INTO equipment (name, model, serial_number, category, price, status, client_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		equipment.Name,
		equipment.Model,
		equipment.SerialNumber,
		equipment.Category,
		equipment.Price,
		equipment.Status,
		equipment.ClientID,
	).Scan(&equipment.ID, &equipment.CreatedAt, &equipment.UpdatedAt)
}

func (r *equipmentRepository) Update(ctx context.Context, equipment *domain.Equipment) error {
	const query = `
        UPDATE equipment SET name=$1, model=$2, serial_number=$3, category=$4, price=$5,
            status=$6, client_id=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		equipment.Name,
		equipment.Model,
		equipment.SerialNumber,
		equipment.Category,
		equipment.Price,
		equipment.Status,
		equipment.ClientID,
		equipment.ID,
	).Scan(&equipment.UpdatedAt)
}

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	const query = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id=$1`
	return scanEquipment(r.db.QueryRow(ctx, query, id))
}

func (r *equipmentRepository) GetForUpdate(ctx context.Context, id string) (*domain.Equipment, error) {
	const query = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id=$1 FOR UPDATE`
	return scanEquipment(r.db.QueryRow(ctx, query, id))
}

func (r *equipmentRepository) List(ctx context.Context, filter EquipmentFilter) ([]domain.Equipment, error) {
	builder := psql.Select(equipmentColumns).From("equipment")
	if len(filter.Statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": filter.Statuses})
	}
	if filter.ClientID != nil {
		builder = builder.Where(sq.Eq{"client_id": *filter.ClientID})
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset, 50)
	query, args, err := builder.OrderBy("updated_at DESC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Equipment
	for rows.Next() {
		equipment, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *equipment)
	}
	return result, rows.Err()
}

func scanEquipment(row pgx.Row) (*domain.Equipment, error) {
	var equipment domain.Equipment
	if err := row.Scan(
		&equipment.ID,
		&equipment.Name,
		&equipment.Model,
		&equipment.SerialNumber,
		&equipment.Category,
		&equipment.Price,
		&equipment.Status,
		&equipment.ClientID,
		&equipment.CreatedAt,
		&equipment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &equipment, nil
}
