package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-service/internal/domain"
)

// TechnicianFilter defines query params for technician listing.
type TechnicianFilter struct {
	Available *bool
	Limit     int
	Offset    int
}

// TechnicianRepository handles technician availability.
type TechnicianRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Technician, error)
	// Reserve binds the technician to ticketID only if they are still
	// available. It returns ErrTechnicianBusy otherwise.
	Reserve(ctx context.Context, technicianID, ticketID string) error
	// Release makes the technician available again.
	Release(ctx context.Context, technicianID string) error
	List(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error)
}

const technicianColumns = `u.id, u.full_name, u.email, u.username, u.phone, u.address, u.avatar_url, u.role, u.joined_at,
               t.available, t.current_ticket_id, t.updated_at`

type technicianRepository struct {
	db DBTX
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(db DBTX) TechnicianRepository {
	return &technicianRepository{db: db}
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	const query = `
        SELECT ` + technicianColumns + `
        FROM technicians t JOIN users u ON u.id = t.user_id
        WHERE t.user_id=$1`
	return scanTechnician(r.db.QueryRow(ctx, query, id))
}

func (r *technicianRepository) GetForUpdate(ctx context.Context, id string) (*domain.Technician, error) {
	const query = `
        SELECT ` + technicianColumns + `
        FROM technicians t JOIN users u ON u.id = t.user_id
        WHERE t.user_id=$1
        FOR UPDATE OF t`
	return scanTechnician(r.db.QueryRow(ctx, query, id))
}

func (r *technicianRepository) Reserve(ctx context.Context, technicianID, ticketID string) error {
	const query = `
        UPDATE technicians SET available=FALSE, current_ticket_id=$2, updated_at=NOW()
        WHERE user_id=$1 AND available=TRUE`
	cmd, err := r.db.Exec(ctx, query, technicianID, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTechnicianBusy
	}
	return nil
}

func (r *technicianRepository) Release(ctx context.Context, technicianID string) error {
	const query = `
        UPDATE technicians SET available=TRUE, current_ticket_id=NULL, updated_at=NOW()
        WHERE user_id=$1`
	return expectOneRow(r.db.Exec(ctx, query, technicianID))
}

func (r *technicianRepository) List(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error) {
	builder := psql.Select(technicianColumns).
		From("technicians t").
		Join("users u ON u.id = t.user_id")
	if filter.Available != nil {
		builder = builder.Where(sq.Eq{"t.available": *filter.Available})
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset, 50)
	query, args, err := builder.OrderBy("u.full_name ASC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tech)
	}
	return result, rows.Err()
}

func scanTechnician(row pgx.Row) (*domain.Technician, error) {
	var tech domain.Technician
	if err := row.Scan(
		&tech.ID,
		&tech.FullName,
		&tech.Email,
		&tech.Username,
		&tech.Phone,
		&tech.Address,
		&tech.AvatarURL,
		&tech.Role,
		&tech.JoinedAt,
		&tech.Available,
		&tech.CurrentTicketID,
		&tech.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tech, nil
}
