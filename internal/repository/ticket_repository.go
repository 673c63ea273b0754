package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-service/internal/domain"
)

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	Statuses     []domain.TicketStatus
	ClientID     *string
	TechnicianID *string
	EquipmentID  *string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

const ticketColumns = `id, description, status, equipment_id, breakdown_id, client_id, technician_id,
               reported_at, updated_at, resolved_at`

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (description, status, equipment_id, breakdown_id, client_id, technician_id, reported_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		ticket.Description,
		ticket.Status,
		ticket.EquipmentID,
		ticket.BreakdownID,
		ticket.ClientID,
		ticket.TechnicianID,
		ticket.ReportedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID)
}

// Update writes the mutable lifecycle fields. Description, fault report and
// client are fixed at creation.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, technician_id=$2, updated_at=$3, resolved_at=$4
        WHERE id=$5`
	return expectOneRow(r.db.Exec(ctx, query,
		ticket.Status,
		ticket.TechnicianID,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
		ticket.ID,
	))
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumns).From("tickets")
	if len(filter.Statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": filter.Statuses})
	}
	if filter.ClientID != nil {
		builder = builder.Where(sq.Eq{"client_id": *filter.ClientID})
	}
	if filter.TechnicianID != nil {
		builder = builder.Where(sq.Eq{"technician_id": *filter.TechnicianID})
	}
	if filter.EquipmentID != nil {
		builder = builder.Where(sq.Eq{"equipment_id": *filter.EquipmentID})
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 20)
	query, args, err := builder.OrderBy("updated_at DESC", "id").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Description,
		&ticket.Status,
		&ticket.EquipmentID,
		&ticket.BreakdownID,
		&ticket.ClientID,
		&ticket.TechnicianID,
		&ticket.ReportedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
