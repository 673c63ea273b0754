package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-service/internal/domain"
)

// BreakdownFilter captures catalog listing parameters.
type BreakdownFilter struct {
	Priorities []domain.BreakdownPriority
	Categories []domain.BreakdownCategory
	Limit      int
	Offset     int
}

// BreakdownRepository reads and seeds the breakdown catalog.
type BreakdownRepository interface {
	Create(ctx context.Context, breakdown *domain.Breakdown) error
	GetByID(ctx context.Context, id string) (*domain.Breakdown, error)
	List(ctx context.Context, filter BreakdownFilter) ([]domain.Breakdown, error)
}

const breakdownColumns = `id, name, description, priority, category, created_at`

type breakdownRepository struct {
	db DBTX
}

// NewBreakdownRepository instantiates repository.
func NewBreakdownRepository(db DBTX) BreakdownRepository {
	return &breakdownRepository{db: db}
}

func (r *breakdownRepository) Create(ctx context.Context, breakdown *domain.Breakdown) error {
	const query = `
        INSERT INTO breakdowns (name, description, priority, category)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		breakdown.Name,
		breakdown.Description,
		breakdown.Priority,
		breakdown.Category,
	).Scan(&breakdown.ID, &breakdown.CreatedAt)
}

func (r *breakdownRepository) GetByID(ctx context.Context, id string) (*domain.Breakdown, error) {
	const query = `SELECT ` + breakdownColumns + ` FROM breakdowns WHERE id=$1`
	return scanBreakdown(r.db.QueryRow(ctx, query, id))
}

func (r *breakdownRepository) List(ctx context.Context, filter BreakdownFilter) ([]domain.Breakdown, error) {
	builder := psql.Select(breakdownColumns).From("breakdowns")
	if len(filter.Priorities) > 0 {
		builder = builder.Where(sq.Eq{"priority": filter.Priorities})
	}
	if len(filter.Categories) > 0 {
		builder = builder.Where(sq.Eq{"category": filter.Categories})
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset, 100)
	query, args, err := builder.OrderBy("name ASC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Breakdown
	for rows.Next() {
		breakdown, err := scanBreakdown(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *breakdown)
	}
	return result, rows.Err()
}

func scanBreakdown(row pgx.Row) (*domain.Breakdown, error) {
	var breakdown domain.Breakdown
	if err := row.Scan(
		&breakdown.ID,
		&breakdown.Name,
		&breakdown.Description,
		&breakdown.Priority,
		&breakdown.Category,
		&breakdown.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &breakdown, nil
}
