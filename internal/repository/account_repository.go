package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/spec-kit/repair-service/internal/domain"
)

// AccountRepository defines persistence access for admins, clients and technicians.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	// GetByID returns *domain.Admin, *domain.Client or *domain.Technician
	// according to the stored role.
	GetByID(ctx context.Context, id string) (domain.Account, error)
}

type accountRepository struct {
	db DBTX
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account domain.Account) error {
	user := account.Base()
	switch acc := account.(type) {
	case *domain.Admin:
		user.Role = domain.RoleAdmin
	case *domain.Client:
		user.Role = domain.RoleClient
	case *domain.Technician:
		user.Role = domain.RoleTechnician
		return r.createTechnician(ctx, acc)
	default:
		return fmt.Errorf("unsupported account type %T", account)
	}

	const query = `
        INSERT INTO users (full_name, email, username, phone, address, avatar_url, role)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, joined_at`
	return r.db.QueryRow(ctx, query,
		user.FullName,
		user.Email,
		user.Username,
		user.Phone,
		user.Address,
		user.AvatarURL,
		user.Role,
	).Scan(&user.ID, &user.JoinedAt)
}

func (r *accountRepository) createTechnician(ctx context.Context, tech *domain.Technician) error {
	const query = `
        WITH u AS (
            INSERT INTO users (full_name, email, username, phone, address, avatar_url, role)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
            RETURNING id, joined_at
        ), t AS (
            INSERT INTO technicians (user_id, available)
            SELECT id, $8 FROM u
            RETURNING updated_at
        )
        SELECT u.id, u.joined_at, t.updated_at FROM u, t`
	return r.db.QueryRow(ctx, query,
		tech.FullName,
		tech.Email,
		tech.Username,
		tech.Phone,
		tech.Address,
		tech.AvatarURL,
		tech.Role,
		tech.Available,
	).Scan(&tech.ID, &tech.JoinedAt, &tech.UpdatedAt)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	const query = `
        SELECT u.id, u.full_name, u.email, u.username, u.phone, u.address, u.avatar_url, u.role, u.joined_at,
               t.available, t.current_ticket_id, t.updated_at
        FROM users u
        LEFT JOIN technicians t ON t.user_id = u.id
        WHERE u.id=$1`

	var (
		user      domain.User
		available *bool
		ticketID  *string
		updatedAt pgtype.Timestamptz
	)
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Username,
		&user.Phone,
		&user.Address,
		&user.AvatarURL,
		&user.Role,
		&user.JoinedAt,
		&available,
		&ticketID,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	switch user.Role {
	case domain.RoleAdmin:
		return &domain.Admin{User: user}, nil
	case domain.RoleClient:
		return &domain.Client{User: user}, nil
	case domain.RoleTechnician:
		if available == nil {
			return nil, pgx.ErrNoRows
		}
		return &domain.Technician{
			User:            user,
			Available:       *available,
			CurrentTicketID: ticketID,
			UpdatedAt:       updatedAt.Time,
		}, nil
	}
	return nil, fmt.Errorf("account %s has unknown role %q", id, user.Role)
}
