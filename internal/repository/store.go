package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTechnicianBusy is returned by TechnicianRepository.Reserve when the
// technician is already bound to a ticket.
var ErrTechnicianBusy = errors.New("technician busy")

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles the entity repositories bound to one connection or transaction.
type Repositories struct {
	Equipment    EquipmentRepository
	Breakdowns   BreakdownRepository
	Accounts     AccountRepository
	FaultReports FaultReportRepository
	Tickets      TicketRepository
	Technicians  TechnicianRepository
	History      TicketHistoryRepository
}

// Store is the entity store. WithinTx runs fn as one all-or-nothing unit:
// any error returned by fn discards every write made through repos.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type pgStore struct {
	pool  *pgxpool.Pool
	repos Repositories
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, repos: newRepositories(pool)}
}

func newRepositories(db DBTX) Repositories {
	return Repositories{
		Equipment:    NewEquipmentRepository(db),
		Breakdowns:   NewBreakdownRepository(db),
		Accounts:     NewAccountRepository(db),
		FaultReports: NewFaultReportRepository(db),
		Tickets:      NewTicketRepository(db),
		Technicians:  NewTechnicianRepository(db),
		History:      NewTicketHistoryRepository(db),
	}
}

func (s *pgStore) Repos() Repositories {
	return s.repos
}

// WithinTx commits when fn returns nil and rolls back otherwise, including on panic.
func (s *pgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	err = fn(ctx, newRepositories(tx))
	return err
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func pageBounds(limit, offset, defaultLimit int) (uint64, uint64) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return uint64(limit), uint64(offset)
}

func expectOneRow(cmd pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
