package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

func newMigrationProvider(pool *pgxpool.Pool) (*goose.Provider, func() error, error) {
	fsys, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, nil, err
	}
	db := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init migrations: %w", err)
	}
	return provider, db.Close, nil
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	provider, closeDB, err := newMigrationProvider(pool)
	if err != nil {
		return err
	}
	defer closeDB()

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		logger.Info("applying migration",
			zap.String("file", res.Source.Path),
			zap.Duration("duration", res.Duration),
		)
	}

	logger.Info("migrations applied", zap.Int("count", len(results)))
	return nil
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		return fmt.Errorf("rollback migration: postgres not configured")
	}

	provider, closeDB, err := newMigrationProvider(pool)
	if err != nil {
		return err
	}
	defer closeDB()

	res, err := provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	logger.Info("migration rolled back", zap.String("file", res.Source.Path))
	return nil
}

// MigrationStatus describes one embedded migration.
type MigrationStatus struct {
	Version int64
	File    string
	Applied bool
}

// ListMigrations reports which embedded migrations have been applied.
func ListMigrations(ctx context.Context, pool *pgxpool.Pool) ([]MigrationStatus, error) {
	if pool == nil {
		return nil, fmt.Errorf("migration status: postgres not configured")
	}

	provider, closeDB, err := newMigrationProvider(pool)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	result := make([]MigrationStatus, 0, len(statuses))
	for _, st := range statuses {
		result = append(result, MigrationStatus{
			Version: st.Source.Version,
			File:    st.Source.Path,
			Applied: st.State == goose.StateApplied,
		})
	}
	return result, nil
}
