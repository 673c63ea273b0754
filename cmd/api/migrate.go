package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/config"
	"github.com/spec-kit/repair-service/internal/observability"
	"github.com/spec-kit/repair-service/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd, func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error {
				return persistence.RunMigrations(ctx, pg.PoolHandle(), logger)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd, func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error {
				return persistence.RollbackMigration(ctx, pg.PoolHandle(), logger)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List embedded migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd, func(ctx context.Context, pg *persistence.Postgres, _ *zap.Logger) error {
				statuses, err := persistence.ListMigrations(ctx, pg.PoolHandle())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tFILE\tAPPLIED")
				for _, s := range statuses {
					fmt.Fprintf(w, "%d\t%s\t%t\n", s.Version, s.File, s.Applied)
				}
				return w.Flush()
			})
		},
	})
	return cmd
}

func withPostgres(cmd *cobra.Command, fn func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required for migrations")
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	return fn(ctx, pg, logger)
}
