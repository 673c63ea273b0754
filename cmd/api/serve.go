package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/api/dto"
	httptransport "github.com/spec-kit/repair-service/internal/api/http"
	"github.com/spec-kit/repair-service/internal/api/http/handlers"
	"github.com/spec-kit/repair-service/internal/auth"
	"github.com/spec-kit/repair-service/internal/config"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/observability"
	"github.com/spec-kit/repair-service/internal/persistence"
	"github.com/spec-kit/repair-service/internal/repository"
	"github.com/spec-kit/repair-service/internal/service"
	"github.com/spec-kit/repair-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required to serve")
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetricsFromConfig(cfg.Metrics, logger)
	defer metrics.Close()

	store := repository.NewStore(pg.PoolHandle())
	dispatcher := events.NewInMemoryDispatcher()

	forwarder := worker.NewEventForwarder(redis.EventSink().Handle, logger, 0)
	forwarder.Start()
	defer forwarder.Stop()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification, forwarder.Enqueue))

	deps := service.Dependencies{
		Store:      store,
		Catalog:    service.NewBreakdownCatalog(cfg.Cache.BreakdownTTL()),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	}
	faults := service.NewFaultService(deps)
	tickets := service.NewTicketService(deps)
	assignment := service.NewAssignmentService(deps)
	repair := service.NewRepairService(deps)
	equipment := service.NewEquipmentService(deps)
	validate := dto.NewValidator()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Faults:         handlers.NewFaultsHandler(faults, tickets, equipment, validate),
		Tickets:        handlers.NewTicketsHandler(tickets, assignment, validate),
		Repair:         handlers.NewRepairHandler(tickets, repair),
		Equipment:      handlers.NewEquipmentHandler(equipment, validate),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Repos().Accounts),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}
	return app.ShutdownWithTimeout(shutdownTimeout)
}
