package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/facilityops/incident-service/internal/api/http"
	"github.com/facilityops/incident-service/internal/api/http/handlers"
	"github.com/facilityops/incident-service/internal/auth"
	"github.com/facilityops/incident-service/internal/config"
	"github.com/facilityops/incident-service/internal/events"
	"github.com/facilityops/incident-service/internal/observability"
	"github.com/facilityops/incident-service/internal/persistence"
	"github.com/facilityops/incident-service/internal/repository"
	"github.com/facilityops/incident-service/internal/service"
	"github.com/facilityops/incident-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewStore(pg.PoolHandle())
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, store.Accounts(), store.Vendors())
	assignmentService := service.NewAssignmentService(store, dispatcher)
	offerService := service.NewOfferService(store, dispatcher)
	lifecycleService := service.NewLifecycleService(store, dispatcher)
	outboxService := service.NewOutboxService(store, redis.Client, logger)
	notificationService := service.NewNotificationService(dispatcher, outboxService, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Accounts())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Incidents:      handlers.NewIncidentsHandler(lifecycleService, assignmentService),
		Cases:          handlers.NewCasesHandler(lifecycleService, assignmentService),
		Offers:         handlers.NewOffersHandler(offerService),
		Notifications:  handlers.NewNotificationsHandler(outboxService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
