package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/hms-service/internal/api/http"
	"github.com/spec-kit/hms-service/internal/api/http/handlers"
	"github.com/spec-kit/hms-service/internal/auth"
	"github.com/spec-kit/hms-service/internal/cache"
	"github.com/spec-kit/hms-service/internal/config"
	"github.com/spec-kit/hms-service/internal/events"
	"github.com/spec-kit/hms-service/internal/observability"
	"github.com/spec-kit/hms-service/internal/persistence"
	"github.com/spec-kit/hms-service/internal/pubsub"
	"github.com/spec-kit/hms-service/internal/repository"
	"github.com/spec-kit/hms-service/internal/service"
	"github.com/spec-kit/hms-service/internal/worker"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	subscriberClient := persistence.NewRedisSubscriber(cfg.Redis, logger)
	defer subscriberClient.Close()

	metrics := observability.NewMetrics()

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return err
	}

	store := cache.NewStore(redis.Client)
	subscriber := pubsub.NewSubscriber(subscriberClient.Client, logger)
	dispatcher := events.NewRedisDispatcher(pubsub.NewPublisher(redis.Client), subscriber, logger)

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	authService := service.NewAuthService(userRepo, tokens, logger)
	profileService := service.NewProfileService(userRepo, store, cfg.Cache.ProfileTTL(), dispatcher, logger)
	chatService := service.NewChatService(store, cfg.Chat.KeyPrefix, cfg.Chat.SessionTTL(), dispatcher, logger)
	cacheAdmin := service.NewCacheAdminService(store, dispatcher, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := worker.StartNotificationWorker(workerCtx, notificationService, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.IsProduction(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	gate := auth.NewGate(tokens, cfg.App.MetricsPath, logger, metrics)
	if err := httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:        handlers.NewAuthHandler(authService),
		Profile:     handlers.NewProfileHandler(profileService),
		Chat:        handlers.NewChatHandler(chatService),
		Admin:       handlers.NewAdminHandler(cacheAdmin, metrics),
		Gate:        gate,
		MetricsPath: cfg.App.MetricsPath,
	}); err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
		}
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	if err := app.Shutdown(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopWorker()
	if err := subscriber.Close(); err != nil {
		logger.Warn("subscriber close", zap.Error(err))
	}
	<-workerDone
	return nil
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
