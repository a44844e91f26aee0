// Package server is the `quillform server` command: HTTP API plus the
// billing and retention schedulers in one process.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	billingUsecases "quillform/internal/application/billing/usecases"
	retentionUsecases "quillform/internal/application/retention/usecases"
	"quillform/internal/infrastructure/config"
	"quillform/internal/infrastructure/database"
	"quillform/internal/infrastructure/email"
	"quillform/internal/infrastructure/migration"
	"quillform/internal/infrastructure/repository"
	"quillform/internal/infrastructure/scheduler"
	httpRouter "quillform/internal/interfaces/http"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

var (
	env          string
	autoMigrate  bool
	noSchedulers bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the QuillForm HTTP server together with the daily billing and retention schedulers.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&noSchedulers, "no-schedulers", false, "Disable the in-process billing and retention schedulers")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.NewLogger()

	logger.Info("starting server", "environment", env, "self_hosted", cfg.Server.SelfHosted)

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close()

	if autoMigrate {
		if err := migration.Up(database.Get(), cfg.Database.Driver); err != nil {
			logger.Fatal("migration failed", "error", err)
		}
		logger.Info("migrations applied")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	notifier := email.NewSMTPNotifier(cfg.Email, log)

	router := httpRouter.NewRouter(database.Get(), redisClient, notifier, cfg, log)
	router.SetupRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !noSchedulers {
		accountRepo := repository.NewAccountRepository(database.Get(), log)
		surveyRepo := repository.NewSurveyRepository(database.Get(), log)
		txManager := db.NewTransactionManager(database.Get())

		processExpiredUC := billingUsecases.NewProcessExpiredUseCase(
			accountRepo, surveyRepo, notifier, txManager, log)
		billingSched := scheduler.NewBillingScheduler(processExpiredUC, cfg.Billing.PastDueGraceDays, log)
		billingSched.Start(ctx)
		defer billingSched.Stop()

		processRetentionUC := retentionUsecases.NewProcessRetentionUseCase(
			surveyRepo, accountRepo, notifier, log)
		retentionSched := scheduler.NewRetentionScheduler(processRetentionUC, log)
		retentionSched.Start(ctx)
		defer retentionSched.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

func mapEnvToGinMode(env string) string {
	switch env {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
