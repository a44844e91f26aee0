// The worker runs the billing and retention schedulers without the HTTP
// API, for deployments that separate serving from maintenance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	billingUsecases "quillform/internal/application/billing/usecases"
	retentionUsecases "quillform/internal/application/retention/usecases"
	"quillform/internal/infrastructure/config"
	"quillform/internal/infrastructure/database"
	"quillform/internal/infrastructure/email"
	"quillform/internal/infrastructure/repository"
	"quillform/internal/infrastructure/scheduler"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting maintenance worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close()

	accountRepo := repository.NewAccountRepository(database.Get(), log)
	surveyRepo := repository.NewSurveyRepository(database.Get(), log)
	txManager := db.NewTransactionManager(database.Get())
	notifier := email.NewSMTPNotifier(cfg.Email, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processExpiredUC := billingUsecases.NewProcessExpiredUseCase(
		accountRepo, surveyRepo, notifier, txManager, log)
	billingSched := scheduler.NewBillingScheduler(processExpiredUC, cfg.Billing.PastDueGraceDays, log)
	billingSched.Start(ctx)

	processRetentionUC := retentionUsecases.NewProcessRetentionUseCase(
		surveyRepo, accountRepo, notifier, log)
	retentionSched := scheduler.NewRetentionScheduler(processRetentionUC, log)
	retentionSched.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Infow("shutting down worker")
	billingSched.Stop()
	retentionSched.Stop()
	log.Infow("worker exited gracefully")
}
