// Package billing is the `quillform billing` command group: the manual
// expiry sweep and operator-driven downgrades.
package billing

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	billingUsecases "quillform/internal/application/billing/usecases"
	"quillform/internal/domain/tier"
	"quillform/internal/infrastructure/config"
	"quillform/internal/infrastructure/database"
	"quillform/internal/infrastructure/email"
	"quillform/internal/infrastructure/repository"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

var (
	env        string
	dryRun     bool
	verbose    bool
	graceDays  int
	targetTier string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Billing operations",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newProcessExpiredCommand(),
		newForceDowngradeCommand(),
	)

	return cmd
}

func newProcessExpiredCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-expired",
		Short: "Downgrade accounts with lapsed subscriptions",
		Long:  `Run the expiry sweep once: accounts whose paid period has ended, and past-due accounts beyond the grace window, are settled to the free tier.`,
		RunE:  runProcessExpired,
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing anything")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each affected account")
	cmd.Flags().IntVar(&graceDays, "grace-days", 0, "Past-due grace window in days (default from config)")

	return cmd
}

func newForceDowngradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "force-downgrade <account-id>",
		Short: "Force an account down to a tier, closing excess surveys",
		Args:  cobra.ExactArgs(1),
		RunE:  runForceDowngrade,
	}

	cmd.Flags().StringVar(&targetTier, "tier", string(tier.Free), "Target tier")

	return cmd
}

func initEnv() (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, logger.NewLogger(), nil
}

func runProcessExpired(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	accountRepo := repository.NewAccountRepository(database.Get(), log)
	surveyRepo := repository.NewSurveyRepository(database.Get(), log)
	txManager := db.NewTransactionManager(database.Get())
	notifier := email.NewSMTPNotifier(cfg.Email, log)

	uc := billingUsecases.NewProcessExpiredUseCase(accountRepo, surveyRepo, notifier, txManager, log)

	days := graceDays
	if days <= 0 {
		days = cfg.Billing.PastDueGraceDays
	}

	summary, err := uc.Execute(context.Background(), billingUsecases.SweepOptions{
		DryRun:    dryRun,
		Verbose:   verbose,
		GraceDays: days,
	})
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	label := "Sweep"
	if dryRun {
		label = "Dry run"
	}
	fmt.Printf("%s complete:\n", label)
	fmt.Printf("  Expired found:   %d\n", summary.ExpiredFound)
	fmt.Printf("  Past due found:  %d\n", summary.PastDueFound)
	fmt.Printf("  Downgraded:      %d\n", summary.Downgraded)
	fmt.Printf("  Surveys closed:  %d\n", summary.SurveysClosed)
	fmt.Printf("  Skipped:         %d\n", summary.Skipped)
	fmt.Printf("  Errors:          %d\n", summary.Errors)
	return nil
}

func runForceDowngrade(cmd *cobra.Command, args []string) error {
	_, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	var accountID uint
	if _, err := fmt.Sscanf(args[0], "%d", &accountID); err != nil || accountID == 0 {
		return fmt.Errorf("invalid account id: %s", args[0])
	}

	target, err := tier.Parse(targetTier)
	if err != nil {
		return err
	}

	accountRepo := repository.NewAccountRepository(database.Get(), log)
	surveyRepo := repository.NewSurveyRepository(database.Get(), log)
	txManager := db.NewTransactionManager(database.Get())

	uc := billingUsecases.NewForceDowngradeUseCase(accountRepo, surveyRepo, txManager, log)
	result, err := uc.Execute(context.Background(), accountID, target)
	if err != nil {
		return err
	}

	fmt.Println(result.Message)
	if len(result.ClosedSurveyIDs) > 0 {
		fmt.Printf("Closed surveys: %v\n", result.ClosedSurveyIDs)
	}
	return nil
}
