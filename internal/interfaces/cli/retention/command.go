// Package retention is the `quillform retention` command group: the manual
// sweep plus the operator actions on individual surveys.
package retention

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	retentionUsecases "quillform/internal/application/retention/usecases"
	"quillform/internal/infrastructure/config"
	"quillform/internal/infrastructure/database"
	"quillform/internal/infrastructure/email"
	"quillform/internal/infrastructure/repository"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

var (
	env         string
	dryRun      bool
	verbose     bool
	months      int
	requestedBy uint
	approvedBy  uint
	reason      string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Data retention operations",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newSweepCommand(),
		newExtendCommand(),
		newCancelDeletionCommand(),
		newLegalHoldCommand(),
	)

	return cmd
}

func newSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the retention sweep once",
		Long:  `Process every closed survey whose retention schedule is due: send staged warnings, soft-delete past the deletion date, hard-delete past the grace window.`,
		RunE:  runSweep,
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing anything")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each affected survey")

	return cmd
}

func newExtendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extend <survey-sid>",
		Short: "Extend a closed survey's retention period",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtend,
	}

	cmd.Flags().IntVar(&months, "months", 0, "Additional months of retention (required)")
	cmd.Flags().UintVar(&requestedBy, "requested-by", 0, "Account id of the requester (required)")
	cmd.Flags().UintVar(&approvedBy, "approved-by", 0, "Account id of the approver")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason for the extension (required)")
	cmd.MarkFlagRequired("months")
	cmd.MarkFlagRequired("requested-by")
	cmd.MarkFlagRequired("reason")

	return cmd
}

func newCancelDeletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-deletion <survey-sid>",
		Short: "Restore a soft-deleted survey",
		Args:  cobra.ExactArgs(1),
		RunE:  runCancelDeletion,
	}
}

func newLegalHoldCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "legal-hold <survey-sid> <on|off>",
		Short: "Set or release a legal hold",
		Args:  cobra.ExactArgs(2),
		RunE:  runLegalHold,
	}
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

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	accountRepo := repository.NewAccountRepository(database.Get(), log)
	surveyRepo := repository.NewSurveyRepository(database.Get(), log)
	notifier := email.NewSMTPNotifier(cfg.Email, log)

	uc := retentionUsecases.NewProcessRetentionUseCase(surveyRepo, accountRepo, notifier, log)
	summary, err := uc.Execute(context.Background(), retentionUsecases.RetentionSweepOptions{
		DryRun:  dryRun,
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	label := "Sweep"
	if dryRun {
		label = "Dry run"
	}
	fmt.Printf("%s complete:\n", label)
	fmt.Printf("  Candidates:         %d\n", summary.Candidates)
	fmt.Printf("  Warnings sent:      %d\n", summary.WarningsSent)
	fmt.Printf("  Soft deleted:       %d\n", summary.SoftDeleted)
	fmt.Printf("  Hard deleted:       %d\n", summary.HardDeleted)
	fmt.Printf("  Skipped legal hold: %d\n", summary.SkippedLegalHold)
	fmt.Printf("  Errors:             %d\n", summary.Errors)
	return nil
}

func runExtend(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	accountRepo := repository.NewAccountRepository(database.Get(), log)
	surveyRepo := repository.NewSurveyRepository(database.Get(), log)
	extensionRepo := repository.NewRetentionExtensionRepository(database.Get(), log)
	txManager := db.NewTransactionManager(database.Get())
	notifier := email.NewSMTPNotifier(cfg.Email, log)

	uc := retentionUsecases.NewExtendRetentionUseCase(
		surveyRepo, accountRepo, extensionRepo, txManager, notifier, log)

	result, err := uc.Execute(context.Background(), retentionUsecases.ExtendRetentionCommand{
		SurveySID:   args[0],
		Months:      months,
		RequestedBy: requestedBy,
		ApprovedBy:  approvedBy,
		Reason:      reason,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Retention extended to %d months\n", result.RetentionMonths)
	fmt.Printf("  Previous deletion date: %s\n", result.PreviousDeletionDate.Format("2006-01-02"))
	fmt.Printf("  New deletion date:      %s\n", result.NewDeletionDate.Format("2006-01-02"))
	return nil
}

func runCancelDeletion(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	accountRepo := repository.NewAccountRepository(database.Get(), log)
	surveyRepo := repository.NewSurveyRepository(database.Get(), log)
	notifier := email.NewSMTPNotifier(cfg.Email, log)

	uc := retentionUsecases.NewCancelSoftDeletionUseCase(surveyRepo, accountRepo, notifier, log)
	s, err := uc.Execute(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Deletion cancelled for survey %s\n", s.SID())
	if d := s.DeletionDate(); d != nil {
		fmt.Printf("  Deletion date remains %s\n", d.Format("2006-01-02"))
	}
	return nil
}

func runLegalHold(cmd *cobra.Command, args []string) error {
	var hold bool
	switch args[1] {
	case "on":
		hold = true
	case "off":
		hold = false
	default:
		return fmt.Errorf("expected on or off, got %q", args[1])
	}

	_, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	surveyRepo := repository.NewSurveyRepository(database.Get(), log)

	uc := retentionUsecases.NewSetLegalHoldUseCase(surveyRepo, log)
	s, err := uc.Execute(context.Background(), args[0], hold)
	if err != nil {
		return err
	}

	fmt.Printf("Legal hold for survey %s: %v\n", s.SID(), s.LegalHold())
	return nil
}
