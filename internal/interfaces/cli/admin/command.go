// Package admin is the `quillform admin` command group.
package admin

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	accountUsecases "quillform/internal/application/account/usecases"
	"quillform/internal/infrastructure/config"
	"quillform/internal/infrastructure/database"
	"quillform/internal/infrastructure/repository"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

var (
	env         string
	email       string
	displayName string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(newCreateAccountCommand())

	return cmd
}

func newCreateAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create an account interactively",
		Long:  `Create a free-tier account, prompting for the password on the terminal.`,
		RunE:  runCreateAccount,
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&displayName, "name", "", "Display name (required)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runCreateAccount(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if string(password) != string(confirm) {
		return fmt.Errorf("passwords do not match")
	}

	accountRepo := repository.NewAccountRepository(database.Get(), log)
	txManager := db.NewTransactionManager(database.Get())

	uc := accountUsecases.NewRegisterUseCase(accountRepo, txManager, cfg.Auth.BcryptCost, log)
	acct, err := uc.Execute(context.Background(), accountUsecases.RegisterCommand{
		Email:       email,
		Password:    string(password),
		DisplayName: displayName,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Account created: %s (%s)\n", acct.SID(), acct.Email())
	return nil
}
