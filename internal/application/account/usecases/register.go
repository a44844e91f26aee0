// Package usecases implements account operations: registration and the
// account-level settings that are gated by tier.
package usecases

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"quillform/internal/domain/account"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// RegisterCommand carries a registration request.
type RegisterCommand struct {
	Email       string
	Password    string
	DisplayName string
}

// RegisterUseCase creates a free-tier account. The account and its profile
// are written in one transaction; an account without a profile must not
// exist, since the permission gate denies on it.
type RegisterUseCase struct {
	accounts   account.Repository
	txManager  *db.TransactionManager
	bcryptCost int
	logger     logger.Interface
}

// NewRegisterUseCase creates a RegisterUseCase. bcryptCost comes from auth
// config; zero falls back to the bcrypt default.
func NewRegisterUseCase(accounts account.Repository, txManager *db.TransactionManager, bcryptCost int, logger logger.Interface) *RegisterUseCase {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &RegisterUseCase{
		accounts:   accounts,
		txManager:  txManager,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Execute registers the account.
func (uc *RegisterUseCase) Execute(ctx context.Context, cmd RegisterCommand) (*account.Account, error) {
	if cmd.Email == "" || cmd.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), uc.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var created *account.Account
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		existing, err := uc.accounts.GetByEmail(txCtx, cmd.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil {
			return apperrors.NewConflictError("an account with this email already exists")
		}

		acct, err := account.NewAccount(cmd.Email, string(hash), cmd.DisplayName)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if err := uc.accounts.Create(txCtx, acct); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		created = acct
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("account registered", "account", created.SID())
	return created, nil
}
