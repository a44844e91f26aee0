package usecases

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"quillform/internal/domain/account"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// LoginUseCase verifies credentials. Token issuance is the transport
// layer's concern.
type LoginUseCase struct {
	accounts account.Repository
	logger   logger.Interface
}

// NewLoginUseCase creates a LoginUseCase.
func NewLoginUseCase(accounts account.Repository, logger logger.Interface) *LoginUseCase {
	return &LoginUseCase{accounts: accounts, logger: logger}
}

// Execute checks the email/password pair and returns the account. The same
// error is returned for an unknown email and a wrong password.
func (uc *LoginUseCase) Execute(ctx context.Context, email, password string) (*account.Account, error) {
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	acct, err := uc.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if acct == nil {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash()), []byte(password)); err != nil {
		uc.logger.Debugw("password mismatch", "account", acct.SID())
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	return acct, nil
}
