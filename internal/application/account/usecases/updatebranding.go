package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/account"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// UpdateBrandingUseCase toggles custom branding on an account. Enabling
// requires the branding entitlement; disabling is always allowed.
type UpdateBrandingUseCase struct {
	accounts account.Repository
	gate     *entitlement.Gate
	logger   logger.Interface
}

// NewUpdateBrandingUseCase creates an UpdateBrandingUseCase.
func NewUpdateBrandingUseCase(accounts account.Repository, gate *entitlement.Gate, logger logger.Interface) *UpdateBrandingUseCase {
	return &UpdateBrandingUseCase{accounts: accounts, gate: gate, logger: logger}
}

// Execute applies the branding flag.
func (uc *UpdateBrandingUseCase) Execute(ctx context.Context, accountID uint, enabled bool) error {
	if enabled {
		decision, err := uc.gate.CanCustomizeBranding(ctx, accountID)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return apperrors.NewForbiddenError(decision.Reason)
		}
	}

	acct, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load account %d: %w", accountID, err)
	}
	if acct == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("account %d not found", accountID))
	}

	acct.SetCustomBranding(enabled)
	if err := uc.accounts.Update(ctx, acct); err != nil {
		return fmt.Errorf("failed to update account %d: %w", accountID, err)
	}

	uc.logger.Infow("branding updated", "account", acct.SID(), "enabled", enabled)
	return nil
}
