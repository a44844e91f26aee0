package usecases

import (
	"context"
	"fmt"

	"quillform/internal/domain/account"
	"quillform/internal/domain/survey"
	"quillform/internal/domain/tier"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// DowngradeUseCase handles a user-initiated downgrade. Unlike the forced
// variant it never closes surveys: when the account is over the target
// ceiling the request is refused and the user is told how many surveys to
// close first.
type DowngradeUseCase struct {
	accounts  account.Repository
	surveys   survey.Repository
	txManager *db.TransactionManager
	logger    logger.Interface
}

// NewDowngradeUseCase creates a DowngradeUseCase.
func NewDowngradeUseCase(
	accounts account.Repository,
	surveys survey.Repository,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *DowngradeUseCase {
	return &DowngradeUseCase{
		accounts:  accounts,
		surveys:   surveys,
		txManager: txManager,
		logger:    logger,
	}
}

// Execute downgrades the account to the named tier. The target name is
// validated strictly; an unknown name is rejected, never coerced to free.
func (uc *DowngradeUseCase) Execute(ctx context.Context, accountID uint, targetName string) (tier.Tier, error) {
	target, err := tier.Parse(targetName)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		acct, err := uc.accounts.GetByID(txCtx, accountID)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", accountID, err)
		}
		if acct == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("account %d not found", accountID))
		}
		if acct.Tier() == target {
			return nil
		}

		if ceiling := tier.LimitsFor(target).MaxSurveys; ceiling != nil {
			open, err := uc.surveys.CountOpenOriginalByAccount(txCtx, accountID)
			if err != nil {
				return fmt.Errorf("failed to count open surveys for account %d: %w", accountID, err)
			}
			if open > *ceiling {
				return apperrors.NewPreconditionError(fmt.Sprintf(
					"the %s tier allows %d open surveys and you have %d; close %d before downgrading",
					target, *ceiling, open, open-*ceiling))
			}
		}

		if err := acct.ChangeTier(target); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		return uc.accounts.Update(txCtx, acct)
	})
	if err != nil {
		return "", err
	}

	uc.logger.Infow("account downgraded", "account_id", accountID, "tier", target)
	return target, nil
}
