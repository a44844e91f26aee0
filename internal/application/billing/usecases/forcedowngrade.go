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

// ForceDowngradeResult reports what a forced downgrade did.
type ForceDowngradeResult struct {
	Tier            tier.Tier
	ClosedSurveyIDs []uint
	Message         string
}

// ForceDowngradeUseCase downgrades an account immediately, closing however
// many of its oldest open surveys are needed to fit the target ceiling.
// Used when a subscription lapses; the account holder does not get a veto.
type ForceDowngradeUseCase struct {
	accounts  account.Repository
	surveys   survey.Repository
	txManager *db.TransactionManager
	logger    logger.Interface
}

// NewForceDowngradeUseCase creates a ForceDowngradeUseCase.
func NewForceDowngradeUseCase(
	accounts account.Repository,
	surveys survey.Repository,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *ForceDowngradeUseCase {
	return &ForceDowngradeUseCase{
		accounts:  accounts,
		surveys:   surveys,
		txManager: txManager,
		logger:    logger,
	}
}

// Execute applies the downgrade atomically: the survey closures and the tier
// change commit together or not at all. Running it twice for the same target
// is a no-op the second time, since the account then already fits the
// ceiling.
func (uc *ForceDowngradeUseCase) Execute(ctx context.Context, accountID uint, target tier.Tier) (*ForceDowngradeResult, error) {
	if !target.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown tier: %q", target))
	}

	var result *ForceDowngradeResult
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		acct, err := uc.accounts.GetByID(txCtx, accountID)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", accountID, err)
		}
		if acct == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("account %d not found", accountID))
		}

		closed, err := enforceSurveyCeiling(txCtx, uc.surveys, accountID, target)
		if err != nil {
			return err
		}
		if err := acct.ChangeTier(target); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if err := uc.accounts.Update(txCtx, acct); err != nil {
			return fmt.Errorf("failed to update account %d: %w", accountID, err)
		}

		msg := fmt.Sprintf("account downgraded to the %s tier", target)
		if len(closed) > 0 {
			msg = fmt.Sprintf("%s; %d surveys were closed to fit the new limit", msg, len(closed))
		}
		result = &ForceDowngradeResult{Tier: target, ClosedSurveyIDs: closed, Message: msg}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("forced downgrade applied",
		"account_id", accountID,
		"tier", target,
		"surveys_closed", len(result.ClosedSurveyIDs),
	)
	return result, nil
}

// enforceSurveyCeiling closes the account's oldest open original surveys
// until it fits under the target tier's survey ceiling. Oldest first, by
// creation time. Returns the IDs of the surveys it closed. Must run inside a
// transaction context.
func enforceSurveyCeiling(ctx context.Context, surveys survey.Repository, accountID uint, target tier.Tier) ([]uint, error) {
	ceiling := tier.LimitsFor(target).MaxSurveys
	if ceiling == nil {
		return nil, nil
	}
	open, err := surveys.CountOpenOriginalByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count open surveys for account %d: %w", accountID, err)
	}
	if open <= *ceiling {
		return nil, nil
	}
	closed, err := surveys.CloseOldestOpen(ctx, accountID, open-*ceiling)
	if err != nil {
		return nil, fmt.Errorf("failed to close excess surveys for account %d: %w", accountID, err)
	}
	return closed, nil
}
