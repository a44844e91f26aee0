package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/notification"
	"quillform/internal/domain/account"
	"quillform/internal/domain/survey"
	"quillform/internal/shared/biztime"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// CancelSoftDeletionUseCase reverses a soft deletion while the hard-delete
// grace window is still open. Once the hard deletion date is reached the
// data is gone and the request is refused.
type CancelSoftDeletionUseCase struct {
	surveys  survey.Repository
	accounts account.Repository
	notifier notification.Notifier
	logger   logger.Interface
}

// NewCancelSoftDeletionUseCase creates a CancelSoftDeletionUseCase.
func NewCancelSoftDeletionUseCase(
	surveys survey.Repository,
	accounts account.Repository,
	notifier notification.Notifier,
	logger logger.Interface,
) *CancelSoftDeletionUseCase {
	return &CancelSoftDeletionUseCase{
		surveys:  surveys,
		accounts: accounts,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute restores the survey to its closed, pre-deletion state. The
// retention clock is not reset: the next sweep sees the original deletion
// date and soft-deletes again unless retention was extended in the meantime.
func (uc *CancelSoftDeletionUseCase) Execute(ctx context.Context, surveySID string) (*survey.Survey, error) {
	s, err := uc.surveys.GetBySID(ctx, surveySID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey %s: %w", surveySID, err)
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("survey %s not found", surveySID))
	}

	if err := s.CancelSoftDeletion(biztime.NowUTC()); err != nil {
		return nil, apperrors.NewPreconditionError(err.Error())
	}
	if err := uc.surveys.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to update survey %s: %w", surveySID, err)
	}

	uc.logger.Infow("soft deletion cancelled", "survey", s.SID())

	if owner, err := uc.accounts.GetByID(ctx, s.AccountID()); err == nil && owner != nil {
		uc.notifier.Send(ctx, owner.Email(), notification.TemplateDeletionCancelled, map[string]any{
			"survey_title": s.Title(),
			"survey_sid":   s.SID(),
		})
	}
	return s, nil
}
