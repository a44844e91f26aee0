// Package usecases implements survey operations. Every tier-limited
// operation consults the permission gate at execution time, inside the same
// transaction as the write it guards.
package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/survey"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// CreateSurveyCommand carries a survey creation request.
type CreateSurveyCommand struct {
	AccountID uint
	Title     string
	TeamID    *uint
}

// CreateSurveyUseCase creates a survey. The ceiling check and the insert run
// in one transaction so two concurrent requests cannot both slip under the
// limit.
type CreateSurveyUseCase struct {
	surveys   survey.Repository
	gate      *entitlement.Gate
	txManager *db.TransactionManager
	logger    logger.Interface
}

// NewCreateSurveyUseCase creates a CreateSurveyUseCase.
func NewCreateSurveyUseCase(
	surveys survey.Repository,
	gate *entitlement.Gate,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *CreateSurveyUseCase {
	return &CreateSurveyUseCase{
		surveys:   surveys,
		gate:      gate,
		txManager: txManager,
		logger:    logger,
	}
}

// Execute creates the survey, or returns a forbidden error carrying the
// upgrade prompt when the owner's tier is at its ceiling.
func (uc *CreateSurveyUseCase) Execute(ctx context.Context, cmd CreateSurveyCommand) (*survey.Survey, error) {
	var created *survey.Survey
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		decision, err := uc.gate.CanCreateSurvey(txCtx, cmd.AccountID)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return apperrors.NewForbiddenError(decision.Reason)
		}

		s, err := survey.NewSurvey(cmd.AccountID, cmd.Title)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if cmd.TeamID != nil {
			if err := s.AssignTeam(*cmd.TeamID); err != nil {
				return apperrors.NewValidationError(err.Error())
			}
		}
		if err := uc.surveys.Create(txCtx, s); err != nil {
			return fmt.Errorf("failed to create survey: %w", err)
		}
		created = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("survey created", "survey", created.SID(), "account_id", cmd.AccountID)
	return created, nil
}
