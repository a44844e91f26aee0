package usecases

import (
	"context"
	"fmt"

	"quillform/internal/domain/survey"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// CloseSurveyUseCase closes a survey and starts its retention clock. Closing
// an already closed survey is a no-op.
type CloseSurveyUseCase struct {
	surveys survey.Repository
	logger  logger.Interface
}

// NewCloseSurveyUseCase creates a CloseSurveyUseCase.
func NewCloseSurveyUseCase(surveys survey.Repository, logger logger.Interface) *CloseSurveyUseCase {
	return &CloseSurveyUseCase{surveys: surveys, logger: logger}
}

// Execute closes the survey with the given retention period in months. Zero
// means the default.
func (uc *CloseSurveyUseCase) Execute(ctx context.Context, surveySID string, retentionMonths int) (*survey.Survey, error) {
	s, err := uc.surveys.GetBySID(ctx, surveySID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey %s: %w", surveySID, err)
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("survey %s not found", surveySID))
	}

	if err := s.Close(retentionMonths); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.surveys.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to update survey %s: %w", surveySID, err)
	}

	uc.logger.Infow("survey closed",
		"survey", s.SID(),
		"retention_months", s.RetentionMonths(),
		"deletion_date", s.DeletionDate(),
	)
	return s, nil
}
