package usecases

import (
	"context"
	"fmt"

	"quillform/internal/domain/survey"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// DuplicateSurveyUseCase copies a survey's definition into a new open
// survey. Duplicates are exempt from the owner's survey ceiling, so no
// permission check runs here.
type DuplicateSurveyUseCase struct {
	surveys survey.Repository
	logger  logger.Interface
}

// NewDuplicateSurveyUseCase creates a DuplicateSurveyUseCase.
func NewDuplicateSurveyUseCase(surveys survey.Repository, logger logger.Interface) *DuplicateSurveyUseCase {
	return &DuplicateSurveyUseCase{surveys: surveys, logger: logger}
}

// Execute duplicates the source survey for the same owner.
func (uc *DuplicateSurveyUseCase) Execute(ctx context.Context, sourceSID string, title string) (*survey.Survey, error) {
	src, err := uc.surveys.GetBySID(ctx, sourceSID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey %s: %w", sourceSID, err)
	}
	if src == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("survey %s not found", sourceSID))
	}
	if src.IsSoftDeleted() {
		return nil, apperrors.NewPreconditionError("a deleted survey cannot be duplicated")
	}

	if title == "" {
		title = src.Title() + " (copy)"
	}
	dup, err := survey.NewSurvey(src.AccountID(), title)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	dup.MarkDuplicate()
	if teamID := src.TeamID(); teamID != nil {
		if err := dup.AssignTeam(*teamID); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}

	if err := uc.surveys.Create(ctx, dup); err != nil {
		return nil, fmt.Errorf("failed to create duplicate: %w", err)
	}

	uc.logger.Infow("survey duplicated", "source", src.SID(), "duplicate", dup.SID())
	return dup, nil
}
