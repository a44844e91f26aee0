package usecases

import (
	"context"
	"fmt"

	"quillform/internal/domain/survey"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// SetLegalHoldUseCase places or lifts a legal hold. While a hold is active
// every automatic retention stage is suspended; lifting it lets the next
// sweep resume from wherever the dates stand.
type SetLegalHoldUseCase struct {
	surveys survey.Repository
	logger  logger.Interface
}

// NewSetLegalHoldUseCase creates a SetLegalHoldUseCase.
func NewSetLegalHoldUseCase(surveys survey.Repository, logger logger.Interface) *SetLegalHoldUseCase {
	return &SetLegalHoldUseCase{surveys: surveys, logger: logger}
}

// Execute sets the hold state. Setting the current state again is a no-op.
func (uc *SetLegalHoldUseCase) Execute(ctx context.Context, surveySID string, hold bool) (*survey.Survey, error) {
	s, err := uc.surveys.GetBySID(ctx, surveySID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey %s: %w", surveySID, err)
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("survey %s not found", surveySID))
	}

	if hold {
		if err := s.ApplyLegalHold(); err != nil {
			return nil, apperrors.NewPreconditionError(err.Error())
		}
	} else {
		s.ReleaseLegalHold()
	}
	if err := uc.surveys.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to update survey %s: %w", surveySID, err)
	}

	uc.logger.Infow("legal hold updated", "survey", s.SID(), "hold", hold)
	return s, nil
}
