package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/survey"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// SetPatientDataUseCase toggles patient data collection on a survey.
// Enabling requires the sensitive-data entitlement; disabling is always
// allowed.
type SetPatientDataUseCase struct {
	surveys survey.Repository
	gate    *entitlement.Gate
	logger  logger.Interface
}

// NewSetPatientDataUseCase creates a SetPatientDataUseCase.
func NewSetPatientDataUseCase(surveys survey.Repository, gate *entitlement.Gate, logger logger.Interface) *SetPatientDataUseCase {
	return &SetPatientDataUseCase{surveys: surveys, gate: gate, logger: logger}
}

// Execute applies the setting.
func (uc *SetPatientDataUseCase) Execute(ctx context.Context, surveySID string, enabled bool) (*survey.Survey, error) {
	s, err := uc.surveys.GetBySID(ctx, surveySID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey %s: %w", surveySID, err)
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("survey %s not found", surveySID))
	}

	if enabled {
		decision, err := uc.gate.CanCollectPatientData(ctx, s.AccountID())
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, apperrors.NewForbiddenError(decision.Reason)
		}
	}

	if err := s.SetPatientData(enabled); err != nil {
		return nil, apperrors.NewPreconditionError(err.Error())
	}
	if err := uc.surveys.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to update survey %s: %w", surveySID, err)
	}

	uc.logger.Infow("patient data setting changed", "survey", s.SID(), "enabled", enabled)
	return s, nil
}
