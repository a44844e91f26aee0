package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/survey"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

// ConfigureWebhookUseCase sets or clears the response webhook on a survey.
// Setting one requires the webhook entitlement; clearing is always allowed.
type ConfigureWebhookUseCase struct {
	surveys survey.Repository
	gate    *entitlement.Gate
	logger  logger.Interface
}

// NewConfigureWebhookUseCase creates a ConfigureWebhookUseCase.
func NewConfigureWebhookUseCase(surveys survey.Repository, gate *entitlement.Gate, logger logger.Interface) *ConfigureWebhookUseCase {
	return &ConfigureWebhookUseCase{surveys: surveys, gate: gate, logger: logger}
}

// Execute applies the webhook URL. Empty clears it.
func (uc *ConfigureWebhookUseCase) Execute(ctx context.Context, surveySID, url string) (*survey.Survey, error) {
	s, err := uc.surveys.GetBySID(ctx, surveySID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey %s: %w", surveySID, err)
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("survey %s not found", surveySID))
	}

	if url != "" {
		if err := utils.ValidateWebhookURL(url); err != nil {
			return nil, err
		}
		decision, err := uc.gate.CanUseWebhooks(ctx, s.AccountID())
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, apperrors.NewForbiddenError(decision.Reason)
		}
	}

	if err := s.SetWebhookURL(url); err != nil {
		return nil, apperrors.NewPreconditionError(err.Error())
	}
	if err := uc.surveys.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to update survey %s: %w", surveySID, err)
	}

	uc.logger.Infow("survey webhook configured", "survey", s.SID(), "cleared", url == "")
	return s, nil
}
