// Package usecases implements team operations gated by the owner's tier.
package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/team"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// CreateTeamUseCase creates a team for an account on a team-capable tier.
type CreateTeamUseCase struct {
	teams  team.Repository
	gate   *entitlement.Gate
	logger logger.Interface
}

// NewCreateTeamUseCase creates a CreateTeamUseCase.
func NewCreateTeamUseCase(teams team.Repository, gate *entitlement.Gate, logger logger.Interface) *CreateTeamUseCase {
	return &CreateTeamUseCase{teams: teams, gate: gate, logger: logger}
}

// Execute creates the team, denying with the upgrade prompt when the tier
// has no team capability.
func (uc *CreateTeamUseCase) Execute(ctx context.Context, accountID uint, name string) (*team.Team, error) {
	decision, err := uc.gate.CanCreateTeam(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperrors.NewForbiddenError(decision.Reason)
	}

	t, err := team.NewTeam(accountID, name)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.teams.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	uc.logger.Infow("team created", "team", t.SID(), "account_id", accountID)
	return t, nil
}
