package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/team"
	"quillform/internal/shared/biztime"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// AddTeamMemberUseCase adds a member to a team. The ceiling check against
// the owner's tier and the insert run in one transaction.
type AddTeamMemberUseCase struct {
	teams     team.Repository
	gate      *entitlement.Gate
	txManager *db.TransactionManager
	logger    logger.Interface
}

// NewAddTeamMemberUseCase creates an AddTeamMemberUseCase.
func NewAddTeamMemberUseCase(
	teams team.Repository,
	gate *entitlement.Gate,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *AddTeamMemberUseCase {
	return &AddTeamMemberUseCase{teams: teams, gate: gate, txManager: txManager, logger: logger}
}

// Execute adds the member, denying with the upgrade prompt when the team is
// at the owner's tier ceiling.
func (uc *AddTeamMemberUseCase) Execute(ctx context.Context, teamSID string, accountID uint, role string) error {
	return uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		t, err := uc.teams.GetBySID(txCtx, teamSID)
		if err != nil {
			return fmt.Errorf("failed to load team %s: %w", teamSID, err)
		}
		if t == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("team %s not found", teamSID))
		}

		decision, err := uc.gate.CheckTeamMemberLimit(txCtx, t.ID(), 1)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return apperrors.NewForbiddenError(decision.Reason)
		}

		if err := uc.teams.AddMember(txCtx, &team.Member{
			TeamID:    t.ID(),
			AccountID: accountID,
			Role:      role,
			CreatedAt: biztime.NowUTC(),
		}); err != nil {
			return fmt.Errorf("failed to add team member: %w", err)
		}

		uc.logger.Infow("team member added", "team", t.SID(), "account_id", accountID)
		return nil
	})
}
