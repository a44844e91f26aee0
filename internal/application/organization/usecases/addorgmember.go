package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/organization"
	"quillform/internal/shared/biztime"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// AddOrgMemberUseCase adds a member to an organization. The ceiling check
// against the owner's tier and the insert run in one transaction.
type AddOrgMemberUseCase struct {
	orgs      organization.Repository
	gate      *entitlement.Gate
	txManager *db.TransactionManager
	logger    logger.Interface
}

// NewAddOrgMemberUseCase creates an AddOrgMemberUseCase.
func NewAddOrgMemberUseCase(
	orgs organization.Repository,
	gate *entitlement.Gate,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *AddOrgMemberUseCase {
	return &AddOrgMemberUseCase{orgs: orgs, gate: gate, txManager: txManager, logger: logger}
}

// Execute adds the member, denying with the upgrade prompt at the ceiling.
func (uc *AddOrgMemberUseCase) Execute(ctx context.Context, orgSID string, accountID uint, role string) error {
	return uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orgs.GetBySID(txCtx, orgSID)
		if err != nil {
			return fmt.Errorf("failed to load organization %s: %w", orgSID, err)
		}
		if o == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("organization %s not found", orgSID))
		}

		decision, err := uc.gate.CheckOrgMemberLimit(txCtx, o.ID(), 1)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return apperrors.NewForbiddenError(decision.Reason)
		}

		if err := uc.orgs.AddMember(txCtx, &organization.Member{
			OrgID:     o.ID(),
			AccountID: accountID,
			Role:      role,
			CreatedAt: biztime.NowUTC(),
		}); err != nil {
			return fmt.Errorf("failed to add organization member: %w", err)
		}

		uc.logger.Infow("organization member added", "organization", o.SID(), "account_id", accountID)
		return nil
	})
}
