// Package usecases implements organization operations gated by the owner's
// tier, including one-level sub-organization nesting.
package usecases

import (
	"context"
	"fmt"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/organization"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// CreateOrganizationCommand carries an organization creation request. A
// non-nil ParentSID makes it a sub-organization.
type CreateOrganizationCommand struct {
	AccountID uint
	Name      string
	ParentSID string
}

// CreateOrganizationUseCase creates an organization or sub-organization.
type CreateOrganizationUseCase struct {
	orgs   organization.Repository
	gate   *entitlement.Gate
	logger logger.Interface
}

// NewCreateOrganizationUseCase creates a CreateOrganizationUseCase.
func NewCreateOrganizationUseCase(orgs organization.Repository, gate *entitlement.Gate, logger logger.Interface) *CreateOrganizationUseCase {
	return &CreateOrganizationUseCase{orgs: orgs, gate: gate, logger: logger}
}

// Execute creates the organization. Sub-organizations require the
// higher entitlement and may not nest under another sub-organization.
func (uc *CreateOrganizationUseCase) Execute(ctx context.Context, cmd CreateOrganizationCommand) (*organization.Organization, error) {
	var parentID *uint
	if cmd.ParentSID != "" {
		decision, err := uc.gate.CanCreateSubOrganization(ctx, cmd.AccountID)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, apperrors.NewForbiddenError(decision.Reason)
		}

		parent, err := uc.orgs.GetBySID(ctx, cmd.ParentSID)
		if err != nil {
			return nil, fmt.Errorf("failed to load organization %s: %w", cmd.ParentSID, err)
		}
		if parent == nil {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("organization %s not found", cmd.ParentSID))
		}
		if parent.IsSubOrg() {
			return nil, apperrors.NewPreconditionError("organizations nest at most one level deep")
		}
		pid := parent.ID()
		parentID = &pid
	} else {
		decision, err := uc.gate.CanCreateOrganization(ctx, cmd.AccountID)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, apperrors.NewForbiddenError(decision.Reason)
		}
	}

	o, err := organization.NewOrganization(cmd.AccountID, cmd.Name, parentID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.orgs.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	uc.logger.Infow("organization created",
		"organization", o.SID(), "account_id", cmd.AccountID, "sub_org", o.IsSubOrg())
	return o, nil
}
