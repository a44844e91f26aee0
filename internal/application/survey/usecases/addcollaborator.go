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

// AddCollaboratorCommand carries a collaborator invitation.
type AddCollaboratorCommand struct {
	SurveySID string
	AccountID uint
	Kind      survey.CollaboratorKind
	AddedBy   uint
}

// AddCollaboratorUseCase adds a collaborator to a survey. Both gate checks
// (the kind entitlement and the per-survey ceiling) and the insert run in
// one transaction.
type AddCollaboratorUseCase struct {
	surveys       survey.Repository
	collaborators survey.CollaboratorRepository
	gate          *entitlement.Gate
	txManager     *db.TransactionManager
	logger        logger.Interface
}

// NewAddCollaboratorUseCase creates an AddCollaboratorUseCase.
func NewAddCollaboratorUseCase(
	surveys survey.Repository,
	collaborators survey.CollaboratorRepository,
	gate *entitlement.Gate,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *AddCollaboratorUseCase {
	return &AddCollaboratorUseCase{
		surveys:       surveys,
		collaborators: collaborators,
		gate:          gate,
		txManager:     txManager,
		logger:        logger,
	}
}

// Execute adds the collaborator, or returns a forbidden error carrying the
// upgrade prompt when the owner's tier denies the kind or the ceiling.
func (uc *AddCollaboratorUseCase) Execute(ctx context.Context, cmd AddCollaboratorCommand) (*survey.Collaborator, error) {
	var added *survey.Collaborator
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		s, err := uc.surveys.GetBySID(txCtx, cmd.SurveySID)
		if err != nil {
			return fmt.Errorf("failed to load survey %s: %w", cmd.SurveySID, err)
		}
		if s == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("survey %s not found", cmd.SurveySID))
		}

		decision, err := uc.gate.CanAddCollaborator(txCtx, s.AccountID(), cmd.Kind)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return apperrors.NewForbiddenError(decision.Reason)
		}
		decision, err = uc.gate.CheckCollaboratorLimit(txCtx, s.ID(), 1)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return apperrors.NewForbiddenError(decision.Reason)
		}

		c, err := survey.NewCollaborator(s.ID(), cmd.AccountID, cmd.AddedBy, cmd.Kind)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if err := uc.collaborators.Add(txCtx, c); err != nil {
			return fmt.Errorf("failed to add collaborator: %w", err)
		}
		added = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("collaborator added",
		"survey", cmd.SurveySID, "account_id", cmd.AccountID, "kind", cmd.Kind)
	return added, nil
}
