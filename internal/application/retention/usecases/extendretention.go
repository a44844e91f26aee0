package usecases

import (
	"context"
	"fmt"
	"time"

	"quillform/internal/application/notification"
	"quillform/internal/domain/account"
	"quillform/internal/domain/survey"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// ExtendRetentionCommand carries a retention extension request. Extensions
// are an approval flow, not self-service: ApprovedBy is the admin who signed
// off, RequestedBy the account that asked.
type ExtendRetentionCommand struct {
	SurveySID   string
	Months      int
	RequestedBy uint
	ApprovedBy  uint
	Reason      string
}

// ExtendRetentionResult reports the applied extension.
type ExtendRetentionResult struct {
	PreviousDeletionDate time.Time
	NewDeletionDate      time.Time
	RetentionMonths      int
}

// ExtendRetentionUseCase extends a closed survey's retention period. The
// survey update and the audit record commit in one transaction; an
// extension without its audit row must not exist.
type ExtendRetentionUseCase struct {
	surveys    survey.Repository
	accounts   account.Repository
	extensions survey.RetentionExtensionRepository
	txManager  *db.TransactionManager
	notifier   notification.Notifier
	logger     logger.Interface
}

// NewExtendRetentionUseCase creates an ExtendRetentionUseCase.
func NewExtendRetentionUseCase(
	surveys survey.Repository,
	accounts account.Repository,
	extensions survey.RetentionExtensionRepository,
	txManager *db.TransactionManager,
	notifier notification.Notifier,
	logger logger.Interface,
) *ExtendRetentionUseCase {
	return &ExtendRetentionUseCase{
		surveys:    surveys,
		accounts:   accounts,
		extensions: extensions,
		txManager:  txManager,
		notifier:   notifier,
		logger:     logger,
	}
}

// Execute applies the extension and notifies the survey owner, plus the
// requester when they are not the owner.
func (uc *ExtendRetentionUseCase) Execute(ctx context.Context, cmd ExtendRetentionCommand) (*ExtendRetentionResult, error) {
	if cmd.Reason == "" {
		return nil, apperrors.NewValidationError("a justification is required for retention extensions")
	}

	var (
		result  *ExtendRetentionResult
		subject *survey.Survey
	)
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		s, err := uc.surveys.GetBySID(txCtx, cmd.SurveySID)
		if err != nil {
			return fmt.Errorf("failed to load survey %s: %w", cmd.SurveySID, err)
		}
		if s == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("survey %s not found", cmd.SurveySID))
		}

		previous, next, err := s.ExtendRetention(cmd.Months)
		if err != nil {
			return apperrors.NewPreconditionError(err.Error())
		}

		ext, err := survey.NewRetentionExtension(
			s.ID(), cmd.RequestedBy, cmd.ApprovedBy, previous, next, cmd.Months, cmd.Reason)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}

		if err := uc.surveys.Update(txCtx, s); err != nil {
			return fmt.Errorf("failed to update survey %s: %w", cmd.SurveySID, err)
		}
		if err := uc.extensions.Append(txCtx, ext); err != nil {
			return fmt.Errorf("failed to append extension audit record: %w", err)
		}

		subject = s
		result = &ExtendRetentionResult{
			PreviousDeletionDate: previous,
			NewDeletionDate:      next,
			RetentionMonths:      s.RetentionMonths(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("retention extended",
		"survey", subject.SID(),
		"months_added", cmd.Months,
		"new_deletion_date", result.NewDeletionDate,
		"approved_by", cmd.ApprovedBy,
	)
	uc.notify(ctx, subject, cmd, result)
	return result, nil
}

func (uc *ExtendRetentionUseCase) notify(ctx context.Context, s *survey.Survey, cmd ExtendRetentionCommand, res *ExtendRetentionResult) {
	data := map[string]any{
		"survey_title":      s.Title(),
		"survey_sid":        s.SID(),
		"months_added":      cmd.Months,
		"new_deletion_date": res.NewDeletionDate,
	}

	recipients := []uint{s.AccountID()}
	if cmd.RequestedBy != 0 && cmd.RequestedBy != s.AccountID() {
		recipients = append(recipients, cmd.RequestedBy)
	}
	for _, accountID := range recipients {
		acct, err := uc.accounts.GetByID(ctx, accountID)
		if err != nil || acct == nil {
			uc.logger.Warnw("cannot notify about retention extension",
				"survey", s.SID(), "account_id", accountID, "error", err)
			continue
		}
		if !uc.notifier.Send(ctx, acct.Email(), notification.TemplateRetentionExtended, data) {
			uc.logger.Warnw("extension notification not delivered",
				"survey", s.SID(), "recipient", acct.Email())
		}
	}
}
