// Package usecases implements the subscription lifecycle: applying
// normalized billing webhook events, user-initiated and forced downgrades,
// and the daily sweep over lapsed subscriptions.
package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"quillform/internal/application/notification"
	"quillform/internal/domain/account"
	"quillform/internal/domain/billing"
	"quillform/internal/domain/survey"
	"quillform/internal/domain/tier"
	"quillform/internal/shared/biztime"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// pendingNotification is an email queued during the transaction and sent
// only after commit. A rolled-back transition must not notify anyone.
type pendingNotification struct {
	recipient string
	template  string
	data      map[string]any
}

// ApplyBillingEventUseCase applies one normalized billing event to the
// owning account. Idempotent per event id: the dedupe record is written in
// the same transaction as the state change, so a replay either sees the
// record and skips, or loses the insert race and rolls back.
type ApplyBillingEventUseCase struct {
	accounts  account.Repository
	surveys   survey.Repository
	events    billing.EventRepository
	ledger    billing.LedgerRepository
	notifier  notification.Notifier
	txManager *db.TransactionManager
	logger    logger.Interface
}

// NewApplyBillingEventUseCase creates an ApplyBillingEventUseCase.
func NewApplyBillingEventUseCase(
	accounts account.Repository,
	surveys survey.Repository,
	events billing.EventRepository,
	ledger billing.LedgerRepository,
	notifier notification.Notifier,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *ApplyBillingEventUseCase {
	return &ApplyBillingEventUseCase{
		accounts:  accounts,
		surveys:   surveys,
		events:    events,
		ledger:    ledger,
		notifier:  notifier,
		txManager: txManager,
		logger:    logger,
	}
}

// Execute applies the event. Returning nil means the event is settled: either
// applied now, applied earlier, or recognized as stale and recorded as such.
func (uc *ApplyBillingEventUseCase) Execute(ctx context.Context, evt billing.Event) error {
	if err := evt.Validate(); err != nil {
		return apperrors.NewValidationError("invalid billing event", err.Error())
	}

	done, err := uc.events.WasProcessed(ctx, evt.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event %s: %w", evt.EventID, err)
	}
	if done {
		uc.logger.Infow("billing event already applied, skipping", "event_id", evt.EventID)
		return nil
	}

	var notices []pendingNotification
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		acct, err := uc.lookupAccount(txCtx, &evt)
		if err != nil {
			return err
		}
		if acct == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf(
				"no account for subscription %s", evt.SubscriptionID))
		}

		// Deliveries can arrive out of order. An update whose period end
		// is behind what we already hold is older than the state it would
		// overwrite; record it and move on.
		if evt.Action == billing.ActionUpdated &&
			evt.PeriodEnd != nil && acct.PeriodEnd() != nil &&
			evt.PeriodEnd.Before(*acct.PeriodEnd()) {
			uc.logger.Warnw("ignoring stale billing event",
				"event_id", evt.EventID,
				"event_period_end", evt.PeriodEnd,
				"account_period_end", acct.PeriodEnd(),
			)
			return uc.markProcessed(txCtx, &evt)
		}

		if evt.ResourceType == billing.ResourcePayment {
			if evt.Action == billing.ActionConfirmed {
				entry := billing.NewLedgerEntry(acct.ID(), evt.EventID, evt.SubscriptionID, evt.AmountCents, evt.Currency)
				if err := uc.ledger.Append(txCtx, entry); err != nil {
					return fmt.Errorf("failed to append ledger entry for event %s: %w", evt.EventID, err)
				}
				notices = append(notices, pendingNotification{
					recipient: acct.Email(),
					template:  notification.TemplatePaymentConfirmed,
					data: map[string]any{
						"amount_cents": evt.AmountCents,
						"currency":     evt.Currency,
					},
				})
			}
			return uc.markProcessed(txCtx, &evt)
		}

		switch evt.Action {
		case billing.ActionCreated:
			err = uc.applyCreated(txCtx, acct, &evt)
		case billing.ActionUpdated:
			var n []pendingNotification
			n, err = uc.applyUpdated(txCtx, acct, &evt)
			notices = append(notices, n...)
		case billing.ActionCancelled:
			var n []pendingNotification
			n, err = uc.applyCancelled(txCtx, acct, &evt)
			notices = append(notices, n...)
		}
		if err != nil {
			return err
		}

		if err := uc.accounts.Update(txCtx, acct); err != nil {
			return fmt.Errorf("failed to update account %d: %w", acct.ID(), err)
		}
		return uc.markProcessed(txCtx, &evt)
	})
	if err != nil {
		// A duplicate event id on the dedupe insert means a concurrent
		// delivery committed first; our rollback leaves its result standing.
		if appErr := apperrors.GetAppError(err); appErr != nil && appErr.Type == apperrors.ErrorTypeConflict {
			uc.logger.Infow("billing event applied by concurrent delivery", "event_id", evt.EventID)
			return nil
		}
		return err
	}

	for _, n := range notices {
		if !uc.notifier.Send(ctx, n.recipient, n.template, n.data) {
			uc.logger.Warnw("billing notification not delivered",
				"recipient", n.recipient, "template", n.template)
		}
	}
	return nil
}

// lookupAccount resolves the account the event belongs to. Creation events
// arrive before the subscription id is attached, so they fall back to the
// provider customer id.
func (uc *ApplyBillingEventUseCase) lookupAccount(ctx context.Context, evt *billing.Event) (*account.Account, error) {
	acct, err := uc.accounts.GetBySubscriptionID(ctx, evt.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up subscription %s: %w", evt.SubscriptionID, err)
	}
	if acct == nil && evt.CustomerID != "" {
		acct, err = uc.accounts.GetByCustomerID(ctx, evt.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up customer %s: %w", evt.CustomerID, err)
		}
	}
	return acct, nil
}

func (uc *ApplyBillingEventUseCase) applyCreated(ctx context.Context, acct *account.Account, evt *billing.Event) error {
	acct.AttachSubscription(evt.CustomerID, evt.SubscriptionID, evt.MandateID)

	status := evt.Status
	if status == "" {
		status = account.StatusActive
	}
	if err := acct.ApplyStatus(status); err != nil {
		return apperrors.NewConflictError("subscription status transition rejected", err.Error())
	}
	acct.SetPeriodEnd(evt.PeriodEnd)

	if evt.Tier != "" {
		// A tier name we cannot map is a misconfigured price, not a user
		// mistake. Surface it so the webhook is retried after the fix.
		target, err := tier.Parse(evt.Tier)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if err := acct.ChangeTier(target); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
	}
	return nil
}

func (uc *ApplyBillingEventUseCase) applyUpdated(ctx context.Context, acct *account.Account, evt *billing.Event) ([]pendingNotification, error) {
	if evt.Status != "" {
		if err := acct.ApplyStatus(evt.Status); err != nil {
			return nil, apperrors.NewConflictError("subscription status transition rejected", err.Error())
		}
	}
	if evt.PeriodEnd != nil {
		acct.SetPeriodEnd(evt.PeriodEnd)
	}

	if evt.Tier != "" {
		target, err := tier.Parse(evt.Tier)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		if target != acct.Tier() {
			// A provider-driven plan change downward carries force
			// semantics: excess surveys are closed, not negotiated.
			if _, err := enforceSurveyCeiling(ctx, uc.surveys, acct.ID(), target); err != nil {
				return nil, err
			}
			if err := acct.ChangeTier(target); err != nil {
				return nil, apperrors.NewValidationError(err.Error())
			}
		}
	}

	if acct.Status() == account.StatusUnpaid {
		return uc.settleLapsed(ctx, acct, notification.TemplateSubscriptionUnpaid)
	}
	if acct.Status() == account.StatusCanceled {
		return uc.settleLapsed(ctx, acct, notification.TemplateSubscriptionExpired)
	}
	return nil, nil
}

func (uc *ApplyBillingEventUseCase) applyCancelled(ctx context.Context, acct *account.Account, evt *billing.Event) ([]pendingNotification, error) {
	if err := acct.ApplyStatus(account.StatusCanceled); err != nil {
		return nil, apperrors.NewConflictError("subscription status transition rejected", err.Error())
	}
	return uc.settleLapsed(ctx, acct, notification.TemplateSubscriptionExpired)
}

// settleLapsed drops a lapsed account to the free tier. The subscription is
// detached only on cancellation: an unpaid account keeps it attached so a
// later recovery event still resolves by subscription id. Caller persists
// the account.
func (uc *ApplyBillingEventUseCase) settleLapsed(ctx context.Context, acct *account.Account, template string) ([]pendingNotification, error) {
	closed, err := enforceSurveyCeiling(ctx, uc.surveys, acct.ID(), tier.Free)
	if err != nil {
		return nil, err
	}
	previous := acct.Tier()
	if err := acct.ChangeTier(tier.Free); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if acct.Status() == account.StatusCanceled {
		acct.ClearSubscription()
	}

	return []pendingNotification{{
		recipient: acct.Email(),
		template:  template,
		data: map[string]any{
			"previous_tier":  previous,
			"surveys_closed": len(closed),
		},
	}}, nil
}

func (uc *ApplyBillingEventUseCase) markProcessed(ctx context.Context, evt *billing.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", evt.EventID, err)
	}
	return uc.events.MarkProcessed(ctx, &billing.ProcessedEvent{
		EventID:        evt.EventID,
		SubscriptionID: evt.SubscriptionID,
		Action:         evt.Action,
		Payload:        payload,
		ProcessedAt:    biztime.NowUTC(),
	})
}
