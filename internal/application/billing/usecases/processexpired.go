package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quillform/internal/application/notification"
	"quillform/internal/domain/account"
	"quillform/internal/domain/survey"
	"quillform/internal/domain/tier"
	"quillform/internal/shared/biztime"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

// DefaultPastDueGraceDays is how long an account may sit in past_due before
// the sweep marks it unpaid and downgrades it.
const DefaultPastDueGraceDays = 7

// errAlreadySettled aborts a per-account transaction when a webhook or a
// concurrent sweep handled the account first. Not an error for the summary.
var errAlreadySettled = errors.New("account already settled")

// SweepOptions control a billing sweep run.
type SweepOptions struct {
	DryRun    bool
	Verbose   bool
	GraceDays int
}

// SweepSummary is what a sweep run did, or under dry-run would have done.
type SweepSummary struct {
	ExpiredFound  int
	PastDueFound  int
	Downgraded    int
	SurveysClosed int
	Skipped       int
	Errors        int
}

// ProcessExpiredUseCase is the daily sweep over lapsed subscriptions. Two
// passes: accounts whose paid period ended get canceled and downgraded, and
// accounts stuck in past_due beyond the grace window get marked unpaid and
// downgraded. Each account is settled in its own transaction so one failure
// never blocks the rest of the batch.
type ProcessExpiredUseCase struct {
	accounts  account.Repository
	surveys   survey.Repository
	notifier  notification.Notifier
	txManager *db.TransactionManager
	logger    logger.Interface
}

// NewProcessExpiredUseCase creates a ProcessExpiredUseCase.
func NewProcessExpiredUseCase(
	accounts account.Repository,
	surveys survey.Repository,
	notifier notification.Notifier,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *ProcessExpiredUseCase {
	return &ProcessExpiredUseCase{
		accounts:  accounts,
		surveys:   surveys,
		notifier:  notifier,
		txManager: txManager,
		logger:    logger,
	}
}

// Execute runs both passes and returns the summary. The returned error is
// reserved for failures of the sweep itself; per-account failures are
// counted and logged, never propagated.
func (uc *ProcessExpiredUseCase) Execute(ctx context.Context, opts SweepOptions) (*SweepSummary, error) {
	if opts.GraceDays <= 0 {
		opts.GraceDays = DefaultPastDueGraceDays
	}
	now := biztime.NowUTC()
	summary := &SweepSummary{}

	expired, err := uc.accounts.FindExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired subscriptions: %w", err)
	}
	summary.ExpiredFound = len(expired)
	for _, acct := range expired {
		uc.settleOne(ctx, acct, account.StatusCanceled, notification.TemplateSubscriptionExpired, now, opts, summary)
	}

	cutoff := now.Add(-time.Duration(opts.GraceDays) * biztime.Day)
	pastDue, err := uc.accounts.FindPastDueSince(ctx, cutoff, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find past-due subscriptions: %w", err)
	}
	summary.PastDueFound = len(pastDue)
	for _, acct := range pastDue {
		uc.settleOne(ctx, acct, account.StatusUnpaid, notification.TemplateSubscriptionUnpaid, now, opts, summary)
	}

	uc.logger.Infow("billing sweep finished",
		"dry_run", opts.DryRun,
		"expired_found", summary.ExpiredFound,
		"past_due_found", summary.PastDueFound,
		"downgraded", summary.Downgraded,
		"surveys_closed", summary.SurveysClosed,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
	)
	return summary, nil
}

func (uc *ProcessExpiredUseCase) settleOne(
	ctx context.Context,
	acct *account.Account,
	target account.SubscriptionStatus,
	template string,
	now time.Time,
	opts SweepOptions,
	summary *SweepSummary,
) {
	if opts.DryRun {
		uc.dryRunOne(ctx, acct, target, opts, summary)
		return
	}

	previous := acct.Tier()
	var closed int
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		// Reload inside the transaction: a webhook may have renewed or
		// settled the account between the batch query and this point.
		fresh, err := uc.accounts.GetByID(txCtx, acct.ID())
		if err != nil {
			return fmt.Errorf("failed to reload account %d: %w", acct.ID(), err)
		}
		if fresh == nil {
			return errAlreadySettled
		}
		switch target {
		case account.StatusCanceled:
			if fresh.PeriodEnd() == nil || fresh.PeriodEnd().After(now) {
				return errAlreadySettled
			}
		case account.StatusUnpaid:
			if fresh.Status() != account.StatusPastDue {
				return errAlreadySettled
			}
		}
		if fresh.Tier() == tier.Free && fresh.Status() == target {
			return errAlreadySettled
		}

		ids, err := enforceSurveyCeiling(txCtx, uc.surveys, fresh.ID(), tier.Free)
		if err != nil {
			return err
		}
		if err := fresh.ChangeTier(tier.Free); err != nil {
			return err
		}
		if err := fresh.ApplyStatus(target); err != nil {
			return err
		}
		if target == account.StatusCanceled {
			fresh.ClearSubscription()
		}
		if err := uc.accounts.Update(txCtx, fresh); err != nil {
			return fmt.Errorf("failed to update account %d: %w", fresh.ID(), err)
		}
		closed = len(ids)
		return nil
	})
	switch {
	case errors.Is(err, errAlreadySettled):
		summary.Skipped++
		return
	case err != nil:
		summary.Errors++
		uc.logger.Errorw("failed to settle lapsed account",
			"account_id", acct.ID(), "target_status", target, "error", err)
		return
	}

	summary.Downgraded++
	summary.SurveysClosed += closed
	if opts.Verbose {
		uc.logger.Infow("lapsed account downgraded",
			"account", acct.SID(),
			"previous_tier", previous,
			"status", target,
			"surveys_closed", closed,
		)
	}

	// Notification is best-effort and happens outside the transaction.
	if !uc.notifier.Send(ctx, acct.Email(), template, map[string]any{
		"previous_tier":  previous,
		"surveys_closed": closed,
	}) {
		uc.logger.Warnw("lapse notification not delivered",
			"account", acct.SID(), "template", template)
	}
}

func (uc *ProcessExpiredUseCase) dryRunOne(
	ctx context.Context,
	acct *account.Account,
	target account.SubscriptionStatus,
	opts SweepOptions,
	summary *SweepSummary,
) {
	open, err := uc.surveys.CountOpenOriginalByAccount(ctx, acct.ID())
	if err != nil {
		summary.Errors++
		uc.logger.Errorw("dry-run: failed to count open surveys",
			"account_id", acct.ID(), "error", err)
		return
	}
	wouldClose := 0
	if ceiling := tier.LimitsFor(tier.Free).MaxSurveys; ceiling != nil && open > *ceiling {
		wouldClose = open - *ceiling
	}
	summary.Downgraded++
	summary.SurveysClosed += wouldClose
	if opts.Verbose {
		uc.logger.Infow("dry-run: would downgrade lapsed account",
			"account", acct.SID(),
			"current_tier", acct.Tier(),
			"target_status", target,
			"surveys_to_close", wouldClose,
		)
	}
}
