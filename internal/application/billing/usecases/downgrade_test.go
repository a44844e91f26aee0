package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillform/internal/domain/account"
	"quillform/internal/domain/tier"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

func TestDowngrade_RefusedWhenOverCeiling(t *testing.T) {
	accounts := &fakeAccounts{byID: map[uint]*account.Account{}}
	surveys := &fakeSurveys{open: 5}
	accounts.byID[1] = reconstructAccount(t, account.ReconstructParams{
		ID: 1, Tier: tier.Pro, Status: account.StatusActive, SubscriptionID: "sub_1",
	})
	uc := NewDowngradeUseCase(accounts, surveys, newTxManager(t), logger.NewLogger())

	_, err := uc.Execute(context.Background(), 1, "free")
	require.Error(t, err)
	assert.True(t, apperrors.IsPreconditionError(err))
	assert.Contains(t, err.Error(), "close 2 before downgrading")
	// No surveys were touched and the tier stands.
	assert.Empty(t, surveys.closed)
	assert.Equal(t, tier.Pro, accounts.byID[1].Tier())
}

func TestDowngrade_AppliedWhenUnderCeiling(t *testing.T) {
	accounts := &fakeAccounts{byID: map[uint]*account.Account{}}
	surveys := &fakeSurveys{open: 2}
	accounts.byID[1] = reconstructAccount(t, account.ReconstructParams{
		ID: 1, Tier: tier.Pro, Status: account.StatusActive, SubscriptionID: "sub_1",
	})
	uc := NewDowngradeUseCase(accounts, surveys, newTxManager(t), logger.NewLogger())

	got, err := uc.Execute(context.Background(), 1, "free")
	require.NoError(t, err)
	assert.Equal(t, tier.Free, got)
	assert.Equal(t, tier.Free, accounts.byID[1].Tier())
	assert.Empty(t, surveys.closed)
}

func TestDowngrade_UnknownTierRejected(t *testing.T) {
	accounts := &fakeAccounts{byID: map[uint]*account.Account{}}
	uc := NewDowngradeUseCase(accounts, &fakeSurveys{}, newTxManager(t), logger.NewLogger())

	_, err := uc.Execute(context.Background(), 1, "gold")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestForceDowngrade_ClosesOldestToFit(t *testing.T) {
	accounts := &fakeAccounts{byID: map[uint]*account.Account{}}
	surveys := &fakeSurveys{open: 5}
	accounts.byID[1] = reconstructAccount(t, account.ReconstructParams{
		ID: 1, Tier: tier.Pro, Status: account.StatusActive, SubscriptionID: "sub_1",
	})
	uc := NewForceDowngradeUseCase(accounts, surveys, newTxManager(t), logger.NewLogger())

	result, err := uc.Execute(context.Background(), 1, tier.Free)
	require.NoError(t, err)
	assert.Equal(t, tier.Free, result.Tier)
	assert.Len(t, result.ClosedSurveyIDs, 2)
	assert.Contains(t, result.Message, "2 surveys were closed")
	assert.Equal(t, tier.Free, accounts.byID[1].Tier())

	// Second run: the account already fits, nothing more to close.
	result, err = uc.Execute(context.Background(), 1, tier.Free)
	require.NoError(t, err)
	assert.Empty(t, result.ClosedSurveyIDs)
	assert.Equal(t, 3, surveys.open)
}

func TestForceDowngrade_UnlimitedTargetClosesNothing(t *testing.T) {
	accounts := &fakeAccounts{byID: map[uint]*account.Account{}}
	surveys := &fakeSurveys{open: 50}
	accounts.byID[1] = reconstructAccount(t, account.ReconstructParams{
		ID: 1, Tier: tier.Organization, Status: account.StatusActive, SubscriptionID: "sub_1",
	})
	uc := NewForceDowngradeUseCase(accounts, surveys, newTxManager(t), logger.NewLogger())

	result, err := uc.Execute(context.Background(), 1, tier.Pro)
	require.NoError(t, err)
	assert.Empty(t, result.ClosedSurveyIDs)
	assert.Equal(t, 50, surveys.open)
}

func TestProcessExpired_SettlesExpiredAccounts(t *testing.T) {
	past := time.Now().UTC().Add(-48 * time.Hour)
	acct := reconstructAccount(t, account.ReconstructParams{
		ID: 1, Tier: tier.Pro, Status: account.StatusActive,
		CustomerID: "cus_1", SubscriptionID: "sub_1", PeriodEnd: &past,
	})
	accounts := &fakeAccounts{byID: map[uint]*account.Account{1: acct}}
	accounts.expired = []*account.Account{acct}
	surveys := &fakeSurveys{open: 4}
	notifier := &fakeNotifier{}
	uc := NewProcessExpiredUseCase(accounts, surveys, notifier, newTxManager(t), logger.NewLogger())

	summary, err := uc.Execute(context.Background(), SweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ExpiredFound)
	assert.Equal(t, 1, summary.Downgraded)
	assert.Equal(t, 1, summary.SurveysClosed)
	assert.Zero(t, summary.Errors)

	assert.Equal(t, tier.Free, acct.Tier())
	assert.Equal(t, account.StatusCanceled, acct.Status())
	assert.Empty(t, acct.SubscriptionID())

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "subscription_expired", notifier.sent[0].template)
}

func TestProcessExpired_SkipsRenewedAccount(t *testing.T) {
	// The batch query saw the account as expired, but a renewal webhook
	// landed before the per-account transaction reloaded it.
	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	acct := reconstructAccount(t, account.ReconstructParams{
		ID: 1, Tier: tier.Pro, Status: account.StatusActive,
		SubscriptionID: "sub_1", PeriodEnd: &future,
	})
	accounts := &fakeAccounts{byID: map[uint]*account.Account{1: acct}}
	accounts.expired = []*account.Account{acct}
	notifier := &fakeNotifier{}
	uc := NewProcessExpiredUseCase(accounts, &fakeSurveys{}, notifier, newTxManager(t), logger.NewLogger())

	summary, err := uc.Execute(context.Background(), SweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Downgraded)
	assert.Equal(t, tier.Pro, acct.Tier())
	assert.Empty(t, notifier.sent)
}

func TestProcessExpired_PastDueBeyondGraceGoesUnpaid(t *testing.T) {
	acct := reconstructAccount(t, account.ReconstructParams{
		ID: 1, Tier: tier.TeamSmall, Status: account.StatusPastDue, SubscriptionID: "sub_1",
	})
	accounts := &fakeAccounts{byID: map[uint]*account.Account{1: acct}}
	accounts.pastDue = []*account.Account{acct}
	notifier := &fakeNotifier{}
	uc := NewProcessExpiredUseCase(accounts, &fakeSurveys{open: 1}, notifier, newTxManager(t), logger.NewLogger())

	summary, err := uc.Execute(context.Background(), SweepOptions{GraceDays: 7})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PastDueFound)
	assert.Equal(t, 1, summary.Downgraded)
	assert.Equal(t, tier.Free, acct.Tier())
	assert.Equal(t, account.StatusUnpaid, acct.Status())
	// Unpaid keeps the subscription attached; only cancellation clears it.
	assert.Equal(t, "sub_1", acct.SubscriptionID())

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "subscription_unpaid", notifier.sent[0].template)
}

func TestProcessExpired_DryRunTouchesNothing(t *testing.T) {
	past := time.Now().UTC().Add(-48 * time.Hour)
	acct := reconstructAccount(t, account.ReconstructParams{
		ID: 1, Tier: tier.Pro, Status: account.StatusActive,
		SubscriptionID: "sub_1", PeriodEnd: &past,
	})
	accounts := &fakeAccounts{byID: map[uint]*account.Account{1: acct}}
	accounts.expired = []*account.Account{acct}
	surveys := &fakeSurveys{open: 5}
	notifier := &fakeNotifier{}
	uc := NewProcessExpiredUseCase(accounts, surveys, notifier, newTxManager(t), logger.NewLogger())

	summary, err := uc.Execute(context.Background(), SweepOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Downgraded)
	assert.Equal(t, 2, summary.SurveysClosed)

	assert.Equal(t, tier.Pro, acct.Tier())
	assert.Equal(t, account.StatusActive, acct.Status())
	assert.Empty(t, surveys.closed)
	assert.Zero(t, accounts.updates)
	assert.Empty(t, notifier.sent)
}
