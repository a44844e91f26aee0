package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"quillform/internal/domain/account"
	"quillform/internal/domain/billing"
	"quillform/internal/domain/survey"
	"quillform/internal/domain/tier"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

type fakeAccounts struct {
	account.Repository
	byID    map[uint]*account.Account
	expired []*account.Account
	pastDue []*account.Account
	updates int
}

func (f *fakeAccounts) GetByID(ctx context.Context, id uint) (*account.Account, error) {
	return f.byID[id], nil
}

func (f *fakeAccounts) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*account.Account, error) {
	for _, acct := range f.byID {
		if acct.SubscriptionID() == subscriptionID {
			return acct, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) GetByCustomerID(ctx context.Context, customerID string) (*account.Account, error) {
	for _, acct := range f.byID {
		if acct.CustomerID() == customerID {
			return acct, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) Update(ctx context.Context, acct *account.Account) error {
	f.updates++
	f.byID[acct.ID()] = acct
	return nil
}

func (f *fakeAccounts) FindExpired(ctx context.Context, now time.Time) ([]*account.Account, error) {
	return f.expired, nil
}

func (f *fakeAccounts) FindPastDueSince(ctx context.Context, cutoff, now time.Time) ([]*account.Account, error) {
	return f.pastDue, nil
}

// fakeSurveys tracks open original surveys as a bare count. CloseOldestOpen
// hands out synthetic ids, oldest first.
type fakeSurveys struct {
	survey.Repository
	open   int
	closed []uint
}

func (f *fakeSurveys) CountOpenOriginalByAccount(ctx context.Context, accountID uint) (int, error) {
	return f.open, nil
}

func (f *fakeSurveys) CloseOldestOpen(ctx context.Context, accountID uint, n int) ([]uint, error) {
	var ids []uint
	for i := 0; i < n && f.open > 0; i++ {
		id := uint(len(f.closed) + 1)
		ids = append(ids, id)
		f.closed = append(f.closed, id)
		f.open--
	}
	return ids, nil
}

type fakeEvents struct {
	processed map[string]*billing.ProcessedEvent
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{processed: map[string]*billing.ProcessedEvent{}}
}

func (f *fakeEvents) MarkProcessed(ctx context.Context, rec *billing.ProcessedEvent) error {
	if _, ok := f.processed[rec.EventID]; ok {
		return apperrors.NewConflictError("billing event already processed")
	}
	f.processed[rec.EventID] = rec
	return nil
}

func (f *fakeEvents) WasProcessed(ctx context.Context, eventID string) (bool, error) {
	_, ok := f.processed[eventID]
	return ok, nil
}

type fakeLedger struct {
	entries []*billing.LedgerEntry
}

func (f *fakeLedger) Append(ctx context.Context, entry *billing.LedgerEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLedger) ListByAccount(ctx context.Context, accountID uint) ([]*billing.LedgerEntry, error) {
	return f.entries, nil
}

type sentNotification struct {
	recipient string
	template  string
	data      map[string]any
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Send(ctx context.Context, recipient, template string, data map[string]any) bool {
	f.sent = append(f.sent, sentNotification{recipient, template, data})
	return true
}

// newTxManager backs the transaction manager with an in-memory database. The
// fakes ignore the transaction context; only begin/commit mechanics matter.
func newTxManager(t *testing.T) *db.TransactionManager {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	return db.NewTransactionManager(gdb)
}

func reconstructAccount(t *testing.T, p account.ReconstructParams) *account.Account {
	t.Helper()
	if p.SID == "" {
		p.SID = "act_test"
	}
	if p.Email == "" {
		p.Email = "owner@example.com"
	}
	if p.Profile == nil {
		p.Profile = &account.Profile{DisplayName: "Owner"}
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	acct, err := account.Reconstruct(p)
	require.NoError(t, err)
	return acct
}

type billingFixture struct {
	accounts *fakeAccounts
	surveys  *fakeSurveys
	events   *fakeEvents
	ledger   *fakeLedger
	notifier *fakeNotifier
	apply    *ApplyBillingEventUseCase
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	f := &billingFixture{
		accounts: &fakeAccounts{byID: map[uint]*account.Account{}},
		surveys:  &fakeSurveys{},
		events:   newFakeEvents(),
		ledger:   &fakeLedger{},
		notifier: &fakeNotifier{},
	}
	f.apply = NewApplyBillingEventUseCase(
		f.accounts, f.surveys, f.events, f.ledger, f.notifier,
		newTxManager(t), logger.NewLogger())
	return f
}

func TestApplyBillingEvent_CreatedAttachesSubscription(t *testing.T) {
	f := newBillingFixture(t)
	f.accounts.byID[1] = reconstructAccount(t, account.ReconstructParams{
		ID:         1,
		Tier:       tier.Free,
		Status:     account.StatusNone,
		CustomerID: "cus_1",
	})

	end := time.Now().UTC().Add(30 * 24 * time.Hour)
	err := f.apply.Execute(context.Background(), billing.Event{
		EventID:        "evt_1",
		ResourceType:   billing.ResourceSubscription,
		Action:         billing.ActionCreated,
		SubscriptionID: "sub_1",
		CustomerID:     "cus_1",
		MandateID:      "mdt_1",
		Status:         account.StatusActive,
		PeriodEnd:      &end,
		Tier:           "pro",
	})
	require.NoError(t, err)

	acct := f.accounts.byID[1]
	assert.Equal(t, "sub_1", acct.SubscriptionID())
	assert.Equal(t, account.StatusActive, acct.Status())
	assert.Equal(t, tier.Pro, acct.Tier())
	require.NotNil(t, acct.PeriodEnd())

	done, _ := f.events.WasProcessed(context.Background(), "evt_1")
	assert.True(t, done)
}

func TestApplyBillingEvent_ReplayIsSkipped(t *testing.T) {
	f := newBillingFixture(t)
	acct := reconstructAccount(t, account.ReconstructParams{
		ID:             1,
		Tier:           tier.Pro,
		Status:         account.StatusActive,
		SubscriptionID: "sub_1",
	})
	f.accounts.byID[1] = acct
	require.NoError(t, f.events.MarkProcessed(context.Background(), &billing.ProcessedEvent{EventID: "evt_1"}))

	err := f.apply.Execute(context.Background(), billing.Event{
		EventID:        "evt_1",
		ResourceType:   billing.ResourceSubscription,
		Action:         billing.ActionCancelled,
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)

	// Nothing changed: the cancellation was already applied once.
	assert.Equal(t, tier.Pro, acct.Tier())
	assert.Equal(t, account.StatusActive, acct.Status())
	assert.Zero(t, f.accounts.updates)
	assert.Empty(t, f.notifier.sent)
}

func TestApplyBillingEvent_StaleUpdateRecordedNotApplied(t *testing.T) {
	f := newBillingFixture(t)
	current := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	acct := reconstructAccount(t, account.ReconstructParams{
		ID:             1,
		Tier:           tier.Pro,
		Status:         account.StatusActive,
		SubscriptionID: "sub_1",
		PeriodEnd:      &current,
	})
	f.accounts.byID[1] = acct

	older := current.Add(-30 * 24 * time.Hour)
	err := f.apply.Execute(context.Background(), billing.Event{
		EventID:        "evt_old",
		ResourceType:   billing.ResourceSubscription,
		Action:         billing.ActionUpdated,
		SubscriptionID: "sub_1",
		Status:         account.StatusPastDue,
		PeriodEnd:      &older,
	})
	require.NoError(t, err)

	assert.Equal(t, account.StatusActive, acct.Status())
	assert.Equal(t, current, *acct.PeriodEnd())
	// Recorded so a redelivery of the same stale event short-circuits.
	done, _ := f.events.WasProcessed(context.Background(), "evt_old")
	assert.True(t, done)
}

func TestApplyBillingEvent_CancelledDowngradesAndClosesExcess(t *testing.T) {
	f := newBillingFixture(t)
	acct := reconstructAccount(t, account.ReconstructParams{
		ID:             1,
		Tier:           tier.Pro,
		Status:         account.StatusActive,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		MandateID:      "mdt_1",
	})
	f.accounts.byID[1] = acct
	f.surveys.open = 5

	err := f.apply.Execute(context.Background(), billing.Event{
		EventID:        "evt_cancel",
		ResourceType:   billing.ResourceSubscription,
		Action:         billing.ActionCancelled,
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)

	assert.Equal(t, tier.Free, acct.Tier())
	assert.Equal(t, account.StatusCanceled, acct.Status())
	// 5 open against the free ceiling of 3: the 2 oldest were closed.
	assert.Len(t, f.surveys.closed, 2)
	assert.Equal(t, 3, f.surveys.open)
	// The provider references survive for reconciliation.
	assert.Empty(t, acct.SubscriptionID())
	assert.Equal(t, "cus_1", acct.CustomerID())
	assert.Equal(t, "mdt_1", acct.MandateID())

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "subscription_expired", f.notifier.sent[0].template)
	assert.Equal(t, tier.Pro, f.notifier.sent[0].data["previous_tier"])
	assert.Equal(t, 2, f.notifier.sent[0].data["surveys_closed"])
}

func TestApplyBillingEvent_UnpaidKeepsSubscriptionAttached(t *testing.T) {
	f := newBillingFixture(t)
	acct := reconstructAccount(t, account.ReconstructParams{
		ID:             1,
		Tier:           tier.Pro,
		Status:         account.StatusPastDue,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	f.accounts.byID[1] = acct

	err := f.apply.Execute(context.Background(), billing.Event{
		EventID:        "evt_unpaid",
		ResourceType:   billing.ResourceSubscription,
		Action:         billing.ActionUpdated,
		SubscriptionID: "sub_1",
		Status:         account.StatusUnpaid,
	})
	require.NoError(t, err)

	assert.Equal(t, tier.Free, acct.Tier())
	assert.Equal(t, account.StatusUnpaid, acct.Status())
	// The provider may still collect on an unpaid subscription, so a
	// recovery event must keep resolving by subscription id.
	assert.Equal(t, "sub_1", acct.SubscriptionID())
	resolved, err := f.accounts.GetBySubscriptionID(context.Background(), "sub_1")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, acct.ID(), resolved.ID())

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "subscription_unpaid", f.notifier.sent[0].template)
}

func TestApplyBillingEvent_PaymentConfirmedAppendsLedger(t *testing.T) {
	f := newBillingFixture(t)
	f.accounts.byID[1] = reconstructAccount(t, account.ReconstructParams{
		ID:             1,
		Tier:           tier.Pro,
		Status:         account.StatusActive,
		SubscriptionID: "sub_1",
	})

	err := f.apply.Execute(context.Background(), billing.Event{
		EventID:        "evt_pay",
		ResourceType:   billing.ResourcePayment,
		Action:         billing.ActionConfirmed,
		SubscriptionID: "sub_1",
		AmountCents:    2900,
		Currency:       "EUR",
	})
	require.NoError(t, err)

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, uint(1), entry.AccountID)
	assert.Equal(t, "evt_pay", entry.EventID)
	assert.Equal(t, int64(2900), entry.AmountCents)
	assert.Equal(t, "EUR", entry.Currency)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "payment_confirmed", f.notifier.sent[0].template)
}

func TestApplyBillingEvent_UnknownSubscription(t *testing.T) {
	f := newBillingFixture(t)

	err := f.apply.Execute(context.Background(), billing.Event{
		EventID:        "evt_orphan",
		ResourceType:   billing.ResourceSubscription,
		Action:         billing.ActionUpdated,
		SubscriptionID: "sub_nobody",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
	// Not recorded: a retry after the account exists must apply it.
	done, _ := f.events.WasProcessed(context.Background(), "evt_orphan")
	assert.False(t, done)
}

func TestApplyBillingEvent_RejectsMalformedEvent(t *testing.T) {
	f := newBillingFixture(t)

	err := f.apply.Execute(context.Background(), billing.Event{
		EventID:      "evt_bad",
		ResourceType: billing.ResourceSubscription,
		Action:       billing.Action("renewed"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}
