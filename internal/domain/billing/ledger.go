package billing

import (
	"context"
	"time"

	"quillform/internal/shared/biztime"
	"quillform/internal/shared/id"
)

// ProcessedEvent is the dedupe record for an applied webhook event. The
// provider does not guarantee exactly-once delivery, so the lifecycle keeps
// its own ledger of applied event ids. Payload holds the normalized event
// as JSON for later audit.
type ProcessedEvent struct {
	ID             uint
	EventID        string
	SubscriptionID string
	Action         Action
	Payload        []byte
	ProcessedAt    time.Time
}

// LedgerEntry is an append-only payment ledger row, written once per
// confirmed payment event.
type LedgerEntry struct {
	ID             uint
	SID            string
	AccountID      uint
	EventID        string
	SubscriptionID string
	AmountCents    int64
	Currency       string
	CreatedAt      time.Time
}

// NewLedgerEntry records a confirmed payment.
func NewLedgerEntry(accountID uint, eventID, subscriptionID string, amountCents int64, currency string) *LedgerEntry {
	return &LedgerEntry{
		SID:            id.MustGenerateWithPrefix(id.PrefixLedgerEntry, id.DefaultLength),
		AccountID:      accountID,
		EventID:        eventID,
		SubscriptionID: subscriptionID,
		AmountCents:    amountCents,
		Currency:       currency,
		CreatedAt:      biztime.NowUTC(),
	}
}

// EventRepository persists the webhook dedupe ledger.
type EventRepository interface {
	// MarkProcessed records the event id; returns a conflict error when
	// the id was already recorded (unique index on event_id).
	MarkProcessed(ctx context.Context, rec *ProcessedEvent) error
	WasProcessed(ctx context.Context, eventID string) (bool, error)
}

// LedgerRepository appends payment ledger rows. Append-only.
type LedgerRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
	ListByAccount(ctx context.Context, accountID uint) ([]*LedgerEntry, error)
}
