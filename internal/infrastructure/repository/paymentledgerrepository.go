package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"quillform/internal/domain/billing"
	"quillform/internal/infrastructure/persistence/models"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

// PaymentLedgerRepositoryImpl implements the billing.LedgerRepository
// interface. Append-only.
type PaymentLedgerRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewPaymentLedgerRepository creates a new payment ledger repository
// instance
func NewPaymentLedgerRepository(database *gorm.DB, logger logger.Interface) billing.LedgerRepository {
	return &PaymentLedgerRepositoryImpl{db: database, logger: logger}
}

// Append inserts the ledger row.
func (r *PaymentLedgerRepositoryImpl) Append(ctx context.Context, entry *billing.LedgerEntry) error {
	model := &models.PaymentLedgerModel{
		SID:            entry.SID,
		AccountID:      entry.AccountID,
		EventID:        entry.EventID,
		SubscriptionID: entry.SubscriptionID,
		AmountCents:    entry.AmountCents,
		Currency:       entry.Currency,
		CreatedAt:      entry.CreatedAt,
	}

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		r.logger.Errorw("failed to append payment ledger entry",
			"account_id", entry.AccountID, "event_id", entry.EventID, "error", err)
		return fmt.Errorf("failed to append payment ledger entry: %w", err)
	}
	entry.ID = model.ID
	return nil
}

// ListByAccount returns the account's ledger, newest first.
func (r *PaymentLedgerRepositoryImpl) ListByAccount(ctx context.Context, accountID uint) ([]*billing.LedgerEntry, error) {
	var ms []*models.PaymentLedgerModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment ledger: %w", err)
	}

	entries := make([]*billing.LedgerEntry, 0, len(ms))
	for _, m := range ms {
		entries = append(entries, &billing.LedgerEntry{
			ID:             m.ID,
			SID:            m.SID,
			AccountID:      m.AccountID,
			EventID:        m.EventID,
			SubscriptionID: m.SubscriptionID,
			AmountCents:    m.AmountCents,
			Currency:       m.Currency,
			CreatedAt:      m.CreatedAt,
		})
	}
	return entries, nil
}
