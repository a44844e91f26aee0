package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"quillform/internal/domain/billing"
	"quillform/internal/infrastructure/persistence/models"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// BillingEventRepositoryImpl implements the billing.EventRepository
// interface. The unique index on event_id is the dedupe mechanism: a replay
// surfaces here as a conflict.
type BillingEventRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewBillingEventRepository creates a new billing event repository instance
func NewBillingEventRepository(database *gorm.DB, logger logger.Interface) billing.EventRepository {
	return &BillingEventRepositoryImpl{db: database, logger: logger}
}

// MarkProcessed records the event id. Returns a conflict error when the id
// was already recorded.
func (r *BillingEventRepositoryImpl) MarkProcessed(ctx context.Context, rec *billing.ProcessedEvent) error {
	model := &models.BillingEventModel{
		EventID:        rec.EventID,
		SubscriptionID: rec.SubscriptionID,
		Action:         string(rec.Action),
		Payload:        datatypes.JSON(rec.Payload),
		ProcessedAt:    rec.ProcessedAt,
	}

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("billing event already processed")
		}
		r.logger.Errorw("failed to record billing event", "event_id", rec.EventID, "error", err)
		return fmt.Errorf("failed to record billing event: %w", err)
	}
	rec.ID = model.ID
	return nil
}

// WasProcessed reports whether the event id was already applied.
func (r *BillingEventRepositoryImpl) WasProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Model(&models.BillingEventModel{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check billing event: %w", err)
	}
	return count > 0, nil
}
