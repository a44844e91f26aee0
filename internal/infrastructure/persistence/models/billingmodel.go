package models

import (
	"time"

	"gorm.io/datatypes"

	"quillform/internal/shared/constants"
)

// BillingEventModel is the dedupe record for applied webhook events. The
// unique index on EventID is what makes replays collide.
type BillingEventModel struct {
	ID             uint           `gorm:"primarykey"`
	EventID        string         `gorm:"not null;size:64;uniqueIndex"`
	SubscriptionID string         `gorm:"not null;size:64"`
	Action         string         `gorm:"not null;size:20"`
	Payload        datatypes.JSON `gorm:"type:json"`
	ProcessedAt    time.Time
}

// TableName specifies the table name for GORM
func (BillingEventModel) TableName() string {
	return constants.TableBillingEvents
}

// PaymentLedgerModel is the append-only payment ledger row.
type PaymentLedgerModel struct {
	ID             uint   `gorm:"primarykey"`
	SID            string `gorm:"not null;size:32;uniqueIndex"`
	AccountID      uint   `gorm:"not null;index"`
	EventID        string `gorm:"not null;size:64"`
	SubscriptionID string `gorm:"not null;size:64"`
	AmountCents    int64  `gorm:"not null"`
	Currency       string `gorm:"size:8"`
	CreatedAt      time.Time
}

// TableName specifies the table name for GORM
func (PaymentLedgerModel) TableName() string {
	return constants.TablePaymentLedger
}
