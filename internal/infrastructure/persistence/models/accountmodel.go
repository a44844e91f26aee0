// Package models holds the GORM persistence models. This is the
// anti-corruption layer between domain and database.
package models

import (
	"time"

	"quillform/internal/shared/constants"
)

// AccountModel is the persistence model for accounts.
type AccountModel struct {
	ID             uint   `gorm:"primarykey"`
	SID            string `gorm:"not null;size:32;uniqueIndex"`
	Email          string `gorm:"not null;size:255;uniqueIndex"`
	PasswordHash   string `gorm:"not null;size:255"`
	Tier           string `gorm:"not null;size:20;default:free"`
	Status         string `gorm:"not null;size:20;default:none;index:idx_status_period,priority:1"`
	CustomerID     string `gorm:"size:64;index"`
	SubscriptionID string `gorm:"size:64;index"`
	MandateID      string `gorm:"size:64"`
	PeriodEnd      *time.Time `gorm:"index:idx_status_period,priority:2"`
	LastTierChange *time.Time
	CustomBranding bool          `gorm:"not null;default:false"`
	Profile        *ProfileModel `gorm:"foreignKey:AccountID"`
	Version        int           `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (AccountModel) TableName() string {
	return constants.TableAccounts
}

// ProfileModel is the persistence model for account profiles. One per
// account, created in the same transaction.
type ProfileModel struct {
	ID          uint   `gorm:"primarykey"`
	AccountID   uint   `gorm:"not null;uniqueIndex"`
	DisplayName string `gorm:"size:255"`
	Company     string `gorm:"size:255"`
	Locale      string `gorm:"size:16"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (ProfileModel) TableName() string {
	return constants.TableProfiles
}
