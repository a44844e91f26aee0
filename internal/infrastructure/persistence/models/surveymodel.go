package models

import (
	"time"

	"quillform/internal/shared/constants"
)

// SurveyModel is the persistence model for surveys and their retention
// state.
type SurveyModel struct {
	ID               uint   `gorm:"primarykey"`
	SID              string `gorm:"not null;size:32;uniqueIndex"`
	AccountID        uint   `gorm:"not null;index:idx_account_surveys,priority:1"`
	TeamID           *uint  `gorm:"index"`
	Title            string `gorm:"not null;size:255"`
	IsDuplicate      bool   `gorm:"not null;default:false;index:idx_account_surveys,priority:2"`
	PatientData      bool   `gorm:"not null;default:false"`
	WebhookURL       string `gorm:"size:2048"`
	EncryptionKeyID  string `gorm:"size:64"`
	ClosedAt         *time.Time `gorm:"index:idx_account_surveys,priority:3"`
	RetentionMonths  int        `gorm:"not null;default:6"`
	DeletionDate     *time.Time `gorm:"index"`
	DeletedAt        *time.Time
	HardDeletionDate *time.Time `gorm:"index"`
	WarningStage     int        `gorm:"not null;default:0"`
	LegalHold        bool       `gorm:"not null;default:false"`
	LegalHoldSetAt   *time.Time
	Version          int `gorm:"not null;default:1"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM
func (SurveyModel) TableName() string {
	return constants.TableSurveys
}

// CollaboratorModel is the persistence model for survey collaborators.
type CollaboratorModel struct {
	ID        uint   `gorm:"primarykey"`
	SurveyID  uint   `gorm:"not null;uniqueIndex:idx_survey_account,priority:1"`
	AccountID uint   `gorm:"not null;uniqueIndex:idx_survey_account,priority:2;index"`
	Kind      string `gorm:"not null;size:10"`
	AddedBy   uint
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (CollaboratorModel) TableName() string {
	return constants.TableCollaborators
}

// RetentionExtensionModel is the persistence model for the append-only
// retention extension audit log.
type RetentionExtensionModel struct {
	ID                   uint   `gorm:"primarykey"`
	SID                  string `gorm:"not null;size:32;uniqueIndex"`
	SurveyID             uint   `gorm:"not null;index"`
	RequestedBy          uint   `gorm:"not null"`
	ApprovedBy           uint   `gorm:"not null"`
	PreviousDeletionDate time.Time
	NewDeletionDate      time.Time
	MonthsAdded          int
	Reason               string `gorm:"type:text"`
	ApprovedAt           time.Time
}

// TableName specifies the table name for GORM
func (RetentionExtensionModel) TableName() string {
	return constants.TableRetentionExtensions
}
