package survey

import (
	"fmt"
	"time"

	"quillform/internal/shared/biztime"
	"quillform/internal/shared/id"
)

const (
	// Retention bounds in months. A month is approximated as 30 days
	// everywhere in retention arithmetic.
	MinRetentionMonths     = 6
	MaxRetentionMonths     = 24
	DefaultRetentionMonths = 6

	// HardDeleteGraceDays is the window between soft and hard deletion.
	HardDeleteGraceDays = 30
)

// Survey is the aggregate root for a survey and its retention state.
// Lifecycle: open -> closed -> (pending deletion) -> soft-deleted ->
// hard-deleted. An active legal hold blocks every automatic transition.
type Survey struct {
	id               uint
	sid              string
	accountID        uint
	teamID           *uint
	title            string
	isDuplicate      bool
	patientData      bool
	webhookURL       string
	encryptionKeyID  string
	closedAt         *time.Time
	retentionMonths  int
	deletionDate     *time.Time
	deletedAt        *time.Time
	hardDeletionDate *time.Time
	warningStage     WarningStage
	legalHold        bool
	legalHoldSetAt   *time.Time
	version          int
	createdAt        time.Time
	updatedAt        time.Time
}

// NewSurvey creates an open survey owned by the given account.
func NewSurvey(accountID uint, title string) (*Survey, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if title == "" {
		return nil, fmt.Errorf("survey title is required")
	}

	now := biztime.NowUTC()
	return &Survey{
		sid:             id.MustGenerateWithPrefix(id.PrefixSurvey, id.DefaultLength),
		accountID:       accountID,
		title:           title,
		retentionMonths: DefaultRetentionMonths,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructParams carries persistence fields for rebuilding a Survey.
type ReconstructParams struct {
	ID               uint
	SID              string
	AccountID        uint
	TeamID           *uint
	Title            string
	IsDuplicate      bool
	PatientData      bool
	WebhookURL       string
	EncryptionKeyID  string
	ClosedAt         *time.Time
	RetentionMonths  int
	DeletionDate     *time.Time
	DeletedAt        *time.Time
	HardDeletionDate *time.Time
	WarningStage     WarningStage
	LegalHold        bool
	LegalHoldSetAt   *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Reconstruct rebuilds a survey from persistence.
func Reconstruct(p ReconstructParams) (*Survey, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("survey ID cannot be zero")
	}
	if p.AccountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if p.RetentionMonths == 0 {
		p.RetentionMonths = DefaultRetentionMonths
	}

	return &Survey{
		id:               p.ID,
		sid:              p.SID,
		accountID:        p.AccountID,
		teamID:           p.TeamID,
		title:            p.Title,
		isDuplicate:      p.IsDuplicate,
		patientData:      p.PatientData,
		webhookURL:       p.WebhookURL,
		encryptionKeyID:  p.EncryptionKeyID,
		closedAt:         p.ClosedAt,
		retentionMonths:  p.RetentionMonths,
		deletionDate:     p.DeletionDate,
		deletedAt:        p.DeletedAt,
		hardDeletionDate: p.HardDeletionDate,
		warningStage:     p.WarningStage,
		legalHold:        p.LegalHold,
		legalHoldSetAt:   p.LegalHoldSetAt,
		version:          p.Version,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
	}, nil
}

func (s *Survey) ID() uint                     { return s.id }
func (s *Survey) SID() string                  { return s.sid }
func (s *Survey) AccountID() uint              { return s.accountID }
func (s *Survey) TeamID() *uint                { return s.teamID }
func (s *Survey) Title() string                { return s.title }
func (s *Survey) IsDuplicate() bool            { return s.isDuplicate }
func (s *Survey) PatientData() bool            { return s.patientData }
func (s *Survey) WebhookURL() string           { return s.webhookURL }
func (s *Survey) EncryptionKeyID() string      { return s.encryptionKeyID }
func (s *Survey) ClosedAt() *time.Time         { return s.closedAt }
func (s *Survey) RetentionMonths() int         { return s.retentionMonths }
func (s *Survey) DeletionDate() *time.Time     { return s.deletionDate }
func (s *Survey) DeletedAt() *time.Time        { return s.deletedAt }
func (s *Survey) HardDeletionDate() *time.Time { return s.hardDeletionDate }
func (s *Survey) WarningStage() WarningStage   { return s.warningStage }
func (s *Survey) LegalHold() bool              { return s.legalHold }
func (s *Survey) LegalHoldSetAt() *time.Time   { return s.legalHoldSetAt }
func (s *Survey) Version() int                 { return s.version }
func (s *Survey) CreatedAt() time.Time         { return s.createdAt }
func (s *Survey) UpdatedAt() time.Time         { return s.updatedAt }

func (s *Survey) IsOpen() bool        { return s.closedAt == nil }
func (s *Survey) IsClosed() bool      { return s.closedAt != nil }
func (s *Survey) IsSoftDeleted() bool { return s.deletedAt != nil }

// SetID sets the survey ID (only for persistence layer use)
func (s *Survey) SetID(surveyID uint) error {
	if s.id != 0 {
		return fmt.Errorf("survey ID is already set")
	}
	if surveyID == 0 {
		return fmt.Errorf("survey ID cannot be zero")
	}
	s.id = surveyID
	return nil
}

func (s *Survey) touch() {
	s.updatedAt = biztime.NowUTC()
	s.version++
}

// MarkDuplicate flags the survey as a duplicate. Duplicates do not count
// against the owner's original-survey ceiling.
func (s *Survey) MarkDuplicate() {
	s.isDuplicate = true
	s.touch()
}

// AssignTeam ties the survey to a team.
func (s *Survey) AssignTeam(teamID uint) error {
	if teamID == 0 {
		return fmt.Errorf("team ID cannot be zero")
	}
	s.teamID = &teamID
	s.touch()
	return nil
}

// SetPatientData toggles collection of patient (sensitive) data. The caller
// is responsible for the tier permission check.
func (s *Survey) SetPatientData(enabled bool) error {
	if s.IsClosed() {
		return fmt.Errorf("cannot change data collection settings on a closed survey")
	}
	s.patientData = enabled
	s.touch()
	return nil
}

// SetWebhookURL configures the response-received webhook. The caller is
// responsible for the tier permission check.
func (s *Survey) SetWebhookURL(url string) error {
	if s.IsClosed() {
		return fmt.Errorf("cannot configure webhooks on a closed survey")
	}
	s.webhookURL = url
	s.touch()
	return nil
}

// SetEncryptionKeyID records the key reference for encrypted response data.
func (s *Survey) SetEncryptionKeyID(keyID string) {
	s.encryptionKeyID = keyID
	s.touch()
}
