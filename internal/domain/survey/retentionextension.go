package survey

import (
	"fmt"
	"time"

	"quillform/internal/shared/biztime"
	"quillform/internal/shared/id"
)

// RetentionExtension is an append-only audit record of a retention
// extension. Records are never mutated or deleted.
type RetentionExtension struct {
	ID                   uint
	SID                  string
	SurveyID             uint
	RequestedBy          uint
	ApprovedBy           uint
	PreviousDeletionDate time.Time
	NewDeletionDate      time.Time
	MonthsAdded          int
	Reason               string
	ApprovedAt           time.Time
}

// NewRetentionExtension creates the audit record for an extension.
func NewRetentionExtension(surveyID, requestedBy, approvedBy uint, previous, next time.Time, months int, reason string) (*RetentionExtension, error) {
	if surveyID == 0 {
		return nil, fmt.Errorf("survey ID is required")
	}
	if reason == "" {
		return nil, fmt.Errorf("a justification is required for retention extensions")
	}
	return &RetentionExtension{
		SID:                  id.MustGenerateWithPrefix(id.PrefixRetentionExtension, id.DefaultLength),
		SurveyID:             surveyID,
		RequestedBy:          requestedBy,
		ApprovedBy:           approvedBy,
		PreviousDeletionDate: previous,
		NewDeletionDate:      next,
		MonthsAdded:          months,
		Reason:               reason,
		ApprovedAt:           biztime.NowUTC(),
	}, nil
}
