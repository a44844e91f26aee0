package survey

import (
	"fmt"
	"time"

	"quillform/internal/shared/biztime"
)

// CollaboratorKind distinguishes what a collaborator may do on a survey.
// The kinds are independent tier capabilities, not an ordering: a tier may
// allow editors without allowing viewers.
type CollaboratorKind string

const (
	CollaboratorEditor CollaboratorKind = "editor"
	CollaboratorViewer CollaboratorKind = "viewer"
)

func (k CollaboratorKind) IsValid() bool {
	return k == CollaboratorEditor || k == CollaboratorViewer
}

// Collaborator is a membership of an account on a survey.
type Collaborator struct {
	ID        uint
	SurveyID  uint
	AccountID uint
	Kind      CollaboratorKind
	AddedBy   uint
	CreatedAt time.Time
}

// NewCollaborator creates a collaborator record.
func NewCollaborator(surveyID, accountID, addedBy uint, kind CollaboratorKind) (*Collaborator, error) {
	if surveyID == 0 || accountID == 0 {
		return nil, fmt.Errorf("survey ID and account ID are required")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid collaborator kind: %s", kind)
	}
	return &Collaborator{
		SurveyID:  surveyID,
		AccountID: accountID,
		Kind:      kind,
		AddedBy:   addedBy,
		CreatedAt: biztime.NowUTC(),
	}, nil
}
