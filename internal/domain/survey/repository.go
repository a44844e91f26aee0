package survey

import (
	"context"
	"time"
)

// Repository is the persistence port for surveys and their retention state.
// Count methods read straight from durable storage: permission checks call
// them at decision time and must never see a stale cached value.
type Repository interface {
	Create(ctx context.Context, s *Survey) error
	Update(ctx context.Context, s *Survey) error
	GetByID(ctx context.Context, id uint) (*Survey, error)
	GetBySID(ctx context.Context, sid string) (*Survey, error)
	ListByAccount(ctx context.Context, accountID uint) ([]*Survey, error)

	// CountOriginalByAccount counts non-duplicate surveys owned by the
	// account, open or closed. Used for the creation ceiling.
	CountOriginalByAccount(ctx context.Context, accountID uint) (int, error)

	// CountOpenOriginalByAccount counts non-duplicate open surveys. Used
	// by downgrade validation and force-downgrade.
	CountOpenOriginalByAccount(ctx context.Context, accountID uint) (int, error)

	// CloseOldestOpen closes the n oldest open original surveys of the
	// account (created_at asc, id asc tiebreak) and starts their retention
	// clock. Returns the closed surveys' IDs. Must participate in an
	// enclosing transaction via the context.
	CloseOldestOpen(ctx context.Context, accountID uint, n int) ([]uint, error)

	// FindRetentionCandidates returns closed surveys whose deletion or
	// hard-deletion processing may be due at now, including those under
	// legal hold so the sweep can count skips.
	FindRetentionCandidates(ctx context.Context, now time.Time) ([]*Survey, error)

	// HardDelete permanently removes the survey, its responses, and its
	// encryption key material. Irreversible.
	HardDelete(ctx context.Context, id uint) error
}

// CollaboratorRepository is the persistence port for survey collaborators.
type CollaboratorRepository interface {
	Add(ctx context.Context, c *Collaborator) error
	Remove(ctx context.Context, surveyID, accountID uint) error
	ListBySurvey(ctx context.Context, surveyID uint) ([]*Collaborator, error)
	CountBySurvey(ctx context.Context, surveyID uint) (int, error)
}

// RetentionExtensionRepository appends audit records. There is no update or
// delete: the log is immutable.
type RetentionExtensionRepository interface {
	Append(ctx context.Context, ext *RetentionExtension) error
	ListBySurvey(ctx context.Context, surveyID uint) ([]*RetentionExtension, error)
}
