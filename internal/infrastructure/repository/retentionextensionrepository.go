package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"quillform/internal/domain/survey"
	"quillform/internal/infrastructure/persistence/models"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

// RetentionExtensionRepositoryImpl implements the
// survey.RetentionExtensionRepository interface. Append-only: there is no
// update or delete path.
type RetentionExtensionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewRetentionExtensionRepository creates a new retention extension
// repository instance
func NewRetentionExtensionRepository(database *gorm.DB, logger logger.Interface) survey.RetentionExtensionRepository {
	return &RetentionExtensionRepositoryImpl{db: database, logger: logger}
}

// Append inserts the audit record.
func (r *RetentionExtensionRepositoryImpl) Append(ctx context.Context, ext *survey.RetentionExtension) error {
	model := &models.RetentionExtensionModel{
		SID:                  ext.SID,
		SurveyID:             ext.SurveyID,
		RequestedBy:          ext.RequestedBy,
		ApprovedBy:           ext.ApprovedBy,
		PreviousDeletionDate: ext.PreviousDeletionDate,
		NewDeletionDate:      ext.NewDeletionDate,
		MonthsAdded:          ext.MonthsAdded,
		Reason:               ext.Reason,
		ApprovedAt:           ext.ApprovedAt,
	}

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		r.logger.Errorw("failed to append retention extension",
			"survey_id", ext.SurveyID, "error", err)
		return fmt.Errorf("failed to append retention extension: %w", err)
	}
	ext.ID = model.ID
	return nil
}

// ListBySurvey returns the survey's extension history, oldest first.
func (r *RetentionExtensionRepositoryImpl) ListBySurvey(ctx context.Context, surveyID uint) ([]*survey.RetentionExtension, error) {
	var ms []*models.RetentionExtensionModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Where("survey_id = ?", surveyID).Order("approved_at ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list retention extensions: %w", err)
	}

	exts := make([]*survey.RetentionExtension, 0, len(ms))
	for _, m := range ms {
		exts = append(exts, &survey.RetentionExtension{
			ID:                   m.ID,
			SID:                  m.SID,
			SurveyID:             m.SurveyID,
			RequestedBy:          m.RequestedBy,
			ApprovedBy:           m.ApprovedBy,
			PreviousDeletionDate: m.PreviousDeletionDate,
			NewDeletionDate:      m.NewDeletionDate,
			MonthsAdded:          m.MonthsAdded,
			Reason:               m.Reason,
			ApprovedAt:           m.ApprovedAt,
		})
	}
	return exts, nil
}
