package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"quillform/internal/domain/survey"
	"quillform/internal/infrastructure/persistence/models"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// CollaboratorRepositoryImpl implements the survey.CollaboratorRepository
// interface
type CollaboratorRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewCollaboratorRepository creates a new collaborator repository instance
func NewCollaboratorRepository(database *gorm.DB, logger logger.Interface) survey.CollaboratorRepository {
	return &CollaboratorRepositoryImpl{db: database, logger: logger}
}

// Add inserts the collaborator record.
func (r *CollaboratorRepositoryImpl) Add(ctx context.Context, c *survey.Collaborator) error {
	model := &models.CollaboratorModel{
		SurveyID:  c.SurveyID,
		AccountID: c.AccountID,
		Kind:      string(c.Kind),
		AddedBy:   c.AddedBy,
		CreatedAt: c.CreatedAt,
	}

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("account is already a collaborator on this survey")
		}
		r.logger.Errorw("failed to add collaborator",
			"survey_id", c.SurveyID, "account_id", c.AccountID, "error", err)
		return fmt.Errorf("failed to add collaborator: %w", err)
	}
	c.ID = model.ID
	return nil
}

// Remove deletes the collaborator record.
func (r *CollaboratorRepositoryImpl) Remove(ctx context.Context, surveyID, accountID uint) error {
	dbc := db.GetTxFromContext(ctx, r.db)
	result := dbc.Where("survey_id = ? AND account_id = ?", surveyID, accountID).
		Delete(&models.CollaboratorModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove collaborator: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("collaborator not found")
	}
	return nil
}

// ListBySurvey returns the survey's collaborators.
func (r *CollaboratorRepositoryImpl) ListBySurvey(ctx context.Context, surveyID uint) ([]*survey.Collaborator, error) {
	var ms []*models.CollaboratorModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Where("survey_id = ?", surveyID).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}

	collaborators := make([]*survey.Collaborator, 0, len(ms))
	for _, m := range ms {
		collaborators = append(collaborators, &survey.Collaborator{
			ID:        m.ID,
			SurveyID:  m.SurveyID,
			AccountID: m.AccountID,
			Kind:      survey.CollaboratorKind(m.Kind),
			AddedBy:   m.AddedBy,
			CreatedAt: m.CreatedAt,
		})
	}
	return collaborators, nil
}

// CountBySurvey counts the survey's collaborators.
func (r *CollaboratorRepositoryImpl) CountBySurvey(ctx context.Context, surveyID uint) (int, error) {
	var count int64
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Model(&models.CollaboratorModel{}).
		Where("survey_id = ?", surveyID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count collaborators: %w", err)
	}
	return int(count), nil
}
