package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"quillform/internal/domain/survey"
	"quillform/internal/infrastructure/persistence/mappers"
	"quillform/internal/infrastructure/persistence/models"
	"quillform/internal/shared/biztime"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// SurveyRepositoryImpl implements the survey.Repository interface
type SurveyRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SurveyMapper
	logger logger.Interface
}

// NewSurveyRepository creates a new survey repository instance
func NewSurveyRepository(database *gorm.DB, logger logger.Interface) survey.Repository {
	return &SurveyRepositoryImpl{
		db:     database,
		mapper: mappers.NewSurveyMapper(),
		logger: logger,
	}
}

// Create persists a new survey.
func (r *SurveyRepositoryImpl) Create(ctx context.Context, s *survey.Survey) error {
	model := r.mapper.ToModel(s)
	model.ID = 0

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create survey", "account_id", s.AccountID(), "error", err)
		return fmt.Errorf("failed to create survey: %w", err)
	}

	if err := s.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set survey ID: %w", err)
	}
	return nil
}

// Update persists the full survey state.
func (r *SurveyRepositoryImpl) Update(ctx context.Context, s *survey.Survey) error {
	model := r.mapper.ToModel(s)
	dbc := db.GetTxFromContext(ctx, r.db)

	result := dbc.Model(&models.SurveyModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"team_id":            model.TeamID,
			"title":              model.Title,
			"is_duplicate":       model.IsDuplicate,
			"patient_data":       model.PatientData,
			"webhook_url":        model.WebhookURL,
			"encryption_key_id":  model.EncryptionKeyID,
			"closed_at":          model.ClosedAt,
			"retention_months":   model.RetentionMonths,
			"deletion_date":      model.DeletionDate,
			"deleted_at":         model.DeletedAt,
			"hard_deletion_date": model.HardDeletionDate,
			"warning_stage":      model.WarningStage,
			"legal_hold":         model.LegalHold,
			"legal_hold_set_at":  model.LegalHoldSetAt,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update survey", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update survey: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("survey not found")
	}
	return nil
}

// GetByID returns the survey or nil when it does not exist.
func (r *SurveyRepositoryImpl) GetByID(ctx context.Context, id uint) (*survey.Survey, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetBySID returns the survey by its public short ID.
func (r *SurveyRepositoryImpl) GetBySID(ctx context.Context, sid string) (*survey.Survey, error) {
	return r.getOne(ctx, "sid = ?", sid)
}

func (r *SurveyRepositoryImpl) getOne(ctx context.Context, query string, arg any) (*survey.Survey, error) {
	var model models.SurveyModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query survey: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// ListByAccount returns all surveys owned by the account, newest first.
func (r *SurveyRepositoryImpl) ListByAccount(ctx context.Context, accountID uint) ([]*survey.Survey, error) {
	var ms []*models.SurveyModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	return r.mapper.ToEntities(ms)
}

// CountOriginalByAccount counts non-duplicate surveys, open or closed.
func (r *SurveyRepositoryImpl) CountOriginalByAccount(ctx context.Context, accountID uint) (int, error) {
	var count int64
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Model(&models.SurveyModel{}).
		Where("account_id = ? AND is_duplicate = ? AND deleted_at IS NULL", accountID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count surveys: %w", err)
	}
	return int(count), nil
}

// CountOpenOriginalByAccount counts non-duplicate open surveys.
func (r *SurveyRepositoryImpl) CountOpenOriginalByAccount(ctx context.Context, accountID uint) (int, error) {
	var count int64
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Model(&models.SurveyModel{}).
		Where("account_id = ? AND is_duplicate = ? AND closed_at IS NULL AND deleted_at IS NULL", accountID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count open surveys: %w", err)
	}
	return int(count), nil
}

// CloseOldestOpen closes the n oldest open original surveys through the
// domain entity so closure starts each retention clock the normal way.
func (r *SurveyRepositoryImpl) CloseOldestOpen(ctx context.Context, accountID uint, n int) ([]uint, error) {
	if n <= 0 {
		return nil, nil
	}

	var ms []*models.SurveyModel
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Where("account_id = ? AND is_duplicate = ? AND closed_at IS NULL AND deleted_at IS NULL", accountID, false).
		Order("created_at ASC, id ASC").
		Limit(n).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query oldest open surveys: %w", err)
	}

	closed := make([]uint, 0, len(ms))
	for _, model := range ms {
		entity, err := r.mapper.ToEntity(model)
		if err != nil {
			return nil, err
		}
		if err := entity.Close(0); err != nil {
			return nil, fmt.Errorf("failed to close survey %d: %w", entity.ID(), err)
		}
		if err := r.Update(ctx, entity); err != nil {
			return nil, err
		}
		closed = append(closed, entity.ID())
	}

	r.logger.Infow("closed oldest open surveys",
		"account_id", accountID, "requested", n, "closed", len(closed))
	return closed, nil
}

// FindRetentionCandidates returns closed surveys that may need retention
// processing at now: any whose deletion date falls within the widest warning
// horizon, plus soft-deleted ones whose grace window has ended. Legal-hold
// rows are included so the sweep can count skips.
func (r *SurveyRepositoryImpl) FindRetentionCandidates(ctx context.Context, now time.Time) ([]*survey.Survey, error) {
	// 30 days ahead plus the warning tolerance covers the earliest stage.
	horizon := now.Add(30*biztime.Day + survey.WarningWindow)

	var ms []*models.SurveyModel
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Where("closed_at IS NOT NULL").
		Where(
			dbc.Session(&gorm.Session{NewDB: true}).
				Where("deleted_at IS NULL AND deletion_date IS NOT NULL AND deletion_date <= ?", horizon).
				Or("deleted_at IS NOT NULL AND hard_deletion_date IS NOT NULL AND hard_deletion_date <= ?", now),
		).
		Order("deletion_date ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query retention candidates: %w", err)
	}
	return r.mapper.ToEntities(ms)
}

// HardDelete permanently removes the survey and its collaborator rows.
// Response data and key material live under the same survey id and go with
// it. Irreversible.
func (r *SurveyRepositoryImpl) HardDelete(ctx context.Context, id uint) error {
	dbc := db.GetTxFromContext(ctx, r.db)

	if err := dbc.Where("survey_id = ?", id).Delete(&models.CollaboratorModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete survey collaborators: %w", err)
	}
	result := dbc.Delete(&models.SurveyModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to hard-delete survey", "id", id, "error", result.Error)
		return fmt.Errorf("failed to hard-delete survey: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("survey not found")
	}

	r.logger.Infow("survey hard-deleted", "id", id)
	return nil
}
