package mappers

import (
	"fmt"

	"quillform/internal/domain/survey"
	"quillform/internal/infrastructure/persistence/models"
)

// SurveyMapper handles the conversion between domain entities and
// persistence models.
type SurveyMapper interface {
	ToEntity(model *models.SurveyModel) (*survey.Survey, error)
	ToModel(entity *survey.Survey) *models.SurveyModel
	ToEntities(ms []*models.SurveyModel) ([]*survey.Survey, error)
}

type surveyMapper struct{}

// NewSurveyMapper creates a new survey mapper
func NewSurveyMapper() SurveyMapper {
	return &surveyMapper{}
}

func (m *surveyMapper) ToEntity(model *models.SurveyModel) (*survey.Survey, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := survey.Reconstruct(survey.ReconstructParams{
		ID:               model.ID,
		SID:              model.SID,
		AccountID:        model.AccountID,
		TeamID:           model.TeamID,
		Title:            model.Title,
		IsDuplicate:      model.IsDuplicate,
		PatientData:      model.PatientData,
		WebhookURL:       model.WebhookURL,
		EncryptionKeyID:  model.EncryptionKeyID,
		ClosedAt:         model.ClosedAt,
		RetentionMonths:  model.RetentionMonths,
		DeletionDate:     model.DeletionDate,
		DeletedAt:        model.DeletedAt,
		HardDeletionDate: model.HardDeletionDate,
		WarningStage:     survey.WarningStage(model.WarningStage),
		LegalHold:        model.LegalHold,
		LegalHoldSetAt:   model.LegalHoldSetAt,
		Version:          model.Version,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct survey entity: %w", err)
	}
	return entity, nil
}

func (m *surveyMapper) ToModel(entity *survey.Survey) *models.SurveyModel {
	if entity == nil {
		return nil
	}
	return &models.SurveyModel{
		ID:               entity.ID(),
		SID:              entity.SID(),
		AccountID:        entity.AccountID(),
		TeamID:           entity.TeamID(),
		Title:            entity.Title(),
		IsDuplicate:      entity.IsDuplicate(),
		PatientData:      entity.PatientData(),
		WebhookURL:       entity.WebhookURL(),
		EncryptionKeyID:  entity.EncryptionKeyID(),
		ClosedAt:         entity.ClosedAt(),
		RetentionMonths:  entity.RetentionMonths(),
		DeletionDate:     entity.DeletionDate(),
		DeletedAt:        entity.DeletedAt(),
		HardDeletionDate: entity.HardDeletionDate(),
		WarningStage:     int(entity.WarningStage()),
		LegalHold:        entity.LegalHold(),
		LegalHoldSetAt:   entity.LegalHoldSetAt(),
		Version:          entity.Version(),
		CreatedAt:        entity.CreatedAt(),
		UpdatedAt:        entity.UpdatedAt(),
	}
}

func (m *surveyMapper) ToEntities(ms []*models.SurveyModel) ([]*survey.Survey, error) {
	entities := make([]*survey.Survey, 0, len(ms))
	for _, model := range ms {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
