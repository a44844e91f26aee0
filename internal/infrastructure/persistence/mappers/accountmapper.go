// Package mappers converts between domain entities and persistence models.
package mappers

import (
	"fmt"

	"quillform/internal/domain/account"
	"quillform/internal/domain/tier"
	"quillform/internal/infrastructure/persistence/models"
)

// AccountMapper handles the conversion between domain entities and
// persistence models.
type AccountMapper interface {
	ToEntity(model *models.AccountModel) (*account.Account, error)
	ToModel(entity *account.Account) *models.AccountModel
	ToEntities(ms []*models.AccountModel) ([]*account.Account, error)
}

type accountMapper struct{}

// NewAccountMapper creates a new account mapper
func NewAccountMapper() AccountMapper {
	return &accountMapper{}
}

func (m *accountMapper) ToEntity(model *models.AccountModel) (*account.Account, error) {
	if model == nil {
		return nil, nil
	}

	var profile *account.Profile
	if model.Profile != nil {
		profile = &account.Profile{
			DisplayName: model.Profile.DisplayName,
			Company:     model.Profile.Company,
			Locale:      model.Profile.Locale,
		}
	}

	entity, err := account.Reconstruct(account.ReconstructParams{
		ID:             model.ID,
		SID:            model.SID,
		Email:          model.Email,
		PasswordHash:   model.PasswordHash,
		Profile:        profile,
		Tier:           tier.Tier(model.Tier),
		Status:         account.SubscriptionStatus(model.Status),
		CustomerID:     model.CustomerID,
		SubscriptionID: model.SubscriptionID,
		MandateID:      model.MandateID,
		PeriodEnd:      model.PeriodEnd,
		LastTierChange: model.LastTierChange,
		CustomBranding: model.CustomBranding,
		Version:        model.Version,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct account entity: %w", err)
	}
	return entity, nil
}

func (m *accountMapper) ToModel(entity *account.Account) *models.AccountModel {
	if entity == nil {
		return nil
	}

	model := &models.AccountModel{
		ID:             entity.ID(),
		SID:            entity.SID(),
		Email:          entity.Email(),
		PasswordHash:   entity.PasswordHash(),
		Tier:           string(entity.Tier()),
		Status:         string(entity.Status()),
		CustomerID:     entity.CustomerID(),
		SubscriptionID: entity.SubscriptionID(),
		MandateID:      entity.MandateID(),
		PeriodEnd:      entity.PeriodEnd(),
		LastTierChange: entity.LastTierChange(),
		CustomBranding: entity.CustomBranding(),
		Version:        entity.Version(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}
	if p := entity.Profile(); p != nil {
		model.Profile = &models.ProfileModel{
			AccountID:   entity.ID(),
			DisplayName: p.DisplayName,
			Company:     p.Company,
			Locale:      p.Locale,
		}
	}
	return model
}

func (m *accountMapper) ToEntities(ms []*models.AccountModel) ([]*account.Account, error) {
	entities := make([]*account.Account, 0, len(ms))
	for _, model := range ms {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
