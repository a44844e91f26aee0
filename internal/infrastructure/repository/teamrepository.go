package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"quillform/internal/domain/team"
	"quillform/internal/infrastructure/persistence/models"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// TeamRepositoryImpl implements the team.Repository interface
type TeamRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewTeamRepository creates a new team repository instance
func NewTeamRepository(database *gorm.DB, logger logger.Interface) team.Repository {
	return &TeamRepositoryImpl{db: database, logger: logger}
}

// Create persists a new team.
func (r *TeamRepositoryImpl) Create(ctx context.Context, t *team.Team) error {
	model := &models.TeamModel{
		SID:       t.SID(),
		AccountID: t.AccountID(),
		Name:      t.Name(),
		Version:   t.Version(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create team", "account_id", t.AccountID(), "error", err)
		return fmt.Errorf("failed to create team: %w", err)
	}
	if err := t.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set team ID: %w", err)
	}
	return nil
}

// GetByID returns the team or nil when it does not exist.
func (r *TeamRepositoryImpl) GetByID(ctx context.Context, id uint) (*team.Team, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetBySID returns the team by its public short ID.
func (r *TeamRepositoryImpl) GetBySID(ctx context.Context, sid string) (*team.Team, error) {
	return r.getOne(ctx, "sid = ?", sid)
}

func (r *TeamRepositoryImpl) getOne(ctx context.Context, query string, arg any) (*team.Team, error) {
	var model models.TeamModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query team: %w", err)
	}
	return team.Reconstruct(model.ID, model.SID, model.AccountID, model.Name,
		model.Version, model.CreatedAt, model.UpdatedAt)
}

// ListByAccount returns the teams owned by the account.
func (r *TeamRepositoryImpl) ListByAccount(ctx context.Context, accountID uint) ([]*team.Team, error) {
	var ms []*models.TeamModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Where("account_id = ?", accountID).Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	teams := make([]*team.Team, 0, len(ms))
	for _, m := range ms {
		t, err := team.Reconstruct(m.ID, m.SID, m.AccountID, m.Name,
			m.Version, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, nil
}

// AddMember inserts a membership.
func (r *TeamRepositoryImpl) AddMember(ctx context.Context, m *team.Member) error {
	model := &models.TeamMemberModel{
		TeamID:    m.TeamID,
		AccountID: m.AccountID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("account is already a member of this team")
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	m.ID = model.ID
	return nil
}

// RemoveMember deletes a membership.
func (r *TeamRepositoryImpl) RemoveMember(ctx context.Context, teamID, accountID uint) error {
	dbc := db.GetTxFromContext(ctx, r.db)
	result := dbc.Where("team_id = ? AND account_id = ?", teamID, accountID).
		Delete(&models.TeamMemberModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove team member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("team member not found")
	}
	return nil
}

// CountMembers counts the team's memberships.
func (r *TeamRepositoryImpl) CountMembers(ctx context.Context, teamID uint) (int, error) {
	var count int64
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Model(&models.TeamMemberModel{}).
		Where("team_id = ?", teamID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count team members: %w", err)
	}
	return int(count), nil
}

// CountSurveys counts the surveys assigned to the team.
func (r *TeamRepositoryImpl) CountSurveys(ctx context.Context, teamID uint) (int, error) {
	var count int64
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Model(&models.SurveyModel{}).
		Where("team_id = ? AND deleted_at IS NULL", teamID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count team surveys: %w", err)
	}
	return int(count), nil
}
