package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"quillform/internal/domain/organization"
	"quillform/internal/infrastructure/persistence/models"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// OrganizationRepositoryImpl implements the organization.Repository
// interface
type OrganizationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewOrganizationRepository creates a new organization repository instance
func NewOrganizationRepository(database *gorm.DB, logger logger.Interface) organization.Repository {
	return &OrganizationRepositoryImpl{db: database, logger: logger}
}

// Create persists a new organization.
func (r *OrganizationRepositoryImpl) Create(ctx context.Context, o *organization.Organization) error {
	model := &models.OrganizationModel{
		SID:       o.SID(),
		AccountID: o.AccountID(),
		ParentID:  o.ParentID(),
		Name:      o.Name(),
		Version:   o.Version(),
		CreatedAt: o.CreatedAt(),
		UpdatedAt: o.UpdatedAt(),
	}

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create organization", "account_id", o.AccountID(), "error", err)
		return fmt.Errorf("failed to create organization: %w", err)
	}
	if err := o.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set organization ID: %w", err)
	}
	return nil
}

// GetByID returns the organization or nil when it does not exist.
func (r *OrganizationRepositoryImpl) GetByID(ctx context.Context, id uint) (*organization.Organization, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetBySID returns the organization by its public short ID.
func (r *OrganizationRepositoryImpl) GetBySID(ctx context.Context, sid string) (*organization.Organization, error) {
	return r.getOne(ctx, "sid = ?", sid)
}

// GetByOwner returns the top-level organization owned by the account.
func (r *OrganizationRepositoryImpl) GetByOwner(ctx context.Context, accountID uint) (*organization.Organization, error) {
	var model models.OrganizationModel
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Where("account_id = ? AND parent_id IS NULL", accountID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query organization: %w", err)
	}
	return organization.Reconstruct(model.ID, model.SID, model.AccountID, model.ParentID,
		model.Name, model.Version, model.CreatedAt, model.UpdatedAt)
}

func (r *OrganizationRepositoryImpl) getOne(ctx context.Context, query string, arg any) (*organization.Organization, error) {
	var model models.OrganizationModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query organization: %w", err)
	}
	return organization.Reconstruct(model.ID, model.SID, model.AccountID, model.ParentID,
		model.Name, model.Version, model.CreatedAt, model.UpdatedAt)
}

// AddMember inserts a membership.
func (r *OrganizationRepositoryImpl) AddMember(ctx context.Context, m *organization.Member) error {
	model := &models.OrgMemberModel{
		OrgID:     m.OrgID,
		AccountID: m.AccountID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("account is already a member of this organization")
		}
		return fmt.Errorf("failed to add organization member: %w", err)
	}
	m.ID = model.ID
	return nil
}

// CountMembers counts the organization's memberships.
func (r *OrganizationRepositoryImpl) CountMembers(ctx context.Context, orgID uint) (int, error) {
	var count int64
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Model(&models.OrgMemberModel{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count organization members: %w", err)
	}
	return int(count), nil
}
