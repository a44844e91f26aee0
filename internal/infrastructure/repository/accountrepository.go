// Package repository implements the domain persistence ports on GORM. Every
// method resolves its handle through the transaction context, so calls made
// inside RunInTransaction share the enclosing transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"quillform/internal/domain/account"
	"quillform/internal/infrastructure/persistence/mappers"
	"quillform/internal/infrastructure/persistence/models"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

// AccountRepositoryImpl implements the account.Repository interface
type AccountRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.AccountMapper
	logger logger.Interface
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(database *gorm.DB, logger logger.Interface) account.Repository {
	return &AccountRepositoryImpl{
		db:     database,
		mapper: mappers.NewAccountMapper(),
		logger: logger,
	}
}

// Create persists the account and its profile in one insert graph.
func (r *AccountRepositoryImpl) Create(ctx context.Context, acct *account.Account) error {
	model := r.mapper.ToModel(acct)
	model.ID = 0

	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("an account with this email already exists")
		}
		r.logger.Errorw("failed to create account", "email", acct.Email(), "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	if err := acct.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set account ID: %w", err)
	}
	return nil
}

// Update persists the account fields and the profile separately; GORM's
// association save would insert a second profile row.
func (r *AccountRepositoryImpl) Update(ctx context.Context, acct *account.Account) error {
	model := r.mapper.ToModel(acct)
	dbc := db.GetTxFromContext(ctx, r.db)

	result := dbc.Model(&models.AccountModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"email":            model.Email,
			"password_hash":    model.PasswordHash,
			"tier":             model.Tier,
			"status":           model.Status,
			"customer_id":      model.CustomerID,
			"subscription_id":  model.SubscriptionID,
			"mandate_id":       model.MandateID,
			"period_end":       model.PeriodEnd,
			"last_tier_change": model.LastTierChange,
			"custom_branding":  model.CustomBranding,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update account", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("account not found")
	}

	if model.Profile != nil {
		if err := dbc.Model(&models.ProfileModel{}).
			Where("account_id = ?", model.ID).
			Updates(map[string]any{
				"display_name": model.Profile.DisplayName,
				"company":      model.Profile.Company,
				"locale":       model.Profile.Locale,
			}).Error; err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return nil
}

// GetByID returns the account or nil when it does not exist.
func (r *AccountRepositoryImpl) GetByID(ctx context.Context, id uint) (*account.Account, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetBySID returns the account by its public short ID.
func (r *AccountRepositoryImpl) GetBySID(ctx context.Context, sid string) (*account.Account, error) {
	return r.getOne(ctx, "sid = ?", sid)
}

// GetByEmail returns the account by email.
func (r *AccountRepositoryImpl) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetBySubscriptionID returns the account holding the provider subscription.
func (r *AccountRepositoryImpl) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*account.Account, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	return r.getOne(ctx, "subscription_id = ?", subscriptionID)
}

// GetByCustomerID returns the account for the provider customer.
func (r *AccountRepositoryImpl) GetByCustomerID(ctx context.Context, customerID string) (*account.Account, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.getOne(ctx, "customer_id = ?", customerID)
}

func (r *AccountRepositoryImpl) getOne(ctx context.Context, query string, arg any) (*account.Account, error) {
	var model models.AccountModel
	dbc := db.GetTxFromContext(ctx, r.db)
	if err := dbc.Preload("Profile").Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// FindExpired returns paid accounts whose billing period ended before now.
func (r *AccountRepositoryImpl) FindExpired(ctx context.Context, now time.Time) ([]*account.Account, error) {
	var ms []*models.AccountModel
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Preload("Profile").
		Where("status IN ?", []string{string(account.StatusActive), string(account.StatusCanceled)}).
		Where("tier <> ?", "free").
		Where("period_end IS NOT NULL AND period_end < ?", now).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query expired accounts: %w", err)
	}
	return r.mapper.ToEntities(ms)
}

// FindPastDueSince returns past_due accounts whose last update is older than
// cutoff and whose period end is not in the future.
func (r *AccountRepositoryImpl) FindPastDueSince(ctx context.Context, cutoff, now time.Time) ([]*account.Account, error) {
	var ms []*models.AccountModel
	dbc := db.GetTxFromContext(ctx, r.db)
	err := dbc.Preload("Profile").
		Where("status = ?", string(account.StatusPastDue)).
		Where("tier <> ?", "free").
		Where("updated_at <= ?", cutoff).
		Where("period_end IS NULL OR period_end <= ?", now).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query past-due accounts: %w", err)
	}
	return r.mapper.ToEntities(ms)
}
