package account

import (
	"fmt"
	"time"

	"quillform/internal/domain/tier"
	"quillform/internal/shared/id"
)

// Account is the aggregate root for a billable account. It owns the
// subscription state that the permission gate and the expiry sweep act on.
type Account struct {
	id             uint
	sid            string
	email          string
	passwordHash   string
	profile        *Profile
	tier           tier.Tier
	status         SubscriptionStatus
	customerID     string
	subscriptionID string
	mandateID      string
	periodEnd      *time.Time
	lastTierChange *time.Time
	customBranding bool
	version        int
	createdAt      time.Time
	updatedAt      time.Time
}

// Profile holds the account's display data. Every account has exactly one
// profile, created in the same transaction as the account itself; a missing
// profile is malformed data and the permission gate denies on it.
type Profile struct {
	DisplayName string
	Company     string
	Locale      string
}

// NewAccount creates a free-tier account with no subscription.
func NewAccount(email, passwordHash, displayName string) (*Account, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}

	now := time.Now().UTC()
	return &Account{
		sid:          id.MustGenerateWithPrefix(id.PrefixAccount, id.DefaultLength),
		email:        email,
		passwordHash: passwordHash,
		profile:      &Profile{DisplayName: displayName},
		tier:         tier.Free,
		status:       StatusNone,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructParams carries persistence fields for rebuilding an Account.
type ReconstructParams struct {
	ID             uint
	SID            string
	Email          string
	PasswordHash   string
	Profile        *Profile
	Tier           tier.Tier
	Status         SubscriptionStatus
	CustomerID     string
	SubscriptionID string
	MandateID      string
	PeriodEnd      *time.Time
	LastTierChange *time.Time
	CustomBranding bool
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reconstruct rebuilds an account from persistence.
func Reconstruct(p ReconstructParams) (*Account, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("account ID cannot be zero")
	}
	if !ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}
	if !p.Tier.IsValid() {
		return nil, fmt.Errorf("invalid tier: %s", p.Tier)
	}

	return &Account{
		id:             p.ID,
		sid:            p.SID,
		email:          p.Email,
		passwordHash:   p.PasswordHash,
		profile:        p.Profile,
		tier:           p.Tier,
		status:         p.Status,
		customerID:     p.CustomerID,
		subscriptionID: p.SubscriptionID,
		mandateID:      p.MandateID,
		periodEnd:      p.PeriodEnd,
		lastTierChange: p.LastTierChange,
		customBranding: p.CustomBranding,
		version:        p.Version,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}, nil
}

func (a *Account) ID() uint                   { return a.id }
func (a *Account) SID() string                { return a.sid }
func (a *Account) Email() string              { return a.email }
func (a *Account) PasswordHash() string       { return a.passwordHash }
func (a *Account) Profile() *Profile          { return a.profile }
func (a *Account) Tier() tier.Tier            { return a.tier }
func (a *Account) Status() SubscriptionStatus { return a.status }
func (a *Account) CustomerID() string         { return a.customerID }
func (a *Account) SubscriptionID() string     { return a.subscriptionID }
func (a *Account) MandateID() string          { return a.mandateID }
func (a *Account) PeriodEnd() *time.Time      { return a.periodEnd }
func (a *Account) LastTierChange() *time.Time { return a.lastTierChange }
func (a *Account) CustomBranding() bool       { return a.customBranding }
func (a *Account) Version() int               { return a.version }
func (a *Account) CreatedAt() time.Time       { return a.createdAt }
func (a *Account) UpdatedAt() time.Time       { return a.updatedAt }

// SetID sets the account ID (only for persistence layer use)
func (a *Account) SetID(accountID uint) error {
	if a.id != 0 {
		return fmt.Errorf("account ID is already set")
	}
	if accountID == 0 {
		return fmt.Errorf("account ID cannot be zero")
	}
	a.id = accountID
	return nil
}

func (a *Account) touch() {
	a.updatedAt = time.Now().UTC()
	a.version++
}

// ChangeTier sets the tier and records the change timestamp. Tier validity
// must already be checked by the caller (downgrade targets are validated
// strictly, never coerced).
func (a *Account) ChangeTier(target tier.Tier) error {
	if !target.IsValid() {
		return fmt.Errorf("unknown tier: %q", target)
	}
	now := time.Now().UTC()
	a.tier = target
	a.lastTierChange = &now
	a.touch()
	return nil
}

// ApplyStatus applies a provider-driven status transition. Applying the
// current status is a no-op so that webhook replays stay idempotent.
func (a *Account) ApplyStatus(target SubscriptionStatus) error {
	if !ValidStatuses[target] {
		return fmt.Errorf("invalid subscription status: %s", target)
	}
	if a.status == target {
		return nil
	}
	if !a.status.CanTransitionTo(target) {
		return fmt.Errorf("invalid status transition from %s to %s", a.status, target)
	}
	a.status = target
	a.touch()
	return nil
}

// AttachSubscription records the provider identifiers on first subscribe or
// resubscribe.
func (a *Account) AttachSubscription(customerID, subscriptionID, mandateID string) {
	a.customerID = customerID
	a.subscriptionID = subscriptionID
	a.mandateID = mandateID
	a.touch()
}

// SetPeriodEnd updates the current billing period end.
func (a *Account) SetPeriodEnd(end *time.Time) {
	a.periodEnd = end
	a.touch()
}

// ClearSubscription drops the provider subscription reference and period end
// after the subscription has lapsed. Customer and mandate ids are kept for
// reconciliation.
func (a *Account) ClearSubscription() {
	a.subscriptionID = ""
	a.periodEnd = nil
	a.touch()
}

// SetCustomBranding toggles the branding entitlement flag.
func (a *Account) SetCustomBranding(enabled bool) {
	if a.customBranding == enabled {
		return
	}
	a.customBranding = enabled
	a.touch()
}

// UpdateProfile replaces the profile data.
func (a *Account) UpdateProfile(p Profile) {
	a.profile = &p
	a.touch()
}

// Validate performs domain-level validation.
func (a *Account) Validate() error {
	if a.email == "" {
		return fmt.Errorf("email is required")
	}
	if !ValidStatuses[a.status] {
		return fmt.Errorf("invalid status: %s", a.status)
	}
	if !a.tier.IsValid() {
		return fmt.Errorf("invalid tier: %s", a.tier)
	}
	// status=none means the account never subscribed; it cannot hold a
	// paid tier.
	if a.status == StatusNone && a.tier != tier.Free {
		return fmt.Errorf("account without subscription cannot hold tier %s", a.tier)
	}
	return nil
}
