package account

import (
	"context"
	"time"
)

// Repository is the persistence port for accounts.
type Repository interface {
	Create(ctx context.Context, acct *Account) error
	Update(ctx context.Context, acct *Account) error
	GetByID(ctx context.Context, id uint) (*Account, error)
	GetBySID(ctx context.Context, sid string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Account, error)
	GetByCustomerID(ctx context.Context, customerID string) (*Account, error)

	// FindExpired returns accounts whose current period end is before now,
	// whose status is active or canceled, and whose tier is not free.
	FindExpired(ctx context.Context, now time.Time) ([]*Account, error)

	// FindPastDueSince returns accounts in past_due whose last update is
	// older than cutoff and whose period end is not after now.
	FindPastDueSince(ctx context.Context, cutoff, now time.Time) ([]*Account, error)
}
