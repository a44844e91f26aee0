// Package entitlement resolves which tier governs an account and gates
// every tier-limited operation against the capability table.
package entitlement

import (
	"quillform/internal/domain/account"
	"quillform/internal/domain/tier"
)

// Resolver returns the tier that actually governs an account. Self-hosted
// deployments elevate every account to the top tier; the flag is injected
// from configuration at construction so no caller branches on it directly.
type Resolver struct {
	selfHosted bool
}

// NewResolver creates a Resolver. selfHosted comes from server config.
func NewResolver(selfHosted bool) *Resolver {
	return &Resolver{selfHosted: selfHosted}
}

// EffectiveTier returns the governing tier for the account.
func (r *Resolver) EffectiveTier(acct *account.Account) tier.Tier {
	if r.selfHosted {
		return tier.Enterprise
	}
	if acct == nil {
		return tier.Free
	}
	return acct.Tier()
}

// EffectiveLimits is a convenience for the common lookup pair.
func (r *Resolver) EffectiveLimits(acct *account.Account) tier.Limits {
	return tier.LimitsFor(r.EffectiveTier(acct))
}
