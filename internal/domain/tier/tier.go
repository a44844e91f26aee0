// Package tier defines the service tiers and the capability table that
// governs what each tier may do. Every permission decision in the
// application is driven from this table; there is deliberately no numeric
// "tier at least X" ordering helper, because the team size classes are not
// totally ordered against organization/enterprise on any single scale.
package tier

import "fmt"

// Tier identifies a service level.
type Tier string

const (
	Free         Tier = "free"
	Pro          Tier = "pro"
	TeamSmall    Tier = "team_small"
	TeamMedium   Tier = "team_medium"
	TeamLarge    Tier = "team_large"
	Organization Tier = "organization"
	Enterprise   Tier = "enterprise"
)

func (t Tier) String() string {
	return string(t)
}

// IsValid checks if the tier identifier is known.
func (t Tier) IsValid() bool {
	_, ok := catalog[t]
	return ok
}

// Parse validates a tier identifier strictly. Lifecycle operations
// (downgrade targets) must use Parse rather than relying on the
// catalog's free-tier fallback.
func Parse(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown tier: %q", s)
	}
	return t, nil
}

// All returns every known tier. The order is the display order on the
// pricing page, not a capability ordering.
func All() []Tier {
	return []Tier{Free, Pro, TeamSmall, TeamMedium, TeamLarge, Organization, Enterprise}
}
