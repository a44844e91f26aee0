package account

// SubscriptionStatus mirrors the payment provider's subscription states,
// plus "none" for accounts that have never subscribed.
type SubscriptionStatus string

const (
	StatusNone              SubscriptionStatus = "none"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusUnpaid            SubscriptionStatus = "unpaid"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusNone:              true,
	StatusTrialing:          true,
	StatusActive:            true,
	StatusPastDue:           true,
	StatusCanceled:          true,
	StatusUnpaid:            true,
	StatusIncomplete:        true,
	StatusIncompleteExpired: true,
}

// IsTerminal reports whether the status ends the paid lifecycle. Terminal
// statuses force the account back to the free tier at or shortly after the
// transition.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCanceled || s == StatusUnpaid || s == StatusIncompleteExpired
}

// CanTransitionTo reports whether a provider-driven transition to target is
// legal. Same-status transitions are handled by the caller as no-ops.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusNone:              {StatusTrialing, StatusActive, StatusIncomplete},
		StatusTrialing:          {StatusActive, StatusPastDue, StatusCanceled},
		StatusActive:            {StatusPastDue, StatusCanceled, StatusUnpaid},
		StatusPastDue:           {StatusActive, StatusCanceled, StatusUnpaid},
		StatusIncomplete:        {StatusActive, StatusIncompleteExpired},
		StatusIncompleteExpired: {StatusActive, StatusTrialing},
		// Canceled accounts may resubscribe.
		StatusCanceled: {StatusActive, StatusTrialing, StatusIncomplete},
		StatusUnpaid:   {StatusActive, StatusIncomplete},
	}

	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
