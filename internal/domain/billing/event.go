// Package billing holds the normalized billing event the subscription
// lifecycle consumes, plus the dedupe and ledger records it maintains.
// Signature verification and provider payload parsing happen upstream;
// only the normalized form crosses into this package.
package billing

import (
	"fmt"
	"time"

	"quillform/internal/domain/account"
)

// ResourceType is what the provider event refers to.
type ResourceType string

const (
	ResourceSubscription ResourceType = "subscription"
	ResourcePayment      ResourceType = "payment"
)

// Action is what happened to the resource.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionCancelled Action = "cancelled"
	ActionConfirmed Action = "confirmed"
)

// Event is the normalized webhook payload.
type Event struct {
	EventID        string
	ResourceType   ResourceType
	Action         Action
	SubscriptionID string
	CustomerID     string
	MandateID      string
	Status         account.SubscriptionStatus
	PeriodEnd      *time.Time
	Tier           string
	AmountCents    int64
	Currency       string
}

// Validate checks the structural invariants of a normalized event.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event ID is required")
	}
	if e.SubscriptionID == "" {
		return fmt.Errorf("subscription ID is required")
	}
	switch e.ResourceType {
	case ResourceSubscription, ResourcePayment:
	default:
		return fmt.Errorf("unknown resource type: %q", e.ResourceType)
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionCancelled, ActionConfirmed:
	default:
		return fmt.Errorf("unknown action: %q", e.Action)
	}
	if e.Status != "" && !account.ValidStatuses[e.Status] {
		return fmt.Errorf("unknown subscription status: %q", e.Status)
	}
	return nil
}
