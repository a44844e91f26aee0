// Package notification defines the outbound notification port. Delivery is
// fire-and-forget: a failed send is reported as false, logged by the
// implementation, and never aborts the state transition that triggered it.
package notification

import "context"

// Template identifiers for the emails the core sends.
const (
	TemplateSubscriptionExpired  = "subscription_expired"
	TemplateSubscriptionUnpaid   = "subscription_unpaid"
	TemplatePaymentConfirmed     = "payment_confirmed"
	TemplateRetentionWarning30d  = "retention_warning_30d"
	TemplateRetentionWarning7d   = "retention_warning_7d"
	TemplateRetentionWarning1d   = "retention_warning_1d"
	TemplateSurveySoftDeleted    = "survey_soft_deleted"
	TemplateRetentionExtended    = "retention_extended"
	TemplateDeletionCancelled    = "deletion_cancelled"
)

// Notifier sends a templated notification. The boolean result reports
// delivery success; implementations must not panic or propagate transport
// errors to callers.
type Notifier interface {
	Send(ctx context.Context, recipient, template string, data map[string]any) bool
}
