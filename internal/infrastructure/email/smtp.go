// Package email delivers notifications over SMTP.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"quillform/internal/application/notification"
	"quillform/internal/shared/config"
	"quillform/internal/shared/logger"
)

// subjects maps a notification template to its subject line.
var subjects = map[string]string{
	notification.TemplateSubscriptionExpired: "Your subscription has ended",
	notification.TemplateSubscriptionUnpaid:  "Your subscription payment failed",
	notification.TemplatePaymentConfirmed:    "Payment received",
	notification.TemplateRetentionWarning30d: "Survey data will be deleted in 30 days",
	notification.TemplateRetentionWarning7d:  "Survey data will be deleted in 7 days",
	notification.TemplateRetentionWarning1d:  "Survey data will be deleted tomorrow",
	notification.TemplateSurveySoftDeleted:   "Survey data has been deleted",
	notification.TemplateRetentionExtended:   "Survey retention period extended",
	notification.TemplateDeletionCancelled:   "Survey deletion cancelled",
}

// SMTPNotifier implements notification.Notifier over SMTP. Failures are
// swallowed after logging: delivery is best-effort and must never abort the
// state transition that triggered it.
type SMTPNotifier struct {
	cfg    config.EmailConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

// NewSMTPNotifier creates an SMTPNotifier.
func NewSMTPNotifier(cfg config.EmailConfig, log logger.Interface) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		logger: log,
	}
}

// Send delivers the templated notification. Returns whether delivery
// succeeded.
func (n *SMTPNotifier) Send(ctx context.Context, recipient, template string, data map[string]any) bool {
	subject, ok := subjects[template]
	if !ok {
		n.logger.Errorw("unknown notification template", "template", template)
		return false
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.cfg.FromAddress, n.cfg.FromName)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", renderBody(template, data))

	if err := n.dialer.DialAndSend(m); err != nil {
		n.logger.Errorw("failed to send notification",
			"recipient", recipient, "template", template, "error", err)
		return false
	}

	n.logger.Debugw("notification sent", "recipient", recipient, "template", template)
	return true
}

// renderBody produces a plain-text body. Keys render in an unspecified
// order, which is fine for a key/value digest.
func renderBody(template string, data map[string]any) string {
	body := subjects[template] + "\n\n"
	for k, v := range data {
		body += fmt.Sprintf("%s: %v\n", k, v)
	}
	return body
}
