package notify

import (
	"context"
	"fmt"

	"github.com/ecopower/backend/internal/infrastructure/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers transactional email through SendGrid
type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridMailer creates a mailer from the notify configuration
func NewSendGridMailer(cfg config.NotifyConfig) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// SendEmail delivers one email
func (m *SendGridMailer) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error {
	if toEmail == "" {
		return ErrNoRecipientAddress
	}
	if htmlContent == "" {
		htmlContent = plainText
	}

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid status %d", ErrProviderRejected, resp.StatusCode)
	}
	return nil
}

// Ensure SendGridMailer implements the interface
var _ EmailSender = (*SendGridMailer)(nil)
