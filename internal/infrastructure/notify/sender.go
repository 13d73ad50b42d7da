package notify

import (
	"context"
	"errors"
)

// Channel errors
var (
	// ErrNoDeviceToken means the recipient never registered for push
	ErrNoDeviceToken = errors.New("no device token registered")

	// ErrNoRecipientAddress means the chosen channel has no address for
	// the recipient (no email, no phone)
	ErrNoRecipientAddress = errors.New("no recipient address for channel")

	// ErrProviderRejected means the provider answered with a non-success
	// status
	ErrProviderRejected = errors.New("delivery provider rejected the request")
)

// PushSender delivers push notifications to a device
type PushSender interface {
	SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

// EmailSender delivers transactional email
type EmailSender interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error
}

// WhatsappSender delivers WhatsApp text messages
type WhatsappSender interface {
	SendWhatsapp(ctx context.Context, phone, message string) error
}
