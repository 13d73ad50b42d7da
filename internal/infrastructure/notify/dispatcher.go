package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecopower/backend/internal/domain/audit"
	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/messaging"
	"go.uber.org/zap"
)

// CredentialChannel names the channel that ended up carrying a
// temporary password to a new resident
type CredentialChannel string

const (
	ChannelEmail    CredentialChannel = "email"
	ChannelWhatsapp CredentialChannel = "whatsapp"
	ChannelAudit    CredentialChannel = "audit" // Logged for manual handover
)

// Dispatcher fans notifications out to the delivery channels. Delivery
// is best effort: a channel failure is recorded, never propagated as a
// request failure.
type Dispatcher struct {
	push     PushSender
	email    EmailSender
	whatsapp WhatsappSender
	auditLog audit.LogRepository
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over the given channels
func NewDispatcher(push PushSender, email EmailSender, whatsapp WhatsappSender, auditLog audit.LogRepository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		push:     push,
		email:    email,
		whatsapp: whatsapp,
		auditLog: auditLog,
		logger:   logger.Named("dispatcher"),
	}
}

// Push attempts a push delivery to the user's device and reports what
// happened. A user without a device token is a skip, not a failure.
func (d *Dispatcher) Push(ctx context.Context, user *identity.User, title, body string, data map[string]string) messaging.DeliveryStatus {
	if user.DeviceToken == "" {
		return messaging.DeliverySkipped
	}

	if err := d.push.SendPush(ctx, user.DeviceToken, title, body, data); err != nil {
		if errors.Is(err, ErrNoDeviceToken) {
			return messaging.DeliverySkipped
		}
		d.logger.Warn("push delivery failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return messaging.DeliveryFailed
	}
	return messaging.DeliveryDelivered
}

// DeliverCredentials carries a temporary password to a freshly
// provisioned account. Email first, WhatsApp when email is missing or
// failed, and as a last resort an audit entry so the owner can hand the
// password over manually. The returned channel is the one that worked.
func (d *Dispatcher) DeliverCredentials(ctx context.Context, user *identity.User, tempPassword string) CredentialChannel {
	subject := "Your Ecopower account"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour account has been created. Sign in with this temporary password and choose a new one:\n\n%s\n",
		user.FullName(), tempPassword,
	)

	if user.Email != "" {
		err := d.email.SendEmail(ctx, user.Email, user.FullName(), subject, body, "")
		if err == nil {
			return ChannelEmail
		}
		d.logger.Warn("credential email failed, falling back",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	if user.Phone != "" {
		msg := fmt.Sprintf("Ecopower: your temporary password is %s. Change it at first login.", tempPassword)
		err := d.whatsapp.SendWhatsapp(ctx, user.Phone, msg)
		if err == nil {
			return ChannelWhatsapp
		}
		d.logger.Warn("credential whatsapp failed, falling back",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	entry := audit.NewLogEntry(&user.ID, audit.LevelWarning, "identity", "credential_delivery_fallback",
		"Temporary password could not be delivered on any channel",
		map[string]interface{}{
			"email": user.Email,
			"phone": user.Phone,
		},
	)
	if err := d.auditLog.Create(ctx, entry); err != nil {
		d.logger.Error("credential audit fallback failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}
	return ChannelAudit
}
