package notify

import (
	"context"

	"go.uber.org/zap"
)

// Simulator logs deliveries instead of calling any provider. Used in
// development and tests via notify.simulate.
type Simulator struct {
	logger *zap.Logger
}

// NewSimulator creates a simulator backed by the given logger
func NewSimulator(logger *zap.Logger) *Simulator {
	return &Simulator{logger: logger.Named("notify-simulator")}
}

// SendPush logs the push instead of delivering it
func (s *Simulator) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	if deviceToken == "" {
		return ErrNoDeviceToken
	}
	s.logger.Info("simulated push",
		zap.String("device_token", deviceToken),
		zap.String("title", title),
		zap.String("body", body),
	)
	return nil
}

// SendEmail logs the email instead of delivering it
func (s *Simulator) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error {
	if toEmail == "" {
		return ErrNoRecipientAddress
	}
	s.logger.Info("simulated email",
		zap.String("to", toEmail),
		zap.String("subject", subject),
	)
	return nil
}

// SendWhatsapp logs the message instead of delivering it
func (s *Simulator) SendWhatsapp(ctx context.Context, phone, message string) error {
	if phone == "" {
		return ErrNoRecipientAddress
	}
	s.logger.Info("simulated whatsapp", zap.String("to", phone))
	return nil
}

var (
	_ PushSender     = (*Simulator)(nil)
	_ EmailSender    = (*Simulator)(nil)
	_ WhatsappSender = (*Simulator)(nil)
)
