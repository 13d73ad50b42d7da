package platform

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecopower/backend/internal/domain/audit"
	"github.com/ecopower/backend/internal/domain/identity"
	domain "github.com/ecopower/backend/internal/domain/platform"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/notify"
)

// SettingsService exposes the public app settings and the contact form
type SettingsService struct {
	settings   domain.SettingsRepository
	authorizer identity.Authorizer
	email      notify.EmailSender
	auditLog   audit.LogRepository
	logger     *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(
	settings domain.SettingsRepository,
	authorizer identity.Authorizer,
	email notify.EmailSender,
	auditLog audit.LogRepository,
	logger *zap.Logger,
) *SettingsService {
	return &SettingsService{
		settings:   settings,
		authorizer: authorizer,
		email:      email,
		auditLog:   auditLog,
		logger:     logger,
	}
}

// Get returns the platform settings. Public, no actor required.
func (s *SettingsService) Get(ctx context.Context) (*SettingsInfo, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	info := NewSettingsInfo(settings)
	return &info, nil
}

// Update replaces the platform settings. Admin only.
func (s *SettingsService) Update(ctx context.Context, input UpdateSettingsInput) (*SettingsInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if !caps.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.Update(input.SupportEmail, input.SupportPhone, input.SupportWhatsapp,
		input.AppVersion, input.MaintenanceMode, input.MaintenanceMessage); err != nil {
		return nil, err
	}
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info("settings updated", zap.String("actor_id", input.ActorID.String()))
	info := NewSettingsInfo(settings)
	return &info, nil
}

// SubmitContact forwards a contact form submission to the support
// mailbox and records it in the audit trail. Public endpoint.
func (s *SettingsService) SubmitContact(ctx context.Context, input ContactInput) error {
	request, err := domain.NewContactRequest(input.Name, input.Email, input.Phone,
		input.Subject, input.Message)
	if err != nil {
		return err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}

	subject := "Contact form: " + request.Subject
	if request.Subject == "" {
		subject = "Contact form submission"
	}
	body := fmt.Sprintf("From: %s <%s>\nPhone: %s\n\n%s",
		request.Name, request.Email, request.Phone, request.Message)

	if err := s.email.SendEmail(ctx, settings.SupportEmail, "Support", subject, body, ""); err != nil {
		s.logger.Error("contact email failed", zap.Error(err))
		return shared.NewDomainError("DELIVERY_FAILED", "Could not forward the contact request")
	}

	entry := audit.NewLogEntry(nil, audit.LevelInfo, "platform", "contact_submitted",
		"Contact form forwarded to support",
		map[string]interface{}{"email": request.Email, "subject": request.Subject})
	if err := s.auditLog.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed", zap.Error(err))
	}
	return nil
}
