package platform

import (
	"strings"
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
)

// SettingsKey identifies the singleton settings row
const SettingsKey = "contact"

// AppSettings is the singleton platform configuration exposed to
// clients: support contact points, version, maintenance banner.
type AppSettings struct {
	shared.BaseEntity
	Key                string
	SupportEmail       string
	SupportPhone       string
	SupportWhatsapp    string
	AppVersion         string
	MaintenanceMode    bool
	MaintenanceMessage string
}

// DefaultSettings returns the settings used before an admin configures
// anything
func DefaultSettings() *AppSettings {
	return &AppSettings{
		BaseEntity:   shared.NewBaseEntity(),
		Key:          SettingsKey,
		SupportEmail: "support@ecopower.app",
		AppVersion:   "1.0.0",
	}
}

// Update replaces the editable fields
func (s *AppSettings) Update(email, phone, whatsapp, version string, maintenance bool, maintenanceMsg string) error {
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Support email is invalid")
	}
	s.SupportEmail = strings.TrimSpace(email)
	s.SupportPhone = strings.TrimSpace(phone)
	s.SupportWhatsapp = strings.TrimSpace(whatsapp)
	if version != "" {
		s.AppVersion = strings.TrimSpace(version)
	}
	s.MaintenanceMode = maintenance
	s.MaintenanceMessage = strings.TrimSpace(maintenanceMsg)
	s.UpdatedAt = time.Now()
	return nil
}
