package platform

import (
	"github.com/google/uuid"

	domain "github.com/ecopower/backend/internal/domain/platform"
)

// UpdateSettingsInput contains the editable platform settings
type UpdateSettingsInput struct {
	ActorID            uuid.UUID
	SupportEmail       string
	SupportPhone       string
	SupportWhatsapp    string
	AppVersion         string
	MaintenanceMode    bool
	MaintenanceMessage string
}

// SettingsInfo is the settings view returned to clients
type SettingsInfo struct {
	SupportEmail       string
	SupportPhone       string
	SupportWhatsapp    string
	AppVersion         string
	MaintenanceMode    bool
	MaintenanceMessage string
}

// NewSettingsInfo maps the settings row to its client view
func NewSettingsInfo(s *domain.AppSettings) SettingsInfo {
	return SettingsInfo{
		SupportEmail:       s.SupportEmail,
		SupportPhone:       s.SupportPhone,
		SupportWhatsapp:    s.SupportWhatsapp,
		AppVersion:         s.AppVersion,
		MaintenanceMode:    s.MaintenanceMode,
		MaintenanceMessage: s.MaintenanceMessage,
	}
}

// ContactInput contains a public contact form submission
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}
