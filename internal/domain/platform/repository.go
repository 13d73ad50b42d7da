package platform

import "context"

// SettingsRepository persists the singleton app settings row
type SettingsRepository interface {
	// Get returns the settings, creating the default row when missing
	Get(ctx context.Context) (*AppSettings, error)

	// Save persists the settings
	Save(ctx context.Context, settings *AppSettings) error
}
