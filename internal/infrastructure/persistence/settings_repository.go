package persistence

import (
	"context"
	"time"

	"github.com/ecopower/backend/internal/domain/platform"
	"gorm.io/gorm"
)

// SettingsModel is the GORM model for the singleton app settings row
type SettingsModel struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey"`
	Key                string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupportEmail       string    `gorm:"type:varchar(200)"`
	SupportPhone       string    `gorm:"type:varchar(50)"`
	SupportWhatsapp    string    `gorm:"type:varchar(50)"`
	AppVersion         string    `gorm:"type:varchar(20)"`
	MaintenanceMode    bool      `gorm:"not null;default:false"`
	MaintenanceMessage string    `gorm:"type:varchar(500)"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (SettingsModel) TableName() string {
	return "app_settings"
}

// GormSettingsRepository implements platform.SettingsRepository
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new settings repository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns the settings, creating the default row when missing
func (r *GormSettingsRepository) Get(ctx context.Context) (*platform.AppSettings, error) {
	var model SettingsModel
	err := r.db.WithContext(ctx).First(&model, "key = ?", platform.SettingsKey).Error
	if err == gorm.ErrRecordNotFound {
		defaults := platform.DefaultSettings()
		if saveErr := r.Save(ctx, defaults); saveErr != nil {
			return nil, saveErr
		}
		return defaults, nil
	}
	if err != nil {
		return nil, err
	}

	settings := platform.DefaultSettings()
	settings.SupportEmail = model.SupportEmail
	settings.SupportPhone = model.SupportPhone
	settings.SupportWhatsapp = model.SupportWhatsapp
	settings.AppVersion = model.AppVersion
	settings.MaintenanceMode = model.MaintenanceMode
	settings.MaintenanceMessage = model.MaintenanceMessage
	settings.CreatedAt = model.CreatedAt
	settings.UpdatedAt = model.UpdatedAt
	return settings, nil
}

// Save persists the settings, inserting or updating the singleton row
func (r *GormSettingsRepository) Save(ctx context.Context, settings *platform.AppSettings) error {
	model := SettingsModel{
		ID:                 settings.ID.String(),
		Key:                platform.SettingsKey,
		SupportEmail:       settings.SupportEmail,
		SupportPhone:       settings.SupportPhone,
		SupportWhatsapp:    settings.SupportWhatsapp,
		AppVersion:         settings.AppVersion,
		MaintenanceMode:    settings.MaintenanceMode,
		MaintenanceMessage: settings.MaintenanceMessage,
		CreatedAt:          settings.CreatedAt,
		UpdatedAt:          settings.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Model(&SettingsModel{}).
		Where("key = ?", platform.SettingsKey).
		Select("*").Omit("id", "key", "created_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.db.WithContext(ctx).Create(&model).Error
	}
	return nil
}

// Ensure GormSettingsRepository implements the interface
var _ platform.SettingsRepository = (*GormSettingsRepository)(nil)
