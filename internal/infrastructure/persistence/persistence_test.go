package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&UserModel{},
		&HouseModel{},
		&ConsumptionModel{},
		&InvoiceModel{},
		&SequenceModel{},
		&MessageModel{},
		&NotificationModel{},
		&AuditLogModel{},
		&SettingsModel{},
	)
	require.NoError(t, err)

	return db
}
