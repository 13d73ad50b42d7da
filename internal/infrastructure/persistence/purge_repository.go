package persistence

import (
	"context"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurgeRepository runs the destructive account cascades. Each
// cascade is one transaction that removes dependent rows leaves first,
// so a failure midway leaves every table untouched.
type GormPurgeRepository struct {
	db *gorm.DB
}

// NewGormPurgeRepository creates a new purge repository
func NewGormPurgeRepository(db *gorm.DB) *GormPurgeRepository {
	return &GormPurgeRepository{db: db}
}

// PurgeResident removes a resident account and everything hanging off
// it: invoices, readings, messages, notifications, audit entries.
func (r *GormPurgeRepository) PurgeResident(ctx context.Context, residentID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return purgeResidentTx(tx, residentID)
	})
}

func purgeResidentTx(tx *gorm.DB, residentID uuid.UUID) error {
	if err := tx.Delete(&InvoiceModel{}, "resident_id = ?", residentID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&ConsumptionModel{}, "resident_id = ?", residentID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&MessageModel{}, "sender_id = ? OR recipient_id = ?", residentID, residentID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&NotificationModel{}, "recipient_id = ?", residentID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&AuditLogModel{}, "user_id = ?", residentID).Error; err != nil {
		return err
	}

	result := tx.Delete(&UserModel{}, "id = ?", residentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PurgeHouse removes a house, its readings and invoices, and detaches
// any residents still assigned to it
func (r *GormPurgeRepository) PurgeHouse(ctx context.Context, houseID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return purgeHouseTx(tx, houseID)
	})
}

func purgeHouseTx(tx *gorm.DB, houseID uuid.UUID) error {
	if err := tx.Delete(&InvoiceModel{}, "house_id = ?", houseID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&ConsumptionModel{}, "house_id = ?", houseID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&MessageModel{}, "house_id = ?", houseID).Error; err != nil {
		return err
	}
	if err := tx.Model(&UserModel{}).
		Where("house_id = ?", houseID).
		Update("house_id", nil).Error; err != nil {
		return err
	}

	result := tx.Delete(&HouseModel{}, "id = ?", houseID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PurgeOwner removes an owner account with its residents and houses.
// Residents go first so the house cascade never detaches accounts that
// are about to disappear anyway.
func (r *GormPurgeRepository) PurgeOwner(ctx context.Context, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var residentIDs []uuid.UUID
		if err := tx.Model(&UserModel{}).
			Where("owner_id = ?", ownerID).
			Pluck("id", &residentIDs).Error; err != nil {
			return err
		}
		for _, id := range residentIDs {
			if err := purgeResidentTx(tx, id); err != nil {
				return err
			}
		}

		var houseIDs []uuid.UUID
		if err := tx.Model(&HouseModel{}).
			Where("owner_id = ?", ownerID).
			Pluck("id", &houseIDs).Error; err != nil {
			return err
		}
		for _, id := range houseIDs {
			if err := purgeHouseTx(tx, id); err != nil {
				return err
			}
		}

		return purgeResidentTx(tx, ownerID)
	})
}
