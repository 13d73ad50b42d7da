package persistence

import (
	"context"

	"github.com/ecopower/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// SequenceModel is the GORM model for named counters
type SequenceModel struct {
	Name  string `gorm:"type:varchar(50);primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for the model
func (SequenceModel) TableName() string {
	return "sequences"
}

// invoiceSequenceName is the counter backing invoice numbers
const invoiceSequenceName = "invoice_number"

// GormSequenceAllocator implements billing.SequenceAllocator on top of
// a counter row. The UPDATE takes a row lock, so concurrent allocations
// serialize and every caller sees a distinct value.
type GormSequenceAllocator struct {
	db   *gorm.DB
	name string
}

// NewGormSequenceAllocator creates an allocator for invoice numbers
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db, name: invoiceSequenceName}
}

// Next allocates and returns the next sequence value
func (a *GormSequenceAllocator) Next(ctx context.Context) (int64, error) {
	var value int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&SequenceModel{}).
			Where("name = ?", a.name).
			Update("value", gorm.Expr("value + 1"))
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			if err := tx.Create(&SequenceModel{Name: a.name, Value: 1}).Error; err != nil {
				// Lost the race to another first allocation, fall back
				// to incrementing the row it created
				if !isDuplicateKeyError(err) {
					return err
				}
				bump := tx.Model(&SequenceModel{}).
					Where("name = ?", a.name).
					Update("value", gorm.Expr("value + 1"))
				if bump.Error != nil {
					return bump.Error
				}
			}
		}

		return tx.Model(&SequenceModel{}).
			Where("name = ?", a.name).
			Select("value").
			Scan(&value).Error
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Ensure GormSequenceAllocator implements the interface
var _ billing.SequenceAllocator = (*GormSequenceAllocator)(nil)
