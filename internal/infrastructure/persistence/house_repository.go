package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/ecopower/backend/internal/domain/housing"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HouseModel is the GORM model for houses
type HouseModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Address     string          `gorm:"type:varchar(500);not null"`
	City        string          `gorm:"type:varchar(100)"`
	MeterNumber string          `gorm:"type:varchar(100)"`
	TariffKwh   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Occupied    bool            `gorm:"not null;default:false"`
	Version     int             `gorm:"not null;default:1"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (HouseModel) TableName() string {
	return "houses"
}

// ToEntity converts the model to a domain entity
func (m *HouseModel) ToEntity() *housing.House {
	return &housing.House{
		BaseAggregateRoot: aggregateRoot(m.ID, m.Version, m.CreatedAt, m.UpdatedAt),
		OwnerID:           m.OwnerID,
		Name:              m.Name,
		Address:           m.Address,
		City:              m.City,
		MeterNumber:       m.MeterNumber,
		TariffKwh:         m.TariffKwh,
		Occupied:          m.Occupied,
	}
}

// HouseModelFromEntity creates a model from a domain entity
func HouseModelFromEntity(h *housing.House) *HouseModel {
	return &HouseModel{
		ID:          h.ID,
		OwnerID:     h.OwnerID,
		Name:        h.Name,
		Address:     h.Address,
		City:        h.City,
		MeterNumber: h.MeterNumber,
		TariffKwh:   h.TariffKwh,
		Occupied:    h.Occupied,
		Version:     h.Version,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

// GormHouseRepository implements housing.HouseRepository
type GormHouseRepository struct {
	db *gorm.DB
}

// NewGormHouseRepository creates a new house repository
func NewGormHouseRepository(db *gorm.DB) *GormHouseRepository {
	return &GormHouseRepository{db: db}
}

// Create creates a new house
func (r *GormHouseRepository) Create(ctx context.Context, house *housing.House) error {
	model := HouseModelFromEntity(house)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update updates an existing house
func (r *GormHouseRepository) Update(ctx context.Context, house *housing.House) error {
	model := HouseModelFromEntity(house)
	result := r.db.WithContext(ctx).Model(&HouseModel{}).
		Where("id = ?", model.ID).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a house by ID
func (r *GormHouseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&HouseModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a house by ID
func (r *GormHouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*housing.House, error) {
	var model HouseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByOwner returns all houses registered by an owner
func (r *GormHouseRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*housing.House, error) {
	var models []HouseModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	houses := make([]*housing.House, len(models))
	for i := range models {
		houses[i] = models[i].ToEntity()
	}
	return houses, nil
}

// FindAll returns houses matching the filter with pagination
func (r *GormHouseRepository) FindAll(ctx context.Context, filter housing.HouseFilter) ([]*housing.House, int64, error) {
	query := r.db.WithContext(ctx).Model(&HouseModel{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Occupied != nil {
		query = query.Where("occupied = ?", *filter.Occupied)
	}
	if filter.Keyword != "" {
		pattern := "%" + strings.ToLower(filter.Keyword) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(city) LIKE ? OR meter_number LIKE ?",
			pattern, pattern, pattern, "%"+filter.Keyword+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := validateHouseSortField(filter.SortBy)
	sortOrder := validateSortOrder(filter.SortOrder)

	var models []HouseModel
	err := query.Order(sortBy + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	houses := make([]*housing.House, len(models))
	for i := range models {
		houses[i] = models[i].ToEntity()
	}
	return houses, total, nil
}

// OwnerOf returns the owner of a house
func (r *GormHouseRepository) OwnerOf(ctx context.Context, houseID uuid.UUID) (uuid.UUID, error) {
	var model HouseModel
	err := r.db.WithContext(ctx).
		Select("owner_id").
		First(&model, "id = ?", houseID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return model.OwnerID, nil
}

// Count returns the total number of houses
func (r *GormHouseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&HouseModel{}).Count(&count).Error
	return count, err
}

var houseAllowedSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"city":       true,
	"tariff_kwh": true,
}

func validateHouseSortField(field string) string {
	if houseAllowedSortFields[field] {
		return field
	}
	return "created_at"
}

// Ensure GormHouseRepository implements the interface
var _ housing.HouseRepository = (*GormHouseRepository)(nil)
