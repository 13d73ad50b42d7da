package persistence

import (
	"context"
	"time"

	"github.com/ecopower/backend/internal/domain/metering"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ConsumptionModel is the GORM model for meter readings
type ConsumptionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ResidentID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_consumptions_period"`
	HouseID       uuid.UUID       `gorm:"type:uuid;not null;index;index:idx_consumptions_period"`
	PreviousIndex decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentIndex  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Month         int             `gorm:"not null;index:idx_consumptions_period"`
	Year          int             `gorm:"not null;index:idx_consumptions_period"`
	ReadingDate   time.Time       `gorm:"not null"`
	KwhConsumed   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TariffKwh     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Billed        bool            `gorm:"not null;default:false"`
	Comment       string          `gorm:"type:varchar(1000)"`
	Version       int             `gorm:"not null;default:1"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (ConsumptionModel) TableName() string {
	return "consumptions"
}

// ToEntity converts the model to a domain entity
func (m *ConsumptionModel) ToEntity() *metering.Consumption {
	return &metering.Consumption{
		BaseAggregateRoot: aggregateRoot(m.ID, m.Version, m.CreatedAt, m.UpdatedAt),
		ResidentID:        m.ResidentID,
		HouseID:           m.HouseID,
		PreviousIndex:     m.PreviousIndex,
		CurrentIndex:      m.CurrentIndex,
		Month:             m.Month,
		Year:              m.Year,
		ReadingDate:       m.ReadingDate,
		KwhConsumed:       m.KwhConsumed,
		TariffKwh:         m.TariffKwh,
		Amount:            m.Amount,
		Billed:            m.Billed,
		Comment:           m.Comment,
	}
}

// ConsumptionModelFromEntity creates a model from a domain entity
func ConsumptionModelFromEntity(c *metering.Consumption) *ConsumptionModel {
	return &ConsumptionModel{
		ID:            c.ID,
		ResidentID:    c.ResidentID,
		HouseID:       c.HouseID,
		PreviousIndex: c.PreviousIndex,
		CurrentIndex:  c.CurrentIndex,
		Month:         c.Month,
		Year:          c.Year,
		ReadingDate:   c.ReadingDate,
		KwhConsumed:   c.KwhConsumed,
		TariffKwh:     c.TariffKwh,
		Amount:        c.Amount,
		Billed:        c.Billed,
		Comment:       c.Comment,
		Version:       c.Version,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// GormConsumptionRepository implements metering.ConsumptionRepository
type GormConsumptionRepository struct {
	db *gorm.DB
}

// NewGormConsumptionRepository creates a new consumption repository
func NewGormConsumptionRepository(db *gorm.DB) *GormConsumptionRepository {
	return &GormConsumptionRepository{db: db}
}

// CreateWithinQuota inserts the reading guarded by the per-period quota.
// The count check and the insert run as a single conditional INSERT so
// two concurrent requests cannot both slip past the limit.
func (r *GormConsumptionRepository) CreateWithinQuota(ctx context.Context, c *metering.Consumption) error {
	m := ConsumptionModelFromEntity(c)

	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO consumptions (
			id, resident_id, house_id, previous_index, current_index,
			month, year, reading_date, kwh_consumed, tariff_kwh, amount,
			billed, comment, version, created_at, updated_at
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE (
			SELECT COUNT(*) FROM consumptions
			WHERE resident_id = ? AND house_id = ? AND month = ? AND year = ?
		) < ?`,
		m.ID, m.ResidentID, m.HouseID, m.PreviousIndex, m.CurrentIndex,
		m.Month, m.Year, m.ReadingDate, m.KwhConsumed, m.TariffKwh, m.Amount,
		m.Billed, m.Comment, m.Version, m.CreatedAt, m.UpdatedAt,
		m.ResidentID, m.HouseID, m.Month, m.Year,
		metering.MaxReadingsPerPeriod,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrQuotaExceeded
	}
	return nil
}

// Update updates an existing reading
func (r *GormConsumptionRepository) Update(ctx context.Context, c *metering.Consumption) error {
	model := ConsumptionModelFromEntity(c)
	result := r.db.WithContext(ctx).Model(&ConsumptionModel{}).
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

// Delete deletes a reading by ID
func (r *GormConsumptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ConsumptionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a reading by ID
func (r *GormConsumptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*metering.Consumption, error) {
	var model ConsumptionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByResident returns a resident's readings with pagination
func (r *GormConsumptionRepository) FindByResident(ctx context.Context, residentID uuid.UUID, filter metering.ConsumptionFilter) ([]*metering.Consumption, int64, error) {
	query := r.db.WithContext(ctx).Model(&ConsumptionModel{}).
		Where("resident_id = ?", residentID)
	return r.findFiltered(query, filter)
}

// FindByHouse returns a house's readings with pagination
func (r *GormConsumptionRepository) FindByHouse(ctx context.Context, houseID uuid.UUID, filter metering.ConsumptionFilter) ([]*metering.Consumption, int64, error) {
	query := r.db.WithContext(ctx).Model(&ConsumptionModel{}).
		Where("house_id = ?", houseID)
	return r.findFiltered(query, filter)
}

func (r *GormConsumptionRepository) findFiltered(query *gorm.DB, filter metering.ConsumptionFilter) ([]*metering.Consumption, int64, error) {
	if filter.Month != nil {
		query = query.Where("month = ?", *filter.Month)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.Billed != nil {
		query = query.Where("billed = ?", *filter.Billed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ConsumptionModel
	err := query.Order("year DESC, month DESC, reading_date DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	readings := make([]*metering.Consumption, len(models))
	for i := range models {
		readings[i] = models[i].ToEntity()
	}
	return readings, total, nil
}

// FindRecentByResident returns the most recent readings, newest first
func (r *GormConsumptionRepository) FindRecentByResident(ctx context.Context, residentID uuid.UUID, limit int) ([]*metering.Consumption, error) {
	if limit <= 0 {
		limit = 3
	}
	var models []ConsumptionModel
	err := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("reading_date DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	readings := make([]*metering.Consumption, len(models))
	for i := range models {
		readings[i] = models[i].ToEntity()
	}
	return readings, nil
}

// FindUnbilled returns the unbilled reading for a billing period
func (r *GormConsumptionRepository) FindUnbilled(ctx context.Context, residentID uuid.UUID, month, year int) (*metering.Consumption, error) {
	var model ConsumptionModel
	err := r.db.WithContext(ctx).
		Where("resident_id = ? AND month = ? AND year = ? AND billed = ?", residentID, month, year, false).
		Order("reading_date DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// CountForPeriod returns how many readings a resident has for a house
// in the period
func (r *GormConsumptionRepository) CountForPeriod(ctx context.Context, residentID, houseID uuid.UUID, month, year int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ConsumptionModel{}).
		Where("resident_id = ? AND house_id = ? AND month = ? AND year = ?", residentID, houseID, month, year).
		Count(&count).Error
	return count, err
}

// StatsByResident aggregates a resident's readings
func (r *GormConsumptionRepository) StatsByResident(ctx context.Context, residentID uuid.UUID) (*metering.ConsumptionStats, error) {
	query := r.db.WithContext(ctx).Model(&ConsumptionModel{}).
		Where("resident_id = ?", residentID)
	return r.aggregate(query)
}

// StatsByHouse aggregates a house's readings
func (r *GormConsumptionRepository) StatsByHouse(ctx context.Context, houseID uuid.UUID) (*metering.ConsumptionStats, error) {
	query := r.db.WithContext(ctx).Model(&ConsumptionModel{}).
		Where("house_id = ?", houseID)
	return r.aggregate(query)
}

type consumptionAggregateRow struct {
	Count       int64
	TotalKwh    decimal.Decimal
	TotalAmount decimal.Decimal
	Billed      int64
}

func (r *GormConsumptionRepository) aggregate(query *gorm.DB) (*metering.ConsumptionStats, error) {
	var row consumptionAggregateRow
	err := query.Select(
		"COUNT(*) AS count, " +
			"COALESCE(SUM(kwh_consumed), 0) AS total_kwh, " +
			"COALESCE(SUM(amount), 0) AS total_amount, " +
			"COALESCE(SUM(CASE WHEN billed THEN 1 ELSE 0 END), 0) AS billed",
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &metering.ConsumptionStats{
		Count:       row.Count,
		TotalKwh:    row.TotalKwh,
		TotalAmount: row.TotalAmount,
		Billed:      row.Billed,
		Unbilled:    row.Count - row.Billed,
	}, nil
}

// Count returns the total number of readings
func (r *GormConsumptionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ConsumptionModel{}).Count(&count).Error
	return count, err
}

// Ensure GormConsumptionRepository implements the interface
var _ metering.ConsumptionRepository = (*GormConsumptionRepository)(nil)
