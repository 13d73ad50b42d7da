package persistence

import (
	"context"
	"time"

	"github.com/ecopower/backend/internal/domain/billing"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceModel is the GORM model for invoices. The unique index on
// consumption_id enforces the one invoice per reading rule at the
// storage level, independently of the billed flag.
type InvoiceModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	ResidentID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	HouseID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ConsumptionID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Month             int             `gorm:"not null"`
	Year              int             `gorm:"not null"`
	KwhConsumed       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TariffKwh         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountConsumption decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FixedFees         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status            string          `gorm:"type:varchar(20);not null;index"`
	IssueDate         time.Time       `gorm:"not null"`
	DueDate           time.Time       `gorm:"not null;index"`
	PaidAt            *time.Time
	Version           int       `gorm:"not null;default:1"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToEntity converts the model to a domain entity
func (m *InvoiceModel) ToEntity() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot: aggregateRoot(m.ID, m.Version, m.CreatedAt, m.UpdatedAt),
		Number:            m.Number,
		ResidentID:        m.ResidentID,
		HouseID:           m.HouseID,
		ConsumptionID:     m.ConsumptionID,
		Month:             m.Month,
		Year:              m.Year,
		KwhConsumed:       m.KwhConsumed,
		TariffKwh:         m.TariffKwh,
		AmountConsumption: m.AmountConsumption,
		FixedFees:         m.FixedFees,
		AmountTotal:       m.AmountTotal,
		Status:            billing.InvoiceStatus(m.Status),
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		PaidAt:            m.PaidAt,
	}
}

// InvoiceModelFromEntity creates a model from a domain entity
func InvoiceModelFromEntity(i *billing.Invoice) *InvoiceModel {
	return &InvoiceModel{
		ID:                i.ID,
		Number:            i.Number,
		ResidentID:        i.ResidentID,
		HouseID:           i.HouseID,
		ConsumptionID:     i.ConsumptionID,
		Month:             i.Month,
		Year:              i.Year,
		KwhConsumed:       i.KwhConsumed,
		TariffKwh:         i.TariffKwh,
		AmountConsumption: i.AmountConsumption,
		FixedFees:         i.FixedFees,
		AmountTotal:       i.AmountTotal,
		Status:            string(i.Status),
		IssueDate:         i.IssueDate,
		DueDate:           i.DueDate,
		PaidAt:            i.PaidAt,
		Version:           i.Version,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// GormInvoiceRepository implements billing.InvoiceRepository
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new invoice repository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// CreateAndMarkBilled writes the invoice and flips the consumption's
// billed flag in one transaction. The guarded UPDATE only matches an
// unbilled row, so a reading that is already covered aborts the whole
// transaction before the invoice row exists.
func (r *GormInvoiceRepository) CreateAndMarkBilled(ctx context.Context, invoice *billing.Invoice) error {
	model := InvoiceModelFromEntity(invoice)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ConsumptionModel{}).
			Where("id = ? AND billed = ?", model.ConsumptionID, false).
			Updates(map[string]interface{}{
				"billed":     true,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&ConsumptionModel{}).
				Where("id = ?", model.ConsumptionID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrAlreadyExists
		}

		if err := tx.Create(model).Error; err != nil {
			if isDuplicateKeyError(err) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
}

// Update updates an existing invoice
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *billing.Invoice) error {
	model := InvoiceModelFromEntity(invoice)
	result := r.db.WithContext(ctx).Model(&InvoiceModel{}).
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

// Delete deletes an invoice by ID
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&InvoiceModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByNumber finds an invoice by its printable number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	var model InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "number = ?", number).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByConsumption finds the invoice covering a reading
func (r *GormInvoiceRepository) FindByConsumption(ctx context.Context, consumptionID uuid.UUID) (*billing.Invoice, error) {
	var model InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "consumption_id = ?", consumptionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByResident returns a resident's invoices with pagination
func (r *GormInvoiceRepository) FindByResident(ctx context.Context, residentID uuid.UUID, filter billing.InvoiceFilter) ([]*billing.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&InvoiceModel{}).
		Where("resident_id = ?", residentID)
	return r.findFiltered(query, filter)
}

// FindByHouse returns a house's invoices with pagination
func (r *GormInvoiceRepository) FindByHouse(ctx context.Context, houseID uuid.UUID, filter billing.InvoiceFilter) ([]*billing.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&InvoiceModel{}).
		Where("house_id = ?", houseID)
	return r.findFiltered(query, filter)
}

// FindAll returns invoices across the platform with pagination
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]*billing.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&InvoiceModel{})
	return r.findFiltered(query, filter)
}

func (r *GormInvoiceRepository) findFiltered(query *gorm.DB, filter billing.InvoiceFilter) ([]*billing.Invoice, int64, error) {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Month != nil {
		query = query.Where("month = ?", *filter.Month)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []InvoiceModel
	err := query.Order("issue_date DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	invoices := make([]*billing.Invoice, len(models))
	for i := range models {
		invoices[i] = models[i].ToEntity()
	}
	return invoices, total, nil
}

// FindDueBefore returns pending invoices whose due date has passed
func (r *GormInvoiceRepository) FindDueBefore(ctx context.Context, cutoff time.Time) ([]*billing.Invoice, error) {
	var models []InvoiceModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", string(billing.InvoiceStatusPending), cutoff).
		Order("due_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	invoices := make([]*billing.Invoice, len(models))
	for i := range models {
		invoices[i] = models[i].ToEntity()
	}
	return invoices, nil
}

// StatsByResident aggregates a resident's invoices by status
func (r *GormInvoiceRepository) StatsByResident(ctx context.Context, residentID uuid.UUID) (*billing.InvoiceStats, error) {
	query := r.db.WithContext(ctx).Model(&InvoiceModel{}).
		Where("resident_id = ?", residentID)
	return r.aggregate(query)
}

// Stats aggregates all invoices by status
func (r *GormInvoiceRepository) Stats(ctx context.Context) (*billing.InvoiceStats, error) {
	return r.aggregate(r.db.WithContext(ctx).Model(&InvoiceModel{}))
}

type invoiceAggregateRow struct {
	Count            int64
	Pending          int64
	Paid             int64
	Overdue          int64
	TotalBilled      decimal.Decimal
	TotalCollected   decimal.Decimal
	TotalOutstanding decimal.Decimal
}

func (r *GormInvoiceRepository) aggregate(query *gorm.DB) (*billing.InvoiceStats, error) {
	var row invoiceAggregateRow
	err := query.Select(
		"COUNT(*) AS count, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS paid, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS overdue, "+
			"COALESCE(SUM(amount_total), 0) AS total_billed, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN amount_total ELSE 0 END), 0) AS total_collected, "+
			"COALESCE(SUM(CASE WHEN status != ? THEN amount_total ELSE 0 END), 0) AS total_outstanding",
		string(billing.InvoiceStatusPending),
		string(billing.InvoiceStatusPaid),
		string(billing.InvoiceStatusOverdue),
		string(billing.InvoiceStatusPaid),
		string(billing.InvoiceStatusPaid),
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &billing.InvoiceStats{
		Count:            row.Count,
		Pending:          row.Pending,
		Paid:             row.Paid,
		Overdue:          row.Overdue,
		TotalBilled:      row.TotalBilled,
		TotalCollected:   row.TotalCollected,
		TotalOutstanding: row.TotalOutstanding,
	}, nil
}

// Count returns the total number of invoices
func (r *GormInvoiceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&InvoiceModel{}).Count(&count).Error
	return count, err
}

// Ensure GormInvoiceRepository implements the interface
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
