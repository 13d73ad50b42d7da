package metering

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConsumptionRepository defines the interface for reading persistence
type ConsumptionRepository interface {
	// CreateWithinQuota inserts the reading only while the resident has
	// fewer than MaxReadingsPerPeriod readings for the same house and
	// period. The count check and the insert are one atomic operation;
	// when the quota is exhausted shared.ErrQuotaExceeded is returned.
	CreateWithinQuota(ctx context.Context, c *Consumption) error

	// Update updates an existing reading
	Update(ctx context.Context, c *Consumption) error

	// Delete deletes a reading by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a reading by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Consumption, error)

	// FindByResident returns a resident's readings, most recent period
	// first, with pagination
	FindByResident(ctx context.Context, residentID uuid.UUID, filter ConsumptionFilter) ([]*Consumption, int64, error)

	// FindByHouse returns a house's readings, most recent period first,
	// with pagination
	FindByHouse(ctx context.Context, houseID uuid.UUID, filter ConsumptionFilter) ([]*Consumption, int64, error)

	// FindRecentByResident returns the resident's most recent readings,
	// newest first, up to limit
	FindRecentByResident(ctx context.Context, residentID uuid.UUID, limit int) ([]*Consumption, error)

	// FindUnbilled returns the unbilled reading of a resident for a
	// billing period, if any
	FindUnbilled(ctx context.Context, residentID uuid.UUID, month, year int) (*Consumption, error)

	// CountForPeriod returns how many readings exist for the resident
	// in the given house and period
	CountForPeriod(ctx context.Context, residentID, houseID uuid.UUID, month, year int) (int64, error)

	// StatsByResident aggregates a resident's readings
	StatsByResident(ctx context.Context, residentID uuid.UUID) (*ConsumptionStats, error)

	// StatsByHouse aggregates a house's readings
	StatsByHouse(ctx context.Context, houseID uuid.UUID) (*ConsumptionStats, error)

	// Count returns the total number of readings
	Count(ctx context.Context) (int64, error)
}

// ConsumptionStats aggregates readings for reporting
type ConsumptionStats struct {
	Count       int64           `json:"count"`
	TotalKwh    decimal.Decimal `json:"total_kwh"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Billed      int64           `json:"billed"`
	Unbilled    int64           `json:"unbilled"`
}

// ConsumptionFilter contains filter options for querying readings
type ConsumptionFilter struct {
	Month  *int
	Year   *int
	Billed *bool

	Page     int
	PageSize int
}

// NewConsumptionFilter creates a filter with default values
func NewConsumptionFilter() ConsumptionFilter {
	return ConsumptionFilter{
		Page:     1,
		PageSize: 20,
	}
}

// WithPeriod sets the billing period filter
func (f ConsumptionFilter) WithPeriod(month, year int) ConsumptionFilter {
	f.Month = &month
	f.Year = &year
	return f
}

// WithBilled sets the billed state filter
func (f ConsumptionFilter) WithBilled(billed bool) ConsumptionFilter {
	f.Billed = &billed
	return f
}

// WithPagination sets pagination parameters
func (f ConsumptionFilter) WithPagination(page, pageSize int) ConsumptionFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f ConsumptionFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f ConsumptionFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
