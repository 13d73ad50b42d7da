package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SequenceAllocator hands out invoice numbers. Allocation is atomic:
// two concurrent calls never observe the same value, and values are
// strictly increasing.
type SequenceAllocator interface {
	// Next allocates and returns the next sequence value
	Next(ctx context.Context) (int64, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// CreateAndMarkBilled persists the invoice and flips the billed
	// flag on its consumption as one transaction. When the consumption
	// is already billed, shared.ErrAlreadyExists is returned and
	// nothing is written.
	CreateAndMarkBilled(ctx context.Context, invoice *Invoice) error

	// Update updates an existing invoice
	Update(ctx context.Context, invoice *Invoice) error

	// Delete deletes an invoice by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its printable number
	FindByNumber(ctx context.Context, number string) (*Invoice, error)

	// FindByConsumption finds the invoice covering a reading, if any
	FindByConsumption(ctx context.Context, consumptionID uuid.UUID) (*Invoice, error)

	// FindByResident returns a resident's invoices with pagination
	FindByResident(ctx context.Context, residentID uuid.UUID, filter InvoiceFilter) ([]*Invoice, int64, error)

	// FindByHouse returns a house's invoices with pagination
	FindByHouse(ctx context.Context, houseID uuid.UUID, filter InvoiceFilter) ([]*Invoice, int64, error)

	// FindAll returns invoices across the platform with pagination
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int64, error)

	// FindDueBefore returns pending invoices whose due date has passed
	FindDueBefore(ctx context.Context, cutoff time.Time) ([]*Invoice, error)

	// StatsByResident aggregates a resident's invoices by status
	StatsByResident(ctx context.Context, residentID uuid.UUID) (*InvoiceStats, error)

	// Stats aggregates all invoices by status
	Stats(ctx context.Context) (*InvoiceStats, error)

	// Count returns the total number of invoices
	Count(ctx context.Context) (int64, error)
}

// InvoiceStats aggregates invoices for reporting
type InvoiceStats struct {
	Count            int64           `json:"count"`
	Pending          int64           `json:"pending"`
	Paid             int64           `json:"paid"`
	Overdue          int64           `json:"overdue"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// InvoiceFilter contains filter options for querying invoices
type InvoiceFilter struct {
	Status *InvoiceStatus
	Month  *int
	Year   *int

	Page     int
	PageSize int
}

// NewInvoiceFilter creates a filter with default values
func NewInvoiceFilter() InvoiceFilter {
	return InvoiceFilter{
		Page:     1,
		PageSize: 20,
	}
}

// WithStatus sets the status filter
func (f InvoiceFilter) WithStatus(status InvoiceStatus) InvoiceFilter {
	f.Status = &status
	return f
}

// WithPeriod sets the billing period filter
func (f InvoiceFilter) WithPeriod(month, year int) InvoiceFilter {
	f.Month = &month
	f.Year = &year
	return f
}

// WithPagination sets pagination parameters
func (f InvoiceFilter) WithPagination(page, pageSize int) InvoiceFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f InvoiceFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f InvoiceFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
