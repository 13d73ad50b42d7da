package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/ecopower/backend/internal/domain/billing"
)

// GenerateInvoiceInput contains the input for invoice generation. The
// reading is located by resident and period; FixedFees overrides the
// platform default when set.
type GenerateInvoiceInput struct {
	ActorID    uuid.UUID
	ResidentID uuid.UUID
	Month      int
	Year       int
	FixedFees  *decimal.Decimal
}

// ListInvoicesInput contains the filter options for listing invoices
type ListInvoicesInput struct {
	ActorID  uuid.UUID
	Status   *string
	Month    *int
	Year     *int
	Page     int
	PageSize int
}

// InvoiceInfo is the invoice view returned to clients
type InvoiceInfo struct {
	ID                uuid.UUID
	Number            string
	ResidentID        uuid.UUID
	HouseID           uuid.UUID
	ConsumptionID     uuid.UUID
	Month             int
	Year              int
	KwhConsumed       decimal.Decimal
	TariffKwh         decimal.Decimal
	AmountConsumption decimal.Decimal
	FixedFees         decimal.Decimal
	AmountTotal       decimal.Decimal
	Status            string
	IssueDate         time.Time
	DueDate           time.Time
	PaidAt            *time.Time
}

// NewInvoiceInfo maps a domain invoice to its client view
func NewInvoiceInfo(inv *domain.Invoice) InvoiceInfo {
	return InvoiceInfo{
		ID:                inv.ID,
		Number:            inv.Number,
		ResidentID:        inv.ResidentID,
		HouseID:           inv.HouseID,
		ConsumptionID:     inv.ConsumptionID,
		Month:             inv.Month,
		Year:              inv.Year,
		KwhConsumed:       inv.KwhConsumed,
		TariffKwh:         inv.TariffKwh,
		AmountConsumption: inv.AmountConsumption,
		FixedFees:         inv.FixedFees,
		AmountTotal:       inv.AmountTotal,
		Status:            string(inv.Status),
		IssueDate:         inv.IssueDate,
		DueDate:           inv.DueDate,
		PaidAt:            inv.PaidAt,
	}
}

// InvoiceList is a paginated list of invoices
type InvoiceList struct {
	Invoices []InvoiceInfo
	Total    int64
	Page     int
	PageSize int
}

func toInvoiceInfos(invoices []*domain.Invoice) []InvoiceInfo {
	infos := make([]InvoiceInfo, len(invoices))
	for i, inv := range invoices {
		infos[i] = NewInvoiceInfo(inv)
	}
	return infos
}
