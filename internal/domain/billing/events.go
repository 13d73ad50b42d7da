package billing

import (
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the billing domain
const (
	EventInvoiceGenerated = "billing.invoice.generated"
	EventInvoicePaid      = "billing.invoice.paid"
	EventInvoiceOverdue   = "billing.invoice.overdue"
)

// InvoiceGeneratedEvent is raised when an invoice is issued
type InvoiceGeneratedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	ResidentID uuid.UUID       `json:"resident_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewInvoiceGeneratedEvent creates a new invoice generated event
func NewInvoiceGeneratedEvent(i *Invoice) *InvoiceGeneratedEvent {
	return &InvoiceGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceGenerated, "Invoice", i.ID),
		Number:          i.Number,
		ResidentID:      i.ResidentID,
		Amount:          i.AmountTotal,
	}
}

// InvoicePaidEvent is raised when an invoice is settled
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	ResidentID uuid.UUID       `json:"resident_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewInvoicePaidEvent creates a new invoice paid event
func NewInvoicePaidEvent(i *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoicePaid, "Invoice", i.ID),
		Number:          i.Number,
		ResidentID:      i.ResidentID,
		Amount:          i.AmountTotal,
	}
}

// InvoiceOverdueEvent is raised when a pending invoice passes its due date
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	Number     string    `json:"number"`
	ResidentID uuid.UUID `json:"resident_id"`
}

// NewInvoiceOverdueEvent creates a new invoice overdue event
func NewInvoiceOverdueEvent(i *Invoice) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceOverdue, "Invoice", i.ID),
		Number:          i.Number,
		ResidentID:      i.ResidentID,
	}
}
