package billing

import (
	"fmt"
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// PaymentTermDays is the delay between issue and due date
const PaymentTermDays = 30

// invoiceNumberFormat renders a sequence value as a printable number
const invoiceNumberFormat = "FAC-%06d"

// FormatInvoiceNumber renders an allocated sequence value
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf(invoiceNumberFormat, seq)
}

// Invoice is the aggregate root for one billed reading. Exactly one
// invoice exists per consumption; the amount is priced with the house
// tariff in force at generation time, not at recording time.
type Invoice struct {
	shared.BaseAggregateRoot
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
	Status            InvoiceStatus
	IssueDate         time.Time
	DueDate           time.Time
	PaidAt            *time.Time
}

// NewInvoice creates an invoice for a consumption reading
func NewInvoice(number string, residentID, houseID, consumptionID uuid.UUID, month, year int, kwh, tariffKwh, fixedFees decimal.Decimal) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if residentID == uuid.Nil || houseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Invoice must reference a resident and a house")
	}
	if consumptionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Invoice must reference a consumption reading")
	}
	if kwh.IsNegative() {
		return nil, shared.NewDomainError("INVALID_KWH", "Consumed kWh cannot be negative")
	}
	if tariffKwh.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TARIFF", "Tariff cannot be negative")
	}
	if fixedFees.IsNegative() {
		return nil, shared.NewDomainError("INVALID_FEES", "Fixed fees cannot be negative")
	}

	amountConsumption := kwh.Mul(tariffKwh)
	now := time.Now()
	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		ResidentID:        residentID,
		HouseID:           houseID,
		ConsumptionID:     consumptionID,
		Month:             month,
		Year:              year,
		KwhConsumed:       kwh,
		TariffKwh:         tariffKwh,
		AmountConsumption: amountConsumption,
		FixedFees:         fixedFees,
		AmountTotal:       amountConsumption.Add(fixedFees),
		Status:            InvoiceStatusPending,
		IssueDate:         now,
		DueDate:           now.AddDate(0, 0, PaymentTermDays),
	}

	inv.AddDomainEvent(NewInvoiceGeneratedEvent(inv))

	return inv, nil
}

// MarkPaid settles the invoice
func (i *Invoice) MarkPaid() error {
	if i.Status == InvoiceStatusPaid {
		return shared.NewDomainError("ALREADY_PAID", "Invoice is already paid")
	}
	now := time.Now()
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoicePaidEvent(i))

	return nil
}

// MarkOverdue flags a pending invoice whose due date has passed
func (i *Invoice) MarkOverdue(now time.Time) error {
	if i.Status != InvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending invoices can become overdue")
	}
	if now.Before(i.DueDate) {
		return shared.NewDomainError("NOT_DUE", "Invoice is not past its due date")
	}
	i.Status = InvoiceStatusOverdue
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceOverdueEvent(i))

	return nil
}

// IsSettled reports whether the invoice has been paid
func (i *Invoice) IsSettled() bool {
	return i.Status == InvoiceStatusPaid
}
