package metering

import (
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxReadingsPerPeriod is the number of readings a resident may have
// recorded for one billing period (month, year)
const MaxReadingsPerPeriod = 2

// Consumption is the aggregate root for one meter reading. Indices are
// cumulative meter values; the consumed energy is the difference. Once
// the reading has been billed it becomes immutable.
type Consumption struct {
	shared.BaseAggregateRoot
	ResidentID    uuid.UUID
	HouseID       uuid.UUID
	PreviousIndex decimal.Decimal
	CurrentIndex  decimal.Decimal
	Month         int
	Year          int
	ReadingDate   time.Time
	KwhConsumed   decimal.Decimal
	TariffKwh     decimal.Decimal
	Amount        decimal.Decimal
	Billed        bool
	Comment       string
}

// NewConsumption creates a reading and derives kWh and amount from the
// indices and the tariff in force at recording time
func NewConsumption(residentID, houseID uuid.UUID, previousIndex, currentIndex decimal.Decimal, month, year int, readingDate time.Time, tariffKwh decimal.Decimal, comment string) (*Consumption, error) {
	if residentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RESIDENT", "Reading must be linked to a resident")
	}
	if houseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_HOUSE", "Reading must be linked to a house")
	}
	if month < 1 || month > 12 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Month must be between 1 and 12")
	}
	if year < 2000 || year > 2200 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Year is out of range")
	}
	if previousIndex.IsNegative() || currentIndex.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INDEX", "Meter indices cannot be negative")
	}
	if currentIndex.LessThan(previousIndex) {
		return nil, shared.NewDomainError("INVALID_INDEX", "Current index cannot be lower than previous index")
	}
	if tariffKwh.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TARIFF", "Tariff cannot be negative")
	}
	if readingDate.IsZero() {
		readingDate = time.Now()
	}

	kwh := currentIndex.Sub(previousIndex)
	c := &Consumption{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ResidentID:        residentID,
		HouseID:           houseID,
		PreviousIndex:     previousIndex,
		CurrentIndex:      currentIndex,
		Month:             month,
		Year:              year,
		ReadingDate:       readingDate,
		KwhConsumed:       kwh,
		TariffKwh:         tariffKwh,
		Amount:            kwh.Mul(tariffKwh),
		Comment:           comment,
	}

	c.AddDomainEvent(NewConsumptionRecordedEvent(c))

	return c, nil
}

// UpdateIndices replaces the meter indices and recomputes kWh and
// amount. Refused once the reading is billed.
func (c *Consumption) UpdateIndices(previousIndex, currentIndex decimal.Decimal) error {
	if c.Billed {
		return shared.NewDomainError("ALREADY_BILLED", "A billed reading cannot be modified")
	}
	if previousIndex.IsNegative() || currentIndex.IsNegative() {
		return shared.NewDomainError("INVALID_INDEX", "Meter indices cannot be negative")
	}
	if currentIndex.LessThan(previousIndex) {
		return shared.NewDomainError("INVALID_INDEX", "Current index cannot be lower than previous index")
	}

	c.PreviousIndex = previousIndex
	c.CurrentIndex = currentIndex
	c.KwhConsumed = currentIndex.Sub(previousIndex)
	c.Amount = c.KwhConsumed.Mul(c.TariffKwh)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetComment updates the free-form comment
func (c *Consumption) SetComment(comment string) error {
	if c.Billed {
		return shared.NewDomainError("ALREADY_BILLED", "A billed reading cannot be modified")
	}
	c.Comment = comment
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// MarkBilled flags the reading as covered by an invoice
func (c *Consumption) MarkBilled() error {
	if c.Billed {
		return shared.NewDomainError("ALREADY_BILLED", "Reading is already billed")
	}
	c.Billed = true
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// CanDelete reports whether the reading may still be removed
func (c *Consumption) CanDelete() bool {
	return !c.Billed
}
