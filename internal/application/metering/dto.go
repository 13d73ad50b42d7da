package metering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/ecopower/backend/internal/domain/metering"
)

// RecordReadingInput contains the input for recording a meter reading
type RecordReadingInput struct {
	ActorID       uuid.UUID
	ResidentID    uuid.UUID
	HouseID       uuid.UUID
	PreviousIndex decimal.Decimal
	CurrentIndex  decimal.Decimal
	Month         int
	Year          int
	ReadingDate   time.Time
	Comment       string
}

// UpdateReadingInput contains the editable fields of an unbilled reading
type UpdateReadingInput struct {
	ActorID       uuid.UUID
	ReadingID     uuid.UUID
	PreviousIndex decimal.Decimal
	CurrentIndex  decimal.Decimal
	Comment       *string
}

// ListReadingsInput contains the filter options for listing readings
type ListReadingsInput struct {
	ActorID  uuid.UUID
	Month    *int
	Year     *int
	Billed   *bool
	Page     int
	PageSize int
}

// ReadingInfo is the reading view returned to clients
type ReadingInfo struct {
	ID            uuid.UUID
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
	CreatedAt     time.Time
}

// NewReadingInfo maps a domain reading to its client view
func NewReadingInfo(c *domain.Consumption) ReadingInfo {
	return ReadingInfo{
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
		CreatedAt:     c.CreatedAt,
	}
}

// RecordReadingResult reports the stored reading and whether it was
// flagged as anomalous
type RecordReadingResult struct {
	Reading   ReadingInfo
	Anomalous bool
}

// ReadingList is a paginated list of readings
type ReadingList struct {
	Readings []ReadingInfo
	Total    int64
	Page     int
	PageSize int
}

func toReadingInfos(readings []*domain.Consumption) []ReadingInfo {
	infos := make([]ReadingInfo, len(readings))
	for i, c := range readings {
		infos[i] = NewReadingInfo(c)
	}
	return infos
}
