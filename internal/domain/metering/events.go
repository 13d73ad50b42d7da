package metering

import (
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the metering domain
const (
	EventConsumptionRecorded = "metering.consumption.recorded"
	EventConsumptionAnomaly  = "metering.consumption.anomaly"
)

// ConsumptionRecordedEvent is raised when a reading is recorded
type ConsumptionRecordedEvent struct {
	shared.BaseDomainEvent
	ResidentID uuid.UUID       `json:"resident_id"`
	HouseID    uuid.UUID       `json:"house_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Kwh        decimal.Decimal `json:"kwh"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewConsumptionRecordedEvent creates a new consumption recorded event
func NewConsumptionRecordedEvent(c *Consumption) *ConsumptionRecordedEvent {
	return &ConsumptionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventConsumptionRecorded, "Consumption", c.ID),
		ResidentID:      c.ResidentID,
		HouseID:         c.HouseID,
		Month:           c.Month,
		Year:            c.Year,
		Kwh:             c.KwhConsumed,
		Amount:          c.Amount,
	}
}

// ConsumptionAnomalyEvent is raised when a reading deviates sharply
// from the resident's recent history
type ConsumptionAnomalyEvent struct {
	shared.BaseDomainEvent
	ResidentID uuid.UUID       `json:"resident_id"`
	HouseID    uuid.UUID       `json:"house_id"`
	Kwh        decimal.Decimal `json:"kwh"`
}

// NewConsumptionAnomalyEvent creates a new anomaly event
func NewConsumptionAnomalyEvent(c *Consumption) *ConsumptionAnomalyEvent {
	return &ConsumptionAnomalyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventConsumptionAnomaly, "Consumption", c.ID),
		ResidentID:      c.ResidentID,
		HouseID:         c.HouseID,
		Kwh:             c.KwhConsumed,
	}
}
