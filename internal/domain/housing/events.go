package housing

import (
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the housing domain
const (
	EventHouseCreated       = "housing.house.created"
	EventHouseTariffChanged = "housing.house.tariff_changed"
	EventHouseDeleted       = "housing.house.deleted"
)

// HouseCreatedEvent is raised when an owner registers a house
type HouseCreatedEvent struct {
	shared.BaseDomainEvent
	OwnerID uuid.UUID `json:"owner_id"`
	Name    string    `json:"name"`
}

// NewHouseCreatedEvent creates a new house created event
func NewHouseCreatedEvent(h *House) *HouseCreatedEvent {
	return &HouseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventHouseCreated, "House", h.ID),
		OwnerID:         h.OwnerID,
		Name:            h.Name,
	}
}

// HouseTariffChangedEvent is raised when the billing tariff changes
type HouseTariffChangedEvent struct {
	shared.BaseDomainEvent
	OldTariff decimal.Decimal `json:"old_tariff"`
	NewTariff decimal.Decimal `json:"new_tariff"`
}

// NewHouseTariffChangedEvent creates a new tariff changed event
func NewHouseTariffChangedEvent(h *House, oldTariff, newTariff decimal.Decimal) *HouseTariffChangedEvent {
	return &HouseTariffChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventHouseTariffChanged, "House", h.ID),
		OldTariff:       oldTariff,
		NewTariff:       newTariff,
	}
}

// HouseDeletedEvent is raised when a house is removed by a cascade
type HouseDeletedEvent struct {
	shared.BaseDomainEvent
	OwnerID uuid.UUID `json:"owner_id"`
}

// NewHouseDeletedEvent creates a new house deleted event
func NewHouseDeletedEvent(id, ownerID uuid.UUID) *HouseDeletedEvent {
	return &HouseDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventHouseDeleted, "House", id),
		OwnerID:         ownerID,
	}
}
