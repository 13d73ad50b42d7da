package housing

import (
	"strings"
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// House is the aggregate root for a dwelling managed by an owner. The
// tariff stored here prices future consumption; changing it never
// reprices already issued invoices.
type House struct {
	shared.BaseAggregateRoot
	OwnerID     uuid.UUID
	Name        string
	Address     string
	City        string
	MeterNumber string
	TariffKwh   decimal.Decimal
	Occupied    bool
}

// NewHouse creates a new house for an owner
func NewHouse(ownerID uuid.UUID, name, address, city, meterNumber string, tariffKwh decimal.Decimal) (*House, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "House must belong to an owner")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "House name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "House name cannot exceed 200 characters")
	}
	if strings.TrimSpace(address) == "" {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "House address cannot be empty")
	}
	if tariffKwh.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TARIFF", "Tariff cannot be negative")
	}

	house := &House{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Name:              name,
		Address:           strings.TrimSpace(address),
		City:              strings.TrimSpace(city),
		MeterNumber:       strings.TrimSpace(meterNumber),
		TariffKwh:         tariffKwh,
	}

	house.AddDomainEvent(NewHouseCreatedEvent(house))

	return house, nil
}

// HasTariff reports whether the house carries its own tariff. A zero
// tariff means the platform default applies at billing time.
func (h *House) HasTariff() bool {
	return h.TariffKwh.IsPositive()
}

// EffectiveTariff returns the house tariff, or the given default when
// the house has none
func (h *House) EffectiveTariff(defaultTariff decimal.Decimal) decimal.Decimal {
	if h.HasTariff() {
		return h.TariffKwh
	}
	return defaultTariff
}

// SetTariff updates the price per kWh used for future billing
func (h *House) SetTariff(tariff decimal.Decimal) error {
	if tariff.IsNegative() {
		return shared.NewDomainError("INVALID_TARIFF", "Tariff cannot be negative")
	}
	old := h.TariffKwh
	h.TariffKwh = tariff
	h.UpdatedAt = time.Now()
	h.IncrementVersion()

	h.AddDomainEvent(NewHouseTariffChangedEvent(h, old, tariff))

	return nil
}

// UpdateDetails updates the descriptive fields of the house
func (h *House) UpdateDetails(name, address, city, meterNumber string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "House name cannot be empty")
	}
	if strings.TrimSpace(address) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "House address cannot be empty")
	}

	h.Name = name
	h.Address = strings.TrimSpace(address)
	h.City = strings.TrimSpace(city)
	h.MeterNumber = strings.TrimSpace(meterNumber)
	h.UpdatedAt = time.Now()
	h.IncrementVersion()

	return nil
}

// MarkOccupied flags the house as having at least one resident
func (h *House) MarkOccupied(occupied bool) {
	h.Occupied = occupied
	h.UpdatedAt = time.Now()
	h.IncrementVersion()
}
