package housing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/ecopower/backend/internal/domain/housing"
)

// CreateHouseInput contains the input for registering a house
type CreateHouseInput struct {
	ActorID     uuid.UUID
	Name        string
	Address     string
	City        string
	MeterNumber string
	TariffKwh   decimal.Decimal
}

// UpdateHouseInput contains the editable house fields
type UpdateHouseInput struct {
	ActorID     uuid.UUID
	HouseID     uuid.UUID
	Name        string
	Address     string
	City        string
	MeterNumber string
}

// SetTariffInput contains the input for a tariff change
type SetTariffInput struct {
	ActorID   uuid.UUID
	HouseID   uuid.UUID
	TariffKwh decimal.Decimal
}

// ListHousesInput contains the filter options for listing houses
type ListHousesInput struct {
	ActorID  uuid.UUID
	Keyword  string
	Occupied *bool
	Page     int
	PageSize int
}

// HouseInfo is the house view returned to clients
type HouseInfo struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Address     string
	City        string
	MeterNumber string
	TariffKwh   decimal.Decimal
	HasTariff   bool
	Occupied    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewHouseInfo maps a domain house to its client view
func NewHouseInfo(h *domain.House) HouseInfo {
	return HouseInfo{
		ID:          h.ID,
		OwnerID:     h.OwnerID,
		Name:        h.Name,
		Address:     h.Address,
		City:        h.City,
		MeterNumber: h.MeterNumber,
		TariffKwh:   h.TariffKwh,
		HasTariff:   h.HasTariff(),
		Occupied:    h.Occupied,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

// HouseList is a paginated list of houses
type HouseList struct {
	Houses   []HouseInfo
	Total    int64
	Page     int
	PageSize int
}
