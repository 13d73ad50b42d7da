package housing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/ecopower/backend/internal/domain/housing"
	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/shared"
)

// HousePurger removes a house with everything recorded against it.
// Residents of the house are detached, not deleted.
type HousePurger interface {
	PurgeHouse(ctx context.Context, houseID uuid.UUID) error
}

// HouseService handles house registration and management
type HouseService struct {
	houses     domain.HouseRepository
	authorizer identity.Authorizer
	purger     HousePurger
	logger     *zap.Logger
}

// NewHouseService creates a new house service
func NewHouseService(
	houses domain.HouseRepository,
	authorizer identity.Authorizer,
	purger HousePurger,
	logger *zap.Logger,
) *HouseService {
	return &HouseService{
		houses:     houses,
		authorizer: authorizer,
		purger:     purger,
		logger:     logger,
	}
}

// Create registers a house for the acting owner
func (s *HouseService) Create(ctx context.Context, input CreateHouseInput) (*HouseInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if !caps.Actor().IsOwner() {
		return nil, shared.ErrForbidden
	}

	house, err := domain.NewHouse(input.ActorID, input.Name, input.Address,
		input.City, input.MeterNumber, input.TariffKwh)
	if err != nil {
		return nil, err
	}

	if err := s.houses.Create(ctx, house); err != nil {
		return nil, err
	}

	s.logger.Info("house registered",
		zap.String("house_id", house.ID.String()),
		zap.String("owner_id", house.OwnerID.String()),
	)

	info := NewHouseInfo(house)
	return &info, nil
}

// Get returns one house
func (s *HouseService) Get(ctx context.Context, actorID, houseID uuid.UUID) (*HouseInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewHouse(ctx, houseID)); err != nil {
		return nil, err
	}

	house, err := s.houses.FindByID(ctx, houseID)
	if err != nil {
		return nil, err
	}
	info := NewHouseInfo(house)
	return &info, nil
}

// List returns the actor's houses. Admins see every house; owners see
// their own.
func (s *HouseService) List(ctx context.Context, input ListHousesInput) (*HouseList, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}

	filter := domain.NewHouseFilter().
		WithKeyword(input.Keyword).
		WithPagination(input.Page, input.PageSize)
	if input.Occupied != nil {
		filter = filter.WithOccupied(*input.Occupied)
	}

	switch {
	case caps.IsAdmin():
		// unrestricted
	case caps.Actor().IsOwner():
		filter = filter.WithOwner(input.ActorID)
	default:
		return nil, shared.ErrForbidden
	}

	houses, total, err := s.houses.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	infos := make([]HouseInfo, len(houses))
	for i, h := range houses {
		infos[i] = NewHouseInfo(h)
	}
	return &HouseList{
		Houses:   infos,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.Limit(),
	}, nil
}

// Update edits the descriptive fields of a house
func (s *HouseService) Update(ctx context.Context, input UpdateHouseInput) (*HouseInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanManageHouse(ctx, input.HouseID)); err != nil {
		return nil, err
	}

	house, err := s.houses.FindByID(ctx, input.HouseID)
	if err != nil {
		return nil, err
	}
	if err := house.UpdateDetails(input.Name, input.Address, input.City, input.MeterNumber); err != nil {
		return nil, err
	}
	if err := s.houses.Update(ctx, house); err != nil {
		return nil, err
	}

	info := NewHouseInfo(house)
	return &info, nil
}

// SetTariff changes the price per kWh applied to future readings.
// Already issued invoices keep the price they were billed at.
func (s *HouseService) SetTariff(ctx context.Context, input SetTariffInput) (*HouseInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanManageHouse(ctx, input.HouseID)); err != nil {
		return nil, err
	}

	house, err := s.houses.FindByID(ctx, input.HouseID)
	if err != nil {
		return nil, err
	}
	if err := house.SetTariff(input.TariffKwh); err != nil {
		return nil, err
	}
	if err := s.houses.Update(ctx, house); err != nil {
		return nil, err
	}

	s.logger.Info("tariff changed",
		zap.String("house_id", house.ID.String()),
		zap.String("tariff_kwh", input.TariffKwh.String()),
	)

	info := NewHouseInfo(house)
	return &info, nil
}

// Remove deletes a house and every record against it. Residents keep
// their accounts and lose the house assignment.
func (s *HouseService) Remove(ctx context.Context, actorID, houseID uuid.UUID) error {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return err
	}
	if err := identity.Require(caps.CanManageHouse(ctx, houseID)); err != nil {
		return err
	}

	if err := s.purger.PurgeHouse(ctx, houseID); err != nil {
		return err
	}

	s.logger.Info("house removed",
		zap.String("house_id", houseID.String()),
		zap.String("actor_id", actorID.String()),
	)
	return nil
}
