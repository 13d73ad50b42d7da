package metering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecopower/backend/internal/domain/housing"
	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/messaging"
	domain "github.com/ecopower/backend/internal/domain/metering"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/metrics"
	"github.com/ecopower/backend/internal/infrastructure/notify"
)

// ConsumptionService handles meter readings
type ConsumptionService struct {
	readings      domain.ConsumptionRepository
	houses        housing.HouseRepository
	users         identity.UserRepository
	authorizer    identity.Authorizer
	dispatcher    *notify.Dispatcher
	notifications messaging.NotificationRepository
	collector     *metrics.Collector
	defaultTariff decimal.Decimal
	logger        *zap.Logger
}

// NewConsumptionService creates a new consumption service
func NewConsumptionService(
	readings domain.ConsumptionRepository,
	houses housing.HouseRepository,
	users identity.UserRepository,
	authorizer identity.Authorizer,
	dispatcher *notify.Dispatcher,
	notifications messaging.NotificationRepository,
	collector *metrics.Collector,
	defaultTariff decimal.Decimal,
	logger *zap.Logger,
) *ConsumptionService {
	return &ConsumptionService{
		readings:      readings,
		houses:        houses,
		users:         users,
		authorizer:    authorizer,
		dispatcher:    dispatcher,
		notifications: notifications,
		collector:     collector,
		defaultTariff: defaultTariff,
		logger:        logger,
	}
}

// Record stores a meter reading. The tariff is read from the house at
// recording time and frozen on the reading; the per-period quota is
// enforced atomically by the repository.
func (s *ConsumptionService) Record(ctx context.Context, input RecordReadingInput) (*RecordReadingResult, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanRecordReading(ctx, input.ResidentID)); err != nil {
		return nil, err
	}

	resident, err := s.users.FindByID(ctx, input.ResidentID)
	if err != nil {
		return nil, err
	}
	if resident.HouseID == nil || *resident.HouseID != input.HouseID {
		return nil, shared.NewDomainError("RESIDENT_HOUSE_MISMATCH", "Resident does not occupy this house")
	}

	house, err := s.houses.FindByID(ctx, input.HouseID)
	if err != nil {
		return nil, err
	}
	tariff := house.EffectiveTariff(s.defaultTariff)

	// History is captured before the insert so the new reading never
	// skews its own baseline
	history, err := s.readings.FindRecentByResident(ctx, input.ResidentID, 3)
	if err != nil {
		return nil, err
	}

	reading, err := domain.NewConsumption(input.ResidentID, input.HouseID,
		input.PreviousIndex, input.CurrentIndex, input.Month, input.Year,
		input.ReadingDate, tariff, input.Comment)
	if err != nil {
		return nil, err
	}

	if err := s.readings.CreateWithinQuota(ctx, reading); err != nil {
		if err == shared.ErrQuotaExceeded {
			s.collector.RecordQuotaRejection()
			s.logger.Warn("reading quota exhausted",
				zap.String("resident_id", input.ResidentID.String()),
				zap.Int("month", input.Month),
				zap.Int("year", input.Year),
			)
		}
		return nil, err
	}
	s.collector.RecordReading()

	anomalous := domain.DetectAnomaly(history, reading.KwhConsumed)
	if anomalous {
		s.collector.RecordAnomaly()
		s.flagAnomaly(ctx, house, resident, reading)
	}

	s.logger.Info("reading recorded",
		zap.String("reading_id", reading.ID.String()),
		zap.String("resident_id", input.ResidentID.String()),
		zap.String("kwh", reading.KwhConsumed.String()),
		zap.Bool("anomalous", anomalous),
	)

	return &RecordReadingResult{
		Reading:   NewReadingInfo(reading),
		Anomalous: anomalous,
	}, nil
}

// flagAnomaly notifies the house owner of an out-of-pattern reading.
// Notification failures never fail the recording.
func (s *ConsumptionService) flagAnomaly(ctx context.Context, house *housing.House, resident *identity.User, reading *domain.Consumption) {
	title := "Unusual consumption detected"
	body := fmt.Sprintf("Reading of %s kWh for %s %s at %s deviates strongly from recent usage.",
		reading.KwhConsumed.StringFixed(2), resident.FirstName, resident.LastName, house.Name)

	n, err := messaging.NewNotification(house.OwnerID, messaging.KindAnomaly, title, body)
	if err != nil {
		return
	}

	owner, err := s.users.FindByID(ctx, house.OwnerID)
	if err == nil {
		status := s.dispatcher.Push(ctx, owner, title, body, map[string]string{
			"kind":       string(messaging.KindAnomaly),
			"reading_id": reading.ID.String(),
		})
		n.RecordDelivery(status)
		s.collector.RecordPushDelivery(string(status))
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Error("anomaly notification failed", zap.Error(err))
	}
}

// Get returns one reading
func (s *ConsumptionService) Get(ctx context.Context, actorID, readingID uuid.UUID) (*ReadingInfo, error) {
	reading, err := s.readings.FindByID(ctx, readingID)
	if err != nil {
		return nil, err
	}

	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewResident(ctx, reading.ResidentID)); err != nil {
		return nil, err
	}

	info := NewReadingInfo(reading)
	return &info, nil
}

// ListByResident returns a resident's readings
func (s *ConsumptionService) ListByResident(ctx context.Context, residentID uuid.UUID, input ListReadingsInput) (*ReadingList, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewResident(ctx, residentID)); err != nil {
		return nil, err
	}

	filter := buildFilter(input)
	readings, total, err := s.readings.FindByResident(ctx, residentID, filter)
	if err != nil {
		return nil, err
	}
	return &ReadingList{
		Readings: toReadingInfos(readings),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.Limit(),
	}, nil
}

// ListByHouse returns a house's readings
func (s *ConsumptionService) ListByHouse(ctx context.Context, houseID uuid.UUID, input ListReadingsInput) (*ReadingList, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewHouse(ctx, houseID)); err != nil {
		return nil, err
	}

	filter := buildFilter(input)
	readings, total, err := s.readings.FindByHouse(ctx, houseID, filter)
	if err != nil {
		return nil, err
	}
	return &ReadingList{
		Readings: toReadingInfos(readings),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.Limit(),
	}, nil
}

// Update edits an unbilled reading's indices or comment
func (s *ConsumptionService) Update(ctx context.Context, input UpdateReadingInput) (*ReadingInfo, error) {
	reading, err := s.readings.FindByID(ctx, input.ReadingID)
	if err != nil {
		return nil, err
	}

	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanManageResident(ctx, reading.ResidentID)); err != nil {
		return nil, err
	}

	if err := reading.UpdateIndices(input.PreviousIndex, input.CurrentIndex); err != nil {
		return nil, err
	}
	if input.Comment != nil {
		if err := reading.SetComment(*input.Comment); err != nil {
			return nil, err
		}
	}
	if err := s.readings.Update(ctx, reading); err != nil {
		return nil, err
	}

	info := NewReadingInfo(reading)
	return &info, nil
}

// Delete removes an unbilled reading
func (s *ConsumptionService) Delete(ctx context.Context, actorID, readingID uuid.UUID) error {
	reading, err := s.readings.FindByID(ctx, readingID)
	if err != nil {
		return err
	}

	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return err
	}
	if err := identity.Require(caps.CanManageResident(ctx, reading.ResidentID)); err != nil {
		return err
	}

	if !reading.CanDelete() {
		return shared.NewDomainError("ALREADY_BILLED", "A billed reading cannot be deleted")
	}
	return s.readings.Delete(ctx, readingID)
}

// StatsByResident aggregates a resident's readings
func (s *ConsumptionService) StatsByResident(ctx context.Context, actorID, residentID uuid.UUID) (*domain.ConsumptionStats, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewResident(ctx, residentID)); err != nil {
		return nil, err
	}
	return s.readings.StatsByResident(ctx, residentID)
}

// StatsByHouse aggregates a house's readings
func (s *ConsumptionService) StatsByHouse(ctx context.Context, actorID, houseID uuid.UUID) (*domain.ConsumptionStats, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewHouse(ctx, houseID)); err != nil {
		return nil, err
	}
	return s.readings.StatsByHouse(ctx, houseID)
}

func buildFilter(input ListReadingsInput) domain.ConsumptionFilter {
	filter := domain.NewConsumptionFilter().WithPagination(input.Page, input.PageSize)
	if input.Month != nil && input.Year != nil {
		filter = filter.WithPeriod(*input.Month, *input.Year)
	}
	if input.Billed != nil {
		filter = filter.WithBilled(*input.Billed)
	}
	return filter
}
