package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	billingapp "github.com/ecopower/backend/internal/application/billing"
	housingapp "github.com/ecopower/backend/internal/application/housing"
	"github.com/ecopower/backend/internal/domain/billing"
	"github.com/ecopower/backend/internal/domain/housing"
	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/metering"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/presence"
)

// StatsService assembles the platform dashboard
type StatsService struct {
	users      identity.UserRepository
	houses     housing.HouseRepository
	readings   metering.ConsumptionRepository
	invoices   billing.InvoiceRepository
	registry   presence.Registry
	authorizer identity.Authorizer
	logger     *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	users identity.UserRepository,
	houses housing.HouseRepository,
	readings metering.ConsumptionRepository,
	invoices billing.InvoiceRepository,
	registry presence.Registry,
	authorizer identity.Authorizer,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		users:      users,
		houses:     houses,
		readings:   readings,
		invoices:   invoices,
		registry:   registry,
		authorizer: authorizer,
		logger:     logger,
	}
}

// Dashboard returns the platform-wide overview. Admin only.
func (s *StatsService) Dashboard(ctx context.Context, actorID uuid.UUID) (*DashboardStats, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !caps.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	owners, err := s.users.CountByRole(ctx, identity.RoleOwner)
	if err != nil {
		return nil, err
	}
	residents, err := s.users.CountByRole(ctx, identity.RoleResident)
	if err != nil {
		return nil, err
	}
	houses, err := s.houses.Count(ctx)
	if err != nil {
		return nil, err
	}
	readings, err := s.readings.Count(ctx)
	if err != nil {
		return nil, err
	}
	invoiceStats, err := s.invoices.Stats(ctx)
	if err != nil {
		return nil, err
	}

	// Presence is best effort: a broken registry degrades the counter,
	// not the dashboard
	online, err := s.registry.OnlineCount(ctx)
	if err != nil {
		s.logger.Warn("presence count failed", zap.Error(err))
		online = 0
	}

	return &DashboardStats{
		Owners:      owners,
		Residents:   residents,
		Houses:      houses,
		Readings:    readings,
		Invoices:    invoiceStats,
		OnlineUsers: online,
		GeneratedAt: time.Now(),
	}, nil
}

// ListHouses returns houses across all owners. Admin only.
func (s *StatsService) ListHouses(ctx context.Context, input ListHousesInput) ([]housingapp.HouseInfo, int64, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, 0, err
	}
	if !caps.IsAdmin() {
		return nil, 0, shared.ErrForbidden
	}

	filter := housing.NewHouseFilter().
		WithKeyword(input.Keyword).
		WithPagination(input.Page, input.PageSize)
	houses, total, err := s.houses.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]housingapp.HouseInfo, len(houses))
	for i, h := range houses {
		infos[i] = housingapp.NewHouseInfo(h)
	}
	return infos, total, nil
}

// ListInvoices returns invoices across all residents. Admin only.
func (s *StatsService) ListInvoices(ctx context.Context, input ListInvoicesInput) ([]billingapp.InvoiceInfo, int64, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, 0, err
	}
	if !caps.IsAdmin() {
		return nil, 0, shared.ErrForbidden
	}

	filter := billing.NewInvoiceFilter().WithPagination(input.Page, input.PageSize)
	if input.Status != nil {
		filter = filter.WithStatus(billing.InvoiceStatus(*input.Status))
	}
	if input.Month != nil && input.Year != nil {
		filter = filter.WithPeriod(*input.Month, *input.Year)
	}

	invoices, total, err := s.invoices.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]billingapp.InvoiceInfo, len(invoices))
	for i, inv := range invoices {
		infos[i] = billingapp.NewInvoiceInfo(inv)
	}
	return infos, total, nil
}
