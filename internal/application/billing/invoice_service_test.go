package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	domain "github.com/ecopower/backend/internal/domain/billing"
	"github.com/ecopower/backend/internal/domain/housing"
	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/metering"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/metrics"
	"github.com/ecopower/backend/internal/infrastructure/notify"
	"github.com/ecopower/backend/internal/infrastructure/persistence"
)

type testEnv struct {
	db       *gorm.DB
	service  *InvoiceService
	invoices domain.InvoiceRepository
	readings metering.ConsumptionRepository
	houses   housing.HouseRepository

	owner    *identity.User
	house    *housing.House
	resident *identity.User
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&persistence.UserModel{},
		&persistence.HouseModel{},
		&persistence.ConsumptionModel{},
		&persistence.InvoiceModel{},
		&persistence.SequenceModel{},
		&persistence.NotificationModel{},
		&persistence.AuditLogModel{},
	))

	users := persistence.NewGormUserRepository(db)
	houses := persistence.NewGormHouseRepository(db)
	readings := persistence.NewGormConsumptionRepository(db)
	invoices := persistence.NewGormInvoiceRepository(db)
	sequence := persistence.NewGormSequenceAllocator(db)
	notifications := persistence.NewGormNotificationRepository(db)
	auditLog := persistence.NewGormAuditLogRepository(db)

	logger := zap.NewNop()
	sim := notify.NewSimulator(logger)
	dispatcher := notify.NewDispatcher(sim, sim, sim, auditLog, logger)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	authorizer := identity.NewAuthorizationService(users, houses)

	ctx := context.Background()
	owner, err := identity.NewOwner("Olive", "Mbang", "olive@example.com", "", "owner-password")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, owner))

	house, err := housing.NewHouse(owner.ID, "Villa Mer", "8 Shore Dr", "Kribi", "MTR-9",
		decimal.NewFromFloat(0.2))
	require.NoError(t, err)
	require.NoError(t, houses.Create(ctx, house))

	resident, err := identity.NewResident(owner.ID, house.ID, "Tina", "Fouda", "tina@example.com", "", "temp-password-1")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, resident))

	service := NewInvoiceService(invoices, sequence, readings, houses, users, authorizer,
		dispatcher, notifications, collector,
		decimal.NewFromFloat(0.1740), decimal.NewFromFloat(2.5), logger)

	return &testEnv{
		db:       db,
		service:  service,
		invoices: invoices,
		readings: readings,
		houses:   houses,
		owner:    owner,
		house:    house,
		resident: resident,
	}
}

func (e *testEnv) seedReading(t *testing.T, month int, kwh int64) *metering.Consumption {
	t.Helper()
	base := decimal.NewFromInt(int64(month) * 1000)
	reading, err := metering.NewConsumption(e.resident.ID, e.house.ID,
		base, base.Add(decimal.NewFromInt(kwh)), month, 2025,
		time.Date(2025, time.Month(month), 10, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(0.2), "")
	require.NoError(t, err)
	require.NoError(t, e.readings.CreateWithinQuota(context.Background(), reading))
	return reading
}

func TestInvoiceService_Generate(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.seedReading(t, 1, 150)

	t.Run("issues a numbered invoice and flips the reading", func(t *testing.T) {
		info, err := env.service.Generate(ctx, GenerateInvoiceInput{
			ActorID:    env.owner.ID,
			ResidentID: env.resident.ID,
			Month:      1,
			Year:       2025,
		})
		require.NoError(t, err)
		assert.Equal(t, "FAC-000001", info.Number)
		assert.Equal(t, string(domain.InvoiceStatusPending), info.Status)
		// 150 kWh at the house tariff of 0.2 plus 2.5 fixed fees
		assert.True(t, decimal.NewFromFloat(32.5).Equal(info.AmountTotal))

		reading, err := env.readings.FindByID(ctx, info.ConsumptionID)
		require.NoError(t, err)
		assert.True(t, reading.Billed)
	})

	t.Run("second generation reports the existing number", func(t *testing.T) {
		_, err := env.service.Generate(ctx, GenerateInvoiceInput{
			ActorID:    env.owner.ID,
			ResidentID: env.resident.ID,
			Month:      1,
			Year:       2025,
		})
		require.Error(t, err)
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, shared.ErrAlreadyExists.Code, derr.Code)
		assert.Equal(t, "FAC-000001", derr.Details["invoice_number"])
	})

	t.Run("reprices with the current house tariff", func(t *testing.T) {
		env.seedReading(t, 2, 100)

		// The owner raises the tariff after the reading was recorded
		house, err := env.houses.FindByID(ctx, env.house.ID)
		require.NoError(t, err)
		require.NoError(t, house.SetTariff(decimal.NewFromFloat(0.3)))
		require.NoError(t, env.houses.Update(ctx, house))

		info, err := env.service.Generate(ctx, GenerateInvoiceInput{
			ActorID:    env.owner.ID,
			ResidentID: env.resident.ID,
			Month:      2,
			Year:       2025,
		})
		require.NoError(t, err)
		assert.Equal(t, "FAC-000002", info.Number)
		assert.True(t, decimal.NewFromFloat(0.3).Equal(info.TariffKwh))
		assert.True(t, decimal.NewFromFloat(32.5).Equal(info.AmountTotal))
	})

	t.Run("no reading for the period", func(t *testing.T) {
		_, err := env.service.Generate(ctx, GenerateInvoiceInput{
			ActorID:    env.owner.ID,
			ResidentID: env.resident.ID,
			Month:      9,
			Year:       2025,
		})
		require.Error(t, err)
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "NO_READING", derr.Code)
	})

	t.Run("resident cannot generate invoices", func(t *testing.T) {
		_, err := env.service.Generate(ctx, GenerateInvoiceInput{
			ActorID:    env.resident.ID,
			ResidentID: env.resident.ID,
			Month:      1,
			Year:       2025,
		})
		assert.Equal(t, shared.ErrForbidden, err)
	})
}

func TestInvoiceService_MarkPaid(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.seedReading(t, 1, 100)

	info, err := env.service.Generate(ctx, GenerateInvoiceInput{
		ActorID:    env.owner.ID,
		ResidentID: env.resident.ID,
		Month:      1,
		Year:       2025,
	})
	require.NoError(t, err)

	paid, err := env.service.MarkPaid(ctx, env.owner.ID, info.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.InvoiceStatusPaid), paid.Status)
	require.NotNil(t, paid.PaidAt)

	t.Run("paying twice is refused", func(t *testing.T) {
		_, err := env.service.MarkPaid(ctx, env.owner.ID, info.ID)
		require.Error(t, err)
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "ALREADY_PAID", derr.Code)
	})
}

func TestInvoiceService_SweepOverdue(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.seedReading(t, 1, 100)

	info, err := env.service.Generate(ctx, GenerateInvoiceInput{
		ActorID:    env.owner.ID,
		ResidentID: env.resident.ID,
		Month:      1,
		Year:       2025,
	})
	require.NoError(t, err)

	t.Run("ignores invoices still within the payment term", func(t *testing.T) {
		flagged, err := env.service.SweepOverdue(ctx)
		require.NoError(t, err)
		assert.Zero(t, flagged)
	})

	t.Run("flags invoices past the due date", func(t *testing.T) {
		pastDue := time.Now().AddDate(0, 0, -1)
		err := env.db.Model(&persistence.InvoiceModel{}).
			Where("id = ?", info.ID.String()).
			Update("due_date", pastDue).Error
		require.NoError(t, err)

		flagged, err := env.service.SweepOverdue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, flagged)

		stored, err := env.invoices.FindByID(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusOverdue, stored.Status)
	})
}

func TestInvoiceService_ListAndStats(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for month := 1; month <= 3; month++ {
		env.seedReading(t, month, 100)
		_, err := env.service.Generate(ctx, GenerateInvoiceInput{
			ActorID:    env.owner.ID,
			ResidentID: env.resident.ID,
			Month:      month,
			Year:       2025,
		})
		require.NoError(t, err)
	}

	t.Run("resident lists own invoices", func(t *testing.T) {
		list, err := env.service.ListByResident(ctx, env.resident.ID, ListInvoicesInput{
			ActorID: env.resident.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), list.Total)
	})

	t.Run("resident stats count pending amounts", func(t *testing.T) {
		stats, err := env.service.StatsByResident(ctx, env.resident.ID, env.resident.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.Count)
		assert.Equal(t, int64(3), stats.Pending)
		assert.True(t, stats.TotalOutstanding.Equal(stats.TotalBilled))
	})
}
