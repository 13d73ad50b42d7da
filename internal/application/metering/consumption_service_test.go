package metering

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecopower/backend/internal/domain/housing"
	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/messaging"
	domain "github.com/ecopower/backend/internal/domain/metering"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/metrics"
	"github.com/ecopower/backend/internal/infrastructure/notify"
	"github.com/ecopower/backend/internal/infrastructure/persistence"
)

type testEnv struct {
	service       *ConsumptionService
	users         identity.UserRepository
	houses        housing.HouseRepository
	readings      domain.ConsumptionRepository
	notifications messaging.NotificationRepository

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
		&persistence.NotificationModel{},
		&persistence.AuditLogModel{},
	))

	users := persistence.NewGormUserRepository(db)
	houses := persistence.NewGormHouseRepository(db)
	readings := persistence.NewGormConsumptionRepository(db)
	notifications := persistence.NewGormNotificationRepository(db)
	auditLog := persistence.NewGormAuditLogRepository(db)

	logger := zap.NewNop()
	sim := notify.NewSimulator(logger)
	dispatcher := notify.NewDispatcher(sim, sim, sim, auditLog, logger)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	authorizer := identity.NewAuthorizationService(users, houses)

	ctx := context.Background()
	owner, err := identity.NewOwner("Oscar", "Wells", "oscar@example.com", "", "owner-password")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, owner))

	house, err := housing.NewHouse(owner.ID, "Casa Sol", "3 Main Rd", "Yaounde", "MTR-1",
		decimal.NewFromFloat(0.25))
	require.NoError(t, err)
	require.NoError(t, houses.Create(ctx, house))

	resident, err := identity.NewResident(owner.ID, house.ID, "Rene", "Kam", "rene@example.com", "", "temp-password-1")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, resident))

	service := NewConsumptionService(readings, houses, users, authorizer, dispatcher,
		notifications, collector, decimal.NewFromFloat(0.1740), logger)

	return &testEnv{
		service:       service,
		users:         users,
		houses:        houses,
		readings:      readings,
		notifications: notifications,
		owner:         owner,
		house:         house,
		resident:      resident,
	}
}

func (e *testEnv) recordInput(prev, curr float64, month int) RecordReadingInput {
	return RecordReadingInput{
		ActorID:       e.owner.ID,
		ResidentID:    e.resident.ID,
		HouseID:       e.house.ID,
		PreviousIndex: decimal.NewFromFloat(prev),
		CurrentIndex:  decimal.NewFromFloat(curr),
		Month:         month,
		Year:          2025,
		ReadingDate:   time.Date(2025, time.Month(month), 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestConsumptionService_Record(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("freezes the house tariff on the reading", func(t *testing.T) {
		result, err := env.service.Record(ctx, env.recordInput(100, 220, 1))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(0.25).Equal(result.Reading.TariffKwh))
		assert.True(t, decimal.NewFromFloat(120).Equal(result.Reading.KwhConsumed))
		assert.True(t, decimal.NewFromFloat(30).Equal(result.Reading.Amount))
		assert.False(t, result.Anomalous)
	})

	t.Run("enforces the per-period quota", func(t *testing.T) {
		_, err := env.service.Record(ctx, env.recordInput(220, 330, 2))
		require.NoError(t, err)
		_, err = env.service.Record(ctx, env.recordInput(330, 440, 2))
		require.NoError(t, err)

		_, err = env.service.Record(ctx, env.recordInput(440, 550, 2))
		assert.Equal(t, shared.ErrQuotaExceeded, err)
	})

	t.Run("resident records their own reading", func(t *testing.T) {
		input := env.recordInput(550, 660, 3)
		input.ActorID = env.resident.ID
		result, err := env.service.Record(ctx, input)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(110).Equal(result.Reading.KwhConsumed))
	})

	t.Run("resident cannot record for a neighbour", func(t *testing.T) {
		neighbour, err := identity.NewResident(env.owner.ID, env.house.ID, "Nina", "Voss",
			"nina@example.com", "", "temp-password-3")
		require.NoError(t, err)
		require.NoError(t, env.users.Create(ctx, neighbour))

		input := env.recordInput(0, 50, 4)
		input.ActorID = env.resident.ID
		input.ResidentID = neighbour.ID
		_, err = env.service.Record(ctx, input)
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("rejects a resident outside the house", func(t *testing.T) {
		stranger, err := identity.NewResident(env.owner.ID, env.house.ID, "Sim", "Stray",
			"sim@example.com", "", "temp-password-2")
		require.NoError(t, err)
		otherHouse := uuid.New()
		stranger.HouseID = &otherHouse
		require.NoError(t, env.users.Create(ctx, stranger))

		input := env.recordInput(0, 10, 3)
		input.ResidentID = stranger.ID
		_, err = env.service.Record(ctx, input)
		require.Error(t, err)
		derr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "RESIDENT_HOUSE_MISMATCH", derr.Code)
	})
}

func TestConsumptionService_AnomalyDetection(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	// Three months of steady usage around 100 kWh
	for month := 1; month <= 3; month++ {
		base := float64(month-1) * 100
		_, err := env.service.Record(ctx, env.recordInput(base, base+100, month))
		require.NoError(t, err)
	}

	result, err := env.service.Record(ctx, env.recordInput(300, 600, 4))
	require.NoError(t, err)
	assert.True(t, result.Anomalous)

	// The owner gets an in-app anomaly alert
	notifications, _, err := env.notifications.FindByRecipient(ctx, env.owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, messaging.KindAnomaly, notifications[0].Kind)
}

func TestConsumptionService_Update(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	recorded, err := env.service.Record(ctx, env.recordInput(0, 100, 1))
	require.NoError(t, err)

	t.Run("recomputes amount from new indices", func(t *testing.T) {
		updated, err := env.service.Update(ctx, UpdateReadingInput{
			ActorID:       env.owner.ID,
			ReadingID:     recorded.Reading.ID,
			PreviousIndex: decimal.NewFromInt(0),
			CurrentIndex:  decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(200).Equal(updated.KwhConsumed))
		assert.True(t, decimal.NewFromInt(50).Equal(updated.Amount))
	})

	t.Run("refuses updates on a billed reading", func(t *testing.T) {
		reading, err := env.readings.FindByID(ctx, recorded.Reading.ID)
		require.NoError(t, err)
		require.NoError(t, reading.MarkBilled())
		require.NoError(t, env.readings.Update(ctx, reading))

		_, err = env.service.Update(ctx, UpdateReadingInput{
			ActorID:       env.owner.ID,
			ReadingID:     recorded.Reading.ID,
			PreviousIndex: decimal.NewFromInt(0),
			CurrentIndex:  decimal.NewFromInt(300),
		})
		require.Error(t, err)
		derr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "ALREADY_BILLED", derr.Code)

		err = env.service.Delete(ctx, env.owner.ID, recorded.Reading.ID)
		require.Error(t, err)
	})
}

func TestConsumptionService_ListAndStats(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for month := 1; month <= 3; month++ {
		base := float64(month-1) * 100
		_, err := env.service.Record(ctx, env.recordInput(base, base+100, month))
		require.NoError(t, err)
	}

	t.Run("resident sees own readings", func(t *testing.T) {
		list, err := env.service.ListByResident(ctx, env.resident.ID, ListReadingsInput{
			ActorID: env.resident.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), list.Total)
	})

	t.Run("stats aggregate kwh and amount", func(t *testing.T) {
		stats, err := env.service.StatsByHouse(ctx, env.owner.ID, env.house.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.Count)
		assert.True(t, decimal.NewFromInt(300).Equal(stats.TotalKwh))
	})
}
