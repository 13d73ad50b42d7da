package admin

import (
	"context"
	"testing"

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
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/metrics"
	"github.com/ecopower/backend/internal/infrastructure/notify"
	"github.com/ecopower/backend/internal/infrastructure/persistence"
	"github.com/ecopower/backend/internal/infrastructure/presence"
)

type testEnv struct {
	accounts      *AccountService
	stats         *StatsService
	broadcast     *BroadcastService
	users         identity.UserRepository
	houses        housing.HouseRepository
	notifications messaging.NotificationRepository
	registry      *presence.MemoryRegistry

	admin    *identity.User
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
		&persistence.MessageModel{},
		&persistence.NotificationModel{},
		&persistence.AuditLogModel{},
	))

	users := persistence.NewGormUserRepository(db)
	houses := persistence.NewGormHouseRepository(db)
	readings := persistence.NewGormConsumptionRepository(db)
	invoices := persistence.NewGormInvoiceRepository(db)
	notifications := persistence.NewGormNotificationRepository(db)
	auditLog := persistence.NewGormAuditLogRepository(db)
	purger := persistence.NewGormPurgeRepository(db)

	logger := zap.NewNop()
	sim := notify.NewSimulator(logger)
	dispatcher := notify.NewDispatcher(sim, sim, sim, auditLog, logger)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	registry := presence.NewMemoryRegistry()
	authorizer := identity.NewAuthorizationService(users, houses)

	ctx := context.Background()
	admin, err := identity.NewAdmin("Ada", "Root", "ada@example.com", "", "admin-password")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, admin))

	owner, err := identity.NewOwner("Omar", "Sy", "omar@example.com", "", "owner-password")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, owner))

	house, err := housing.NewHouse(owner.ID, "Loft 5", "5 High St", "Douala", "MTR-5",
		decimal.NewFromFloat(0.2))
	require.NoError(t, err)
	require.NoError(t, houses.Create(ctx, house))

	resident, err := identity.NewResident(owner.ID, house.ID, "Rosa", "Ndi", "rosa@example.com", "", "temp-password-1")
	require.NoError(t, err)
	resident.SetDeviceToken("rosa-device")
	require.NoError(t, users.Create(ctx, resident))

	return &testEnv{
		accounts:      NewAccountService(users, authorizer, purger, auditLog, logger),
		stats:         NewStatsService(users, houses, readings, invoices, registry, authorizer, logger),
		broadcast:     NewBroadcastService(users, authorizer, dispatcher, notifications, collector, logger),
		users:         users,
		houses:        houses,
		notifications: notifications,
		registry:      registry,
		admin:         admin,
		owner:         owner,
		house:         house,
		resident:      resident,
	}
}

func TestStatsService_Dashboard(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("owner is refused", func(t *testing.T) {
		_, err := env.stats.Dashboard(ctx, env.owner.ID)
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("counts accounts, houses and presence", func(t *testing.T) {
		require.NoError(t, env.registry.Connect(ctx, env.resident.ID))

		stats, err := env.stats.Dashboard(ctx, env.admin.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Owners)
		assert.Equal(t, int64(1), stats.Residents)
		assert.Equal(t, int64(1), stats.Houses)
		assert.Equal(t, int64(1), stats.OnlineUsers)
		assert.NotNil(t, stats.Invoices)
	})
}

func TestStatsService_Listings(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("owner is refused", func(t *testing.T) {
		_, _, err := env.stats.ListHouses(ctx, ListHousesInput{ActorID: env.owner.ID})
		assert.Equal(t, shared.ErrForbidden, err)
		_, _, err = env.stats.ListInvoices(ctx, ListInvoicesInput{ActorID: env.owner.ID})
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("admin sees houses of every owner", func(t *testing.T) {
		houses, total, err := env.stats.ListHouses(ctx, ListHousesInput{
			ActorID:  env.admin.ID,
			Page:     1,
			PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, houses, 1)
		assert.Equal(t, env.house.ID, houses[0].ID)
	})

	t.Run("keyword narrows the house listing", func(t *testing.T) {
		_, total, err := env.stats.ListHouses(ctx, ListHousesInput{
			ActorID:  env.admin.ID,
			Keyword:  "no-such-house",
			Page:     1,
			PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("invoice listing starts empty", func(t *testing.T) {
		invoices, total, err := env.stats.ListInvoices(ctx, ListInvoicesInput{
			ActorID:  env.admin.ID,
			Page:     1,
			PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, invoices)
	})
}

func TestAccountService_List(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("admin lists by role", func(t *testing.T) {
		role := string(identity.RoleResident)
		infos, total, err := env.accounts.List(ctx, ListUsersInput{
			ActorID: env.admin.ID,
			Role:    &role,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, infos, 1)
		assert.Equal(t, "resident", infos[0].Role)
	})

	t.Run("owner is refused", func(t *testing.T) {
		_, _, err := env.accounts.List(ctx, ListUsersInput{ActorID: env.owner.ID})
		assert.Equal(t, shared.ErrForbidden, err)
	})
}

func TestAccountService_Delete(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("the admin account is untouchable", func(t *testing.T) {
		err := env.accounts.Delete(ctx, env.admin.ID, env.admin.ID)
		assert.Equal(t, shared.ErrLastAdmin, err)
	})

	t.Run("owner is refused", func(t *testing.T) {
		err := env.accounts.Delete(ctx, env.owner.ID, env.resident.ID)
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("deleting an owner cascades to houses and residents", func(t *testing.T) {
		require.NoError(t, env.accounts.Delete(ctx, env.admin.ID, env.owner.ID))

		_, err := env.users.FindByID(ctx, env.owner.ID)
		assert.Equal(t, shared.ErrNotFound, err)
		_, err = env.users.FindByID(ctx, env.resident.ID)
		assert.Equal(t, shared.ErrNotFound, err)
		_, err = env.houses.FindByID(ctx, env.house.ID)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestAccountService_Suspension(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	require.NoError(t, env.accounts.Deactivate(ctx, env.admin.ID, env.owner.ID))
	stored, err := env.users.FindByID(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	t.Run("suspended accounts cannot act", func(t *testing.T) {
		_, _, err := env.accounts.List(ctx, ListUsersInput{ActorID: env.owner.ID})
		assert.Equal(t, shared.ErrUnauthorized, err)
	})

	require.NoError(t, env.accounts.Reactivate(ctx, env.admin.ID, env.owner.ID))
	stored, err = env.users.FindByID(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
}

func TestBroadcastService_Broadcast(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("owner is refused", func(t *testing.T) {
		_, err := env.broadcast.Broadcast(ctx, BroadcastInput{
			ActorID: env.owner.ID,
			Title:   "Nope",
			Body:    "Not allowed",
		})
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("stores a notification per recipient", func(t *testing.T) {
		result, err := env.broadcast.Broadcast(ctx, BroadcastInput{
			ActorID: env.admin.ID,
			Title:   "Maintenance tonight",
			Body:    "The platform will restart at 02:00",
		})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Recipients)
		// Only the resident registered a device token
		assert.Equal(t, 1, result.Delivered)
		assert.Equal(t, 2, result.Skipped)

		list, _, err := env.notifications.FindByRecipient(ctx, env.resident.ID, 1, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, messaging.KindBroadcast, list[0].Kind)
	})

	t.Run("role filter narrows the fan-out", func(t *testing.T) {
		role := string(identity.RoleOwner)
		result, err := env.broadcast.Broadcast(ctx, BroadcastInput{
			ActorID: env.admin.ID,
			Title:   "Owners only",
			Body:    "Tariff review next month",
			Role:    &role,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Recipients)
	})
}

func TestBroadcastService_TestPush(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("admin without a device token is skipped", func(t *testing.T) {
		status, err := env.broadcast.TestPush(ctx, env.admin.ID)
		require.NoError(t, err)
		assert.Equal(t, string(messaging.DeliverySkipped), status)
	})

	t.Run("owner is refused", func(t *testing.T) {
		_, err := env.broadcast.TestPush(ctx, env.owner.ID)
		assert.Equal(t, shared.ErrForbidden, err)
	})
}
