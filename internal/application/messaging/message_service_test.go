package messaging

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecopower/backend/internal/domain/housing"
	"github.com/ecopower/backend/internal/domain/identity"
	domain "github.com/ecopower/backend/internal/domain/messaging"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/notify"
	"github.com/ecopower/backend/internal/infrastructure/persistence"
	"github.com/ecopower/backend/internal/infrastructure/presence"
)

// countingPush records push attempts so tests can assert the
// offline-only delivery rule
type countingPush struct {
	sent int
}

func (f *countingPush) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	f.sent++
	return nil
}

type testEnv struct {
	service       *MessageService
	notifications *NotificationService
	registry      *presence.MemoryRegistry
	push          *countingPush
	users         identity.UserRepository
	store         domain.NotificationRepository

	owner    *identity.User
	house    *housing.House
	resident *identity.User
	admin    *identity.User
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
		&persistence.MessageModel{},
		&persistence.NotificationModel{},
		&persistence.AuditLogModel{},
	))

	users := persistence.NewGormUserRepository(db)
	houses := persistence.NewGormHouseRepository(db)
	messages := persistence.NewGormMessageRepository(db)
	notifications := persistence.NewGormNotificationRepository(db)
	auditLog := persistence.NewGormAuditLogRepository(db)

	logger := zap.NewNop()
	push := &countingPush{}
	sim := notify.NewSimulator(logger)
	dispatcher := notify.NewDispatcher(push, sim, sim, auditLog, logger)
	registry := presence.NewMemoryRegistry()
	authorizer := identity.NewAuthorizationService(users, houses)

	ctx := context.Background()
	owner, err := identity.NewOwner("Omar", "Sy", "omar@example.com", "", "owner-password")
	require.NoError(t, err)
	owner.SetDeviceToken("owner-device")
	require.NoError(t, users.Create(ctx, owner))

	house, err := housing.NewHouse(owner.ID, "Loft 5", "5 High St", "Douala", "MTR-5",
		decimal.NewFromFloat(0.2))
	require.NoError(t, err)
	require.NoError(t, houses.Create(ctx, house))

	resident, err := identity.NewResident(owner.ID, house.ID, "Rosa", "Ndi", "rosa@example.com", "", "temp-password-1")
	require.NoError(t, err)
	resident.SetDeviceToken("resident-device")
	require.NoError(t, users.Create(ctx, resident))

	admin, err := identity.NewAdmin("Ada", "Root", "ada@example.com", "", "admin-password")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, admin))

	return &testEnv{
		service:       NewMessageService(messages, users, authorizer, dispatcher, registry, logger),
		notifications: NewNotificationService(notifications, logger),
		registry:      registry,
		push:          push,
		users:         users,
		store:         notifications,
		owner:         owner,
		house:         house,
		resident:      resident,
		admin:         admin,
	}
}

func TestMessageService_Send(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("owner messages own resident with offline push", func(t *testing.T) {
		info, err := env.service.Send(ctx, SendMessageInput{
			ActorID:     env.owner.ID,
			RecipientID: env.resident.ID,
			Body:        "Reading day is tomorrow",
		})
		require.NoError(t, err)
		assert.Equal(t, env.owner.ID, info.SenderID)
		assert.Equal(t, 1, env.push.sent)
	})

	t.Run("no push while the recipient is connected", func(t *testing.T) {
		require.NoError(t, env.registry.Connect(ctx, env.resident.ID))
		defer func() { _ = env.registry.Disconnect(ctx, env.resident.ID) }()

		before := env.push.sent
		_, err := env.service.Send(ctx, SendMessageInput{
			ActorID:     env.owner.ID,
			RecipientID: env.resident.ID,
			Body:        "Still there?",
		})
		require.NoError(t, err)
		assert.Equal(t, before, env.push.sent)
	})

	t.Run("resident replies to the owner", func(t *testing.T) {
		_, err := env.service.Send(ctx, SendMessageInput{
			ActorID:     env.resident.ID,
			RecipientID: env.owner.ID,
			Body:        "Understood, thanks",
		})
		require.NoError(t, err)
	})

	t.Run("resident cannot message a foreign owner", func(t *testing.T) {
		other, err := identity.NewOwner("Olga", "Brecht", "olga@example.com", "", "owner-password")
		require.NoError(t, err)
		require.NoError(t, env.users.Create(ctx, other))

		_, err = env.service.Send(ctx, SendMessageInput{
			ActorID:     env.resident.ID,
			RecipientID: other.ID,
			Body:        "Hello stranger",
		})
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("anyone reaches the admin", func(t *testing.T) {
		_, err := env.service.Send(ctx, SendMessageInput{
			ActorID:     env.resident.ID,
			RecipientID: env.admin.ID,
			Body:        "I need help with my invoice",
		})
		require.NoError(t, err)
	})
}

func TestMessageService_Conversation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		_, err := env.service.Send(ctx, SendMessageInput{
			ActorID:     env.owner.ID,
			RecipientID: env.resident.ID,
			Body:        body,
		})
		require.NoError(t, err)
	}
	_, err := env.service.Send(ctx, SendMessageInput{
		ActorID:     env.resident.ID,
		RecipientID: env.owner.ID,
		Body:        "third",
	})
	require.NoError(t, err)

	t.Run("returns both directions oldest first", func(t *testing.T) {
		list, err := env.service.Conversation(ctx, env.resident.ID, env.owner.ID, 1, 10)
		require.NoError(t, err)
		require.Equal(t, int64(3), list.Total)
		assert.Equal(t, "first", list.Messages[0].Body)
		assert.Equal(t, "third", list.Messages[2].Body)
	})

	t.Run("unread count and read receipts", func(t *testing.T) {
		count, err := env.service.UnreadCount(ctx, env.resident.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		list, err := env.service.Conversation(ctx, env.resident.ID, env.owner.ID, 1, 10)
		require.NoError(t, err)
		require.NoError(t, env.service.MarkRead(ctx, env.resident.ID, list.Messages[0].ID))

		count, err = env.service.UnreadCount(ctx, env.resident.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("only the recipient marks a message read", func(t *testing.T) {
		list, err := env.service.Conversation(ctx, env.resident.ID, env.owner.ID, 1, 10)
		require.NoError(t, err)
		err = env.service.MarkRead(ctx, env.admin.ID, list.Messages[1].ID)
		assert.Equal(t, shared.ErrForbidden, err)
	})
}

func TestMessageService_HouseMessages(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("owner broadcasts to the house", func(t *testing.T) {
		info, err := env.service.SendToHouse(ctx, SendHouseMessageInput{
			ActorID: env.owner.ID,
			HouseID: env.house.ID,
			Body:    "Water cut this afternoon",
		})
		require.NoError(t, err)
		assert.NotNil(t, info.HouseID)
		assert.Equal(t, 1, env.push.sent)
	})

	t.Run("resident reads the house history", func(t *testing.T) {
		list, err := env.service.HouseHistory(ctx, env.resident.ID, env.house.ID, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), list.Total)
	})

	t.Run("resident cannot broadcast", func(t *testing.T) {
		_, err := env.service.SendToHouse(ctx, SendHouseMessageInput{
			ActorID: env.resident.ID,
			HouseID: env.house.ID,
			Body:    "Party tonight",
		})
		assert.Equal(t, shared.ErrForbidden, err)
	})
}

func TestNotificationService_Inbox(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		n, err := domain.NewNotification(env.resident.ID, domain.KindBroadcast, title, "body")
		require.NoError(t, err)
		require.NoError(t, env.store.Create(ctx, n))
	}

	list, err := env.notifications.List(ctx, env.resident.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)

	count, err := env.notifications.UnreadCount(ctx, env.resident.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	t.Run("mark one read", func(t *testing.T) {
		require.NoError(t, env.notifications.MarkRead(ctx, env.resident.ID, list.Notifications[0].ID))
		count, err := env.notifications.UnreadCount(ctx, env.resident.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("foreign actor cannot mark it read", func(t *testing.T) {
		err := env.notifications.MarkRead(ctx, env.owner.ID, list.Notifications[1].ID)
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("mark all read", func(t *testing.T) {
		require.NoError(t, env.notifications.MarkAllRead(ctx, env.resident.ID))
		count, err := env.notifications.UnreadCount(ctx, env.resident.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
