package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecopower/backend/internal/domain/housing"
	domain "github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/auth"
	"github.com/ecopower/backend/internal/infrastructure/config"
	"github.com/ecopower/backend/internal/infrastructure/notify"
	"github.com/ecopower/backend/internal/infrastructure/persistence"
)

// fakePush, fakeEmail and fakeWhatsapp stand in for the delivery
// providers; setting err makes the channel fail
type fakePush struct {
	err  error
	sent int
}

func (f *fakePush) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.sent++
	return nil
}

type fakeEmail struct {
	err  error
	sent int
	last string
}

func (f *fakeEmail) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error {
	if f.err != nil {
		return f.err
	}
	f.sent++
	f.last = plainText
	return nil
}

type fakeWhatsapp struct {
	err  error
	sent int
}

func (f *fakeWhatsapp) SendWhatsapp(ctx context.Context, phone, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent++
	return nil
}

type fakeGoogle struct {
	identity *auth.GoogleIdentity
	err      error
}

func (f *fakeGoogle) Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type testEnv struct {
	db       *gorm.DB
	users    domain.UserRepository
	houses   housing.HouseRepository
	auth     *AuthService
	resident *ResidentService
	push     *fakePush
	email    *fakeEmail
	whatsapp *fakeWhatsapp
	google   *fakeGoogle
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
	auditLog := persistence.NewGormAuditLogRepository(db)
	notifications := persistence.NewGormNotificationRepository(db)
	purger := persistence.NewGormPurgeRepository(db)

	push := &fakePush{}
	email := &fakeEmail{}
	whatsapp := &fakeWhatsapp{}
	google := &fakeGoogle{}
	logger := zap.NewNop()

	dispatcher := notify.NewDispatcher(push, email, whatsapp, auditLog, logger)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-at-least-32-characters!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "ecopower-test",
	})
	authorizer := domain.NewAuthorizationService(users, houses)

	return &testEnv{
		db:       db,
		users:    users,
		houses:   houses,
		auth:     NewAuthService(users, jwtService, google, dispatcher, auditLog, logger),
		resident: NewResidentService(users, houses, authorizer, dispatcher, notifications, auditLog, purger, logger),
		push:     push,
		email:    email,
		whatsapp: whatsapp,
		google:   google,
	}
}

func (e *testEnv) registerOwner(t *testing.T, email string) *UserInfo {
	t.Helper()
	owner, err := e.auth.RegisterOwner(context.Background(), RegisterOwnerInput{
		FirstName: "Nadia",
		LastName:  "Laurent",
		Email:     email,
		Phone:     "",
		Password:  "correct-horse-battery",
	})
	require.NoError(t, err)
	return owner
}

func (e *testEnv) createHouse(t *testing.T, ownerID uuid.UUID) *housing.House {
	t.Helper()
	house, err := housing.NewHouse(ownerID, "Villa Kara", "12 Rue des Lilas", "Douala", "MTR-100",
		decimal.NewFromFloat(0.2))
	require.NoError(t, err)
	require.NoError(t, e.houses.Create(context.Background(), house))
	return house
}

func TestAuthService_RegisterOwner(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("creates an active owner account", func(t *testing.T) {
		info := env.registerOwner(t, "nadia@example.com")
		assert.Equal(t, "owner", info.Role)
		assert.True(t, info.Active)
		assert.False(t, info.FirstLogin)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		_, err := env.auth.RegisterOwner(ctx, RegisterOwnerInput{
			FirstName: "Other",
			LastName:  "Person",
			Email:     "nadia@example.com",
			Password:  "another-password",
		})
		require.Error(t, err)
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "EMAIL_TAKEN", derr.Code)
	})
}

func TestAuthService_RegisterAdmin(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.auth.RegisterAdmin(ctx, RegisterAdminInput{
		FirstName: "Root",
		LastName:  "Admin",
		Email:     "admin@example.com",
		Password:  "admin-password",
	})
	require.NoError(t, err)

	t.Run("refuses a second admin", func(t *testing.T) {
		_, err := env.auth.RegisterAdmin(ctx, RegisterAdminInput{
			FirstName: "Second",
			LastName:  "Admin",
			Email:     "admin2@example.com",
			Password:  "admin-password",
		})
		require.Error(t, err)
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "ADMIN_EXISTS", derr.Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.registerOwner(t, "login@example.com")

	t.Run("issues a token pair on valid credentials", func(t *testing.T) {
		result, err := env.auth.Login(ctx, LoginInput{
			Identifier: "login@example.com",
			Password:   "correct-horse-battery",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.False(t, result.FirstLogin)
		assert.NotNil(t, result.User.LastLoginAt)
	})

	t.Run("wrong password yields the generic credential error", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginInput{
			Identifier: "login@example.com",
			Password:   "wrong-password",
		})
		assert.Equal(t, shared.ErrInvalidCredential, err)
	})

	t.Run("unknown identifier yields the same error", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginInput{
			Identifier: "nobody@example.com",
			Password:   "correct-horse-battery",
		})
		assert.Equal(t, shared.ErrInvalidCredential, err)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.registerOwner(t, "refresh@example.com")

	login, err := env.auth.Login(ctx, LoginInput{
		Identifier: "refresh@example.com",
		Password:   "correct-horse-battery",
	})
	require.NoError(t, err)

	t.Run("rotates the refresh token", func(t *testing.T) {
		refreshed, err := env.auth.Refresh(ctx, login.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)

		// The pre-rotation token is now revoked
		_, err = env.auth.Refresh(ctx, login.RefreshToken)
		assert.Equal(t, shared.ErrUnauthorized, err)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		_, err := env.auth.Refresh(ctx, "not-a-jwt")
		assert.Equal(t, shared.ErrUnauthorized, err)
	})
}

func TestAuthService_GoogleLogin(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.registerOwner(t, "linkme@example.com")

	t.Run("links a Google identity to a matching email", func(t *testing.T) {
		env.google.identity = &auth.GoogleIdentity{
			Subject: "google-sub-1",
			Email:   "linkme@example.com",
		}
		result, err := env.auth.LoginWithGoogle(ctx, GoogleLoginInput{IDToken: "token"})
		require.NoError(t, err)
		assert.Equal(t, "both", result.User.AuthMethod)
	})

	t.Run("subsequent sign-ins find the linked identity", func(t *testing.T) {
		result, err := env.auth.LoginWithGoogle(ctx, GoogleLoginInput{IDToken: "token"})
		require.NoError(t, err)
		assert.Equal(t, "linkme@example.com", result.User.Email)
	})

	t.Run("rejected token yields the credential error", func(t *testing.T) {
		env.google.err = auth.ErrGoogleTokenInvalid
		defer func() { env.google.err = nil }()
		_, err := env.auth.LoginWithGoogle(ctx, GoogleLoginInput{IDToken: "bad"})
		assert.Equal(t, shared.ErrInvalidCredential, err)
	})
}

func TestAuthService_ForgotPassword(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.registerOwner(t, "forgot@example.com")

	t.Run("issues a temporary password by email", func(t *testing.T) {
		require.NoError(t, env.auth.ForgotPassword(ctx, "forgot@example.com"))
		assert.Equal(t, 1, env.email.sent)

		user, err := env.users.FindByEmail(ctx, "forgot@example.com")
		require.NoError(t, err)
		assert.True(t, user.FirstLogin)
	})

	t.Run("unknown identifier is silently accepted", func(t *testing.T) {
		assert.NoError(t, env.auth.ForgotPassword(ctx, "ghost@example.com"))
	})

	t.Run("first login completes with a new password", func(t *testing.T) {
		user, err := env.users.FindByEmail(ctx, "forgot@example.com")
		require.NoError(t, err)

		err = env.auth.CompleteFirstLogin(ctx, FirstLoginPasswordInput{
			UserID:      user.ID,
			NewPassword: "a-brand-new-password",
		})
		require.NoError(t, err)

		result, err := env.auth.Login(ctx, LoginInput{
			Identifier: "forgot@example.com",
			Password:   "a-brand-new-password",
		})
		require.NoError(t, err)
		assert.False(t, result.FirstLogin)
	})

	t.Run("refuses the flow once the flag is cleared", func(t *testing.T) {
		user, err := env.users.FindByEmail(ctx, "forgot@example.com")
		require.NoError(t, err)

		err = env.auth.CompleteFirstLogin(ctx, FirstLoginPasswordInput{
			UserID:      user.ID,
			NewPassword: "yet-another-password",
		})
		require.Error(t, err)
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "NOT_FIRST_LOGIN", derr.Code)
	})
}

func TestResidentService_Add(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t, "owner@example.com")
	house := env.createHouse(t, owner.ID)

	t.Run("provisions a resident and delivers by email", func(t *testing.T) {
		result, err := env.resident.Add(ctx, AddResidentInput{
			ActorID:   owner.ID,
			HouseID:   house.ID,
			FirstName: "Paul",
			LastName:  "Biyik",
			Email:     "paul@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, string(notify.ChannelEmail), result.CredentialChannel)
		assert.True(t, result.Resident.FirstLogin)
		assert.Contains(t, env.email.last, "temporary password")

		stored, err := env.houses.FindByID(ctx, house.ID)
		require.NoError(t, err)
		assert.True(t, stored.Occupied)
	})

	t.Run("falls back to whatsapp when email fails", func(t *testing.T) {
		env.email.err = errors.New("smtp down")
		defer func() { env.email.err = nil }()

		result, err := env.resident.Add(ctx, AddResidentInput{
			ActorID:   owner.ID,
			HouseID:   house.ID,
			FirstName: "Marie",
			LastName:  "Ngo",
			Email:     "marie@example.com",
			Phone:     "+237690112233",
		})
		require.NoError(t, err)
		assert.Equal(t, string(notify.ChannelWhatsapp), result.CredentialChannel)
		assert.Equal(t, 1, env.whatsapp.sent)
	})

	t.Run("provisioning survives every channel failing", func(t *testing.T) {
		env.email.err = errors.New("smtp down")
		env.whatsapp.err = errors.New("gateway down")
		defer func() {
			env.email.err = nil
			env.whatsapp.err = nil
		}()

		result, err := env.resident.Add(ctx, AddResidentInput{
			ActorID:   owner.ID,
			HouseID:   house.ID,
			FirstName: "Luc",
			LastName:  "Essomba",
			Email:     "luc@example.com",
			Phone:     "+237690445566",
		})
		require.NoError(t, err)
		assert.Equal(t, string(notify.ChannelAudit), result.CredentialChannel)
	})

	t.Run("foreign owner cannot provision into the house", func(t *testing.T) {
		other := env.registerOwner(t, "other@example.com")
		_, err := env.resident.Add(ctx, AddResidentInput{
			ActorID:   other.ID,
			HouseID:   house.ID,
			FirstName: "Eve",
			LastName:  "Intruder",
			Email:     "eve@example.com",
		})
		assert.Equal(t, shared.ErrForbidden, err)
	})

	t.Run("google pre-provisioning skips the password", func(t *testing.T) {
		result, err := env.resident.Add(ctx, AddResidentInput{
			ActorID:   owner.ID,
			HouseID:   house.ID,
			FirstName: "Gigi",
			LastName:  "Cloud",
			Email:     "gigi@example.com",
			ViaGoogle: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "none", result.CredentialChannel)
		assert.Equal(t, "google", result.Resident.AuthMethod)
	})
}

func TestResidentService_ResetPassword(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t, "owner@example.com")
	house := env.createHouse(t, owner.ID)

	added, err := env.resident.Add(ctx, AddResidentInput{
		ActorID:   owner.ID,
		HouseID:   house.ID,
		FirstName: "Rita",
		LastName:  "Mbarga",
		Email:     "rita@example.com",
	})
	require.NoError(t, err)

	// Resident settles in with a permanent password
	require.NoError(t, env.auth.CompleteFirstLogin(ctx, FirstLoginPasswordInput{
		UserID:      added.Resident.ID,
		NewPassword: "ritas-own-password",
	}))

	channel, err := env.resident.ResetPassword(ctx, owner.ID, added.Resident.ID)
	require.NoError(t, err)
	assert.Equal(t, string(notify.ChannelEmail), channel)

	stored, err := env.users.FindByID(ctx, added.Resident.ID)
	require.NoError(t, err)
	assert.True(t, stored.FirstLogin)
	assert.False(t, stored.VerifyPassword("ritas-own-password"))
}

func TestResidentService_Remove(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t, "owner@example.com")
	house := env.createHouse(t, owner.ID)

	added, err := env.resident.Add(ctx, AddResidentInput{
		ActorID:   owner.ID,
		HouseID:   house.ID,
		FirstName: "Sole",
		LastName:  "Tenant",
		Email:     "sole@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, env.resident.Remove(ctx, owner.ID, added.Resident.ID))

	_, err = env.users.FindByID(ctx, added.Resident.ID)
	assert.Equal(t, shared.ErrNotFound, err)

	stored, err := env.houses.FindByID(ctx, house.ID)
	require.NoError(t, err)
	assert.False(t, stored.Occupied)
}
