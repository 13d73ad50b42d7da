package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	identityapp "github.com/ecopower/backend/internal/application/identity"
	"github.com/ecopower/backend/internal/infrastructure/auth"
	"github.com/ecopower/backend/internal/infrastructure/config"
	"github.com/ecopower/backend/internal/infrastructure/notify"
	"github.com/ecopower/backend/internal/infrastructure/persistence"
	"github.com/ecopower/backend/internal/interfaces/http/dto"
	"github.com/ecopower/backend/internal/interfaces/http/middleware"
	"github.com/ecopower/backend/internal/interfaces/http/router"
)

// stubSender records deliveries without talking to any provider
type stubSender struct{}

func (stubSender) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	return nil
}

func (stubSender) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error {
	return nil
}

func (stubSender) SendWhatsapp(ctx context.Context, phone, message string) error {
	return nil
}

type stubGoogle struct {
	identity *auth.GoogleIdentity
}

func (s *stubGoogle) Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error) {
	if s.identity == nil {
		return nil, auth.ErrGoogleTokenInvalid
	}
	return s.identity, nil
}

// newAuthTestServer wires the auth handler against sqlite-backed services
func newAuthTestServer(t *testing.T) (*gin.Engine, *stubGoogle) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&persistence.UserModel{},
		&persistence.HouseModel{},
		&persistence.NotificationModel{},
		&persistence.AuditLogModel{},
	))

	users := persistence.NewGormUserRepository(db)
	auditLog := persistence.NewGormAuditLogRepository(db)

	sender := stubSender{}
	google := &stubGoogle{}
	logger := zap.NewNop()
	dispatcher := notify.NewDispatcher(sender, sender, sender, auditLog, logger)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-at-least-32-characters!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "ecopower-test",
	})

	authService := identityapp.NewAuthService(users, jwtService, google, dispatcher, auditLog, logger)
	requireAuth := middleware.RequireAuth(jwtService, logger)

	engine := gin.New()
	router.NewRouter(engine).
		Register(NewAuthHandler(authService, requireAuth, nil)).
		Setup()

	return engine, google
}

func postJSON(engine *gin.Engine, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func registerOwner(t *testing.T, engine *gin.Engine, email string) {
	t.Helper()
	w := postJSON(engine, "/api/v1/auth/register", RegisterRequest{
		FirstName: "Nadia",
		LastName:  "Laurent",
		Email:     email,
		Password:  "correct-horse-battery",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthHandler_Register(t *testing.T) {
	engine, _ := newAuthTestServer(t)

	w := postJSON(engine, "/api/v1/auth/register", RegisterRequest{
		FirstName: "Nadia",
		LastName:  "Laurent",
		Email:     "nadia@example.com",
		Password:  "correct-horse-battery",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "owner", data["role"])
	assert.Equal(t, "nadia@example.com", data["email"])
	assert.Equal(t, true, data["active"])
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	engine, _ := newAuthTestServer(t)
	registerOwner(t, engine, "nadia@example.com")

	w := postJSON(engine, "/api/v1/auth/register", RegisterRequest{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "nadia@example.com",
		Password:  "another-password",
	}, "")

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EMAIL_TAKEN", resp.Error.Code)
}

func TestAuthHandler_Register_ValidationError(t *testing.T) {
	engine, _ := newAuthTestServer(t)

	w := postJSON(engine, "/api/v1/auth/register", RegisterRequest{
		FirstName: "Nadia",
		LastName:  "Laurent",
		Email:     "not-an-email",
		Password:  "short",
	}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestAuthHandler_LoginAndMe(t *testing.T) {
	engine, _ := newAuthTestServer(t)
	registerOwner(t, engine, "nadia@example.com")

	w := postJSON(engine, "/api/v1/auth/login", LoginRequest{
		Identifier: "nadia@example.com",
		Password:   "correct-horse-battery",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var session struct {
		Data SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Data.AccessToken)
	assert.Equal(t, "Bearer", session.Data.TokenType)
	assert.Equal(t, "nadia@example.com", session.Data.User.Email)

	// the issued token authenticates /auth/me
	meReq := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	meReq.Header.Set("Authorization", "Bearer "+session.Data.AccessToken)
	meW := httptest.NewRecorder()
	engine.ServeHTTP(meW, meReq)

	require.Equal(t, http.StatusOK, meW.Code)
	resp := decodeResponse(t, meW)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "nadia@example.com", data["email"])
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	engine, _ := newAuthTestServer(t)
	registerOwner(t, engine, "nadia@example.com")

	w := postJSON(engine, "/api/v1/auth/login", LoginRequest{
		Identifier: "nadia@example.com",
		Password:   "wrong-password",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidCredentials, resp.Error.Code)
}

func TestAuthHandler_Refresh(t *testing.T) {
	engine, _ := newAuthTestServer(t)
	registerOwner(t, engine, "nadia@example.com")

	w := postJSON(engine, "/api/v1/auth/login", LoginRequest{
		Identifier: "nadia@example.com",
		Password:   "correct-horse-battery",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var session struct {
		Data SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	refreshW := postJSON(engine, "/api/v1/auth/refresh", RefreshRequest{
		RefreshToken: session.Data.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, refreshW.Code)

	var refreshed struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(refreshW.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.Data.AccessToken)
	assert.NotEqual(t, session.Data.RefreshToken, refreshed.Data.RefreshToken)
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	engine, _ := newAuthTestServer(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GoogleLogin_InvalidToken(t *testing.T) {
	engine, google := newAuthTestServer(t)
	google.identity = nil

	w := postJSON(engine, "/api/v1/auth/google", GoogleLoginRequest{IDToken: "bad"}, "")

	// the verifier rejection surfaces as an auth failure
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
