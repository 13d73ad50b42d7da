package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecopower/backend/internal/infrastructure/auth"
	"github.com/ecopower/backend/internal/infrastructure/config"
	"github.com/ecopower/backend/internal/interfaces/http/dto"
)

func newTestJWTService(accessExpiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-at-least-32-characters!",
		AccessTokenExpiration:  accessExpiration,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "ecopower-test",
	})
}

func newAuthTestEngine(jwtService *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	protected := engine.Group("/protected", RequireAuth(jwtService, zap.NewNop()))
	protected.GET("", func(c *gin.Context) {
		actor, err := ActorID(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": actor.String(), "role": GetJWTRole(c)})
	})
	return engine
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestRequireAuth_ValidToken(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	engine := newAuthTestEngine(jwtService)

	userID := uuid.New()
	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: userID,
		Role:   "owner",
		Email:  "owner@example.com",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["user_id"])
	assert.Equal(t, "owner", body["role"])
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	engine := newAuthTestEngine(newTestJWTService(15 * time.Minute))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w.Body.Bytes()))
}

func TestRequireAuth_WrongScheme(t *testing.T) {
	engine := newAuthTestEngine(newTestJWTService(15 * time.Minute))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w.Body.Bytes()))
}

func TestRequireAuth_RefreshTokenRejected(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	engine := newAuthTestEngine(jwtService)

	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: uuid.New(),
		Role:   "owner",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+pair.RefreshToken)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN_TYPE", errorCode(t, w.Body.Bytes()))
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	expiredService := newTestJWTService(-time.Minute)
	engine := newAuthTestEngine(newTestJWTService(15 * time.Minute))

	pair, err := expiredService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: uuid.New(),
		Role:   "resident",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, w.Body.Bytes()))
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	engine := newAuthTestEngine(newTestJWTService(15 * time.Minute))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+"not-a-jwt")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorID_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := ActorID(c)
	assert.ErrorIs(t, err, auth.ErrMissingUserID)
}
