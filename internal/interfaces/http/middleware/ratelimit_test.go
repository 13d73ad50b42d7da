package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopower/backend/internal/interfaces/http/dto"
)

func newRateLimitEngine(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(rl.Middleware())
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return engine
}

func doRequest(engine *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	engine.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	engine := newRateLimitEngine(NewRateLimiter(1, 3))

	for i := 0; i < 3; i++ {
		w := doRequest(engine, "10.0.0.1:5000")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_BlocksBeyondBurst(t *testing.T) {
	engine := newRateLimitEngine(NewRateLimiter(0.001, 2))

	doRequest(engine, "10.0.0.2:5000")
	doRequest(engine, "10.0.0.2:5000")
	w := doRequest(engine, "10.0.0.2:5000")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRateLimited, resp.Error.Code)
}

func TestRateLimiter_TracksClientsSeparately(t *testing.T) {
	engine := newRateLimitEngine(NewRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusOK, doRequest(engine, "10.0.0.3:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(engine, "10.0.0.3:5000").Code)

	// a different client still has its own bucket
	assert.Equal(t, http.StatusOK, doRequest(engine, "10.0.0.4:5000").Code)
}
