package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-level endpoints
type SystemHandler struct {
	BaseHandler
	appName string
	env     string
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(appName, env string) *SystemHandler {
	return &SystemHandler{
		appName: appName,
		env:     env,
		started: time.Now(),
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	system.GET("/ping", h.Ping)
	system.GET("/info", h.Info)
}

// Ping responds with pong
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}

// Info returns basic process information
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, gin.H{
		"name":        h.appName,
		"environment": h.env,
		"uptime":      time.Since(h.started).Round(time.Second).String(),
		"server_time": time.Now().UTC(),
	})
}
