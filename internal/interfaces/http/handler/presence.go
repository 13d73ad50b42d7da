package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ecopower/backend/internal/infrastructure/presence"
)

// PresenceHandler lets clients report their connection state. Mobile
// clients call connect on app foreground, heartbeat periodically and
// disconnect on background; pushes are only sent to offline accounts.
type PresenceHandler struct {
	BaseHandler
	registry    presence.Registry
	requireAuth gin.HandlerFunc
}

// NewPresenceHandler creates a new PresenceHandler
func NewPresenceHandler(registry presence.Registry, requireAuth gin.HandlerFunc) *PresenceHandler {
	return &PresenceHandler{
		registry:    registry,
		requireAuth: requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *PresenceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	presence := rg.Group("/presence", h.requireAuth)
	presence.POST("/connect", h.Connect)
	presence.POST("/heartbeat", h.Heartbeat)
	presence.POST("/disconnect", h.Disconnect)
}

// Connect marks the caller online
func (h *PresenceHandler) Connect(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.registry.Connect(c.Request.Context(), actor); err != nil {
		h.InternalError(c, "Failed to register presence")
		return
	}

	h.NoContent(c)
}

// Heartbeat extends the caller's online window
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.registry.Heartbeat(c.Request.Context(), actor); err != nil {
		h.InternalError(c, "Failed to refresh presence")
		return
	}

	h.NoContent(c)
}

// Disconnect marks the caller offline
func (h *PresenceHandler) Disconnect(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.registry.Disconnect(c.Request.Context(), actor); err != nil {
		h.InternalError(c, "Failed to clear presence")
		return
	}

	h.NoContent(c)
}
