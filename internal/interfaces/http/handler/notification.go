package handler

import (
	"github.com/gin-gonic/gin"

	messagingapp "github.com/ecopower/backend/internal/application/messaging"
	"github.com/ecopower/backend/internal/interfaces/http/dto"
)

// NotificationHandler handles the in-app notification inbox
type NotificationHandler struct {
	BaseHandler
	notificationService *messagingapp.NotificationService
	requireAuth         gin.HandlerFunc
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *messagingapp.NotificationService, requireAuth gin.HandlerFunc) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		requireAuth:         requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notifications := rg.Group("/notifications", h.requireAuth)
	notifications.GET("", h.List)
	notifications.GET("/unread-count", h.UnreadCount)
	notifications.POST("/:id/read", h.MarkRead)
	notifications.POST("/read-all", h.MarkAllRead)
}

// List returns the caller's notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	list, err := h.notificationService.List(c.Request.Context(), actor, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toNotificationResponses(list.Notifications), list.Total, list.Page, list.PageSize)
}

// UnreadCount returns the number of unread notifications
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"unread": count})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	notificationID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid notification ID format")
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), actor, notificationID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// MarkAllRead marks the whole inbox as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), actor); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
