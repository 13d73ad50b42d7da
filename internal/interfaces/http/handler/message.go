package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	messagingapp "github.com/ecopower/backend/internal/application/messaging"
	"github.com/ecopower/backend/internal/interfaces/http/dto"
)

// MessageHandler handles chat message endpoints
type MessageHandler struct {
	BaseHandler
	messageService *messagingapp.MessageService
	requireAuth    gin.HandlerFunc
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageService *messagingapp.MessageService, requireAuth gin.HandlerFunc) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		requireAuth:    requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	messages := rg.Group("/messages", h.requireAuth)
	messages.POST("", h.Send)
	messages.GET("/conversation/:userId", h.Conversation)
	messages.GET("/unread-count", h.UnreadCount)
	messages.POST("/:id/read", h.MarkRead)

	houses := rg.Group("/houses", h.requireAuth)
	houses.POST("/:id/messages", h.SendToHouse)
	houses.GET("/:id/messages", h.HouseHistory)
}

// SendMessageRequest represents a private message
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Subject     string `json:"subject" binding:"max=200"`
	Body        string `json:"body" binding:"required,min=1,max=5000"`
}

// Send delivers a private message, pushing to the recipient's device
// when it is offline
func (h *MessageHandler) Send(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		h.BadRequest(c, "Invalid recipient ID format")
		return
	}

	message, err := h.messageService.Send(c.Request.Context(), messagingapp.SendMessageInput{
		ActorID:     actor,
		RecipientID: recipientID,
		Subject:     req.Subject,
		Body:        req.Body,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toMessageResponse(*message))
}

// SendHouseMessageRequest represents a house-wide message
type SendHouseMessageRequest struct {
	Subject string `json:"subject" binding:"max=200"`
	Body    string `json:"body" binding:"required,min=1,max=5000"`
}

// SendToHouse delivers a message to every resident of the house
func (h *MessageHandler) SendToHouse(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	houseID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid house ID format")
		return
	}

	var req SendHouseMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	message, err := h.messageService.SendToHouse(c.Request.Context(), messagingapp.SendHouseMessageInput{
		ActorID: actor,
		HouseID: houseID,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toMessageResponse(*message))
}

// Conversation returns the two-way history with another account,
// oldest first
func (h *MessageHandler) Conversation(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	otherID, err := parseUUIDParam(c, "userId")
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	list, err := h.messageService.Conversation(c.Request.Context(), actor, otherID, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toMessageResponses(list.Messages), list.Total, list.Page, list.PageSize)
}

// HouseHistory returns the house-wide messages of a house
func (h *MessageHandler) HouseHistory(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	houseID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid house ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	list, err := h.messageService.HouseHistory(c.Request.Context(), actor, houseID, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toMessageResponses(list.Messages), list.Total, list.Page, list.PageSize)
}

// MarkRead records a read receipt on a received message
func (h *MessageHandler) MarkRead(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	messageID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid message ID format")
		return
	}

	if err := h.messageService.MarkRead(c.Request.Context(), actor, messageID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// UnreadCount returns the number of unread messages for the caller
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	count, err := h.messageService.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"unread": count})
}
