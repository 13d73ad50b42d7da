package handler

import (
	"github.com/gin-gonic/gin"

	platformapp "github.com/ecopower/backend/internal/application/platform"
)

// PlatformHandler handles public app info and the contact form
type PlatformHandler struct {
	BaseHandler
	settingsService *platformapp.SettingsService
	requireAuth     gin.HandlerFunc
}

// NewPlatformHandler creates a new PlatformHandler
func NewPlatformHandler(settingsService *platformapp.SettingsService, requireAuth gin.HandlerFunc) *PlatformHandler {
	return &PlatformHandler{
		settingsService: settingsService,
		requireAuth:     requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *PlatformHandler) RegisterRoutes(rg *gin.RouterGroup) {
	app := rg.Group("/app")
	app.GET("/settings", h.GetSettings)
	app.POST("/contact", h.SubmitContact)
	app.PUT("/settings", h.requireAuth, h.UpdateSettings)
}

// GetSettings returns the public platform settings
func (h *PlatformHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSettingsResponse(settings))
}

// UpdateSettingsRequest represents the editable platform settings
type UpdateSettingsRequest struct {
	SupportEmail       string `json:"support_email" binding:"omitempty,email"`
	SupportPhone       string `json:"support_phone" binding:"max=30"`
	SupportWhatsapp    string `json:"support_whatsapp" binding:"max=30"`
	AppVersion         string `json:"app_version" binding:"max=20"`
	MaintenanceMode    bool   `json:"maintenance_mode"`
	MaintenanceMessage string `json:"maintenance_message" binding:"max=500"`
}

// UpdateSettings edits the platform settings
func (h *PlatformHandler) UpdateSettings(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), platformapp.UpdateSettingsInput{
		ActorID:            actor,
		SupportEmail:       req.SupportEmail,
		SupportPhone:       req.SupportPhone,
		SupportWhatsapp:    req.SupportWhatsapp,
		AppVersion:         req.AppVersion,
		MaintenanceMode:    req.MaintenanceMode,
		MaintenanceMessage: req.MaintenanceMessage,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSettingsResponse(settings))
}

// ContactRequest represents a public contact form submission
type ContactRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,max=30"`
	Subject string `json:"subject" binding:"required,min=1,max=200"`
	Message string `json:"message" binding:"required,min=1,max=5000"`
}

// SubmitContact forwards a contact form submission to the support inbox
func (h *PlatformHandler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.settingsService.SubmitContact(c.Request.Context(), platformapp.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Your message has been sent"})
}
