package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/ecopower/backend/internal/application/identity"
)

// ResidentHandler handles resident provisioning and management
type ResidentHandler struct {
	BaseHandler
	residentService *identityapp.ResidentService
	requireAuth     gin.HandlerFunc
}

// NewResidentHandler creates a new ResidentHandler
func NewResidentHandler(residentService *identityapp.ResidentService, requireAuth gin.HandlerFunc) *ResidentHandler {
	return &ResidentHandler{
		residentService: residentService,
		requireAuth:     requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ResidentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	residents := rg.Group("/residents", h.requireAuth)
	residents.POST("", h.Add)
	residents.GET("", h.List)
	residents.GET("/:id", h.Get)
	residents.PUT("/:id", h.Update)
	residents.DELETE("/:id", h.Remove)
	residents.POST("/:id/reset-password", h.ResetPassword)
}

// AddResidentRequest represents resident provisioning
type AddResidentRequest struct {
	HouseID   string `json:"house_id" binding:"required,uuid"`
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"required,min=1,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"omitempty,max=30"`
	ViaGoogle bool   `json:"via_google"`
}

// AddResidentResponse reports the provisioned account and the channel
// that carried the temporary credentials
type AddResidentResponse struct {
	Resident          UserResponse `json:"resident"`
	CredentialChannel string       `json:"credential_channel"`
}

// Add provisions a resident account in a house
func (h *ResidentHandler) Add(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req AddResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	houseID, err := uuid.Parse(req.HouseID)
	if err != nil {
		h.BadRequest(c, "Invalid house ID format")
		return
	}

	result, err := h.residentService.Add(c.Request.Context(), identityapp.AddResidentInput{
		ActorID:   actor,
		HouseID:   houseID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		ViaGoogle: req.ViaGoogle,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, AddResidentResponse{
		Resident:          toUserResponse(result.Resident),
		CredentialChannel: result.CredentialChannel,
	})
}

// List returns the residents of the caller's houses
func (h *ResidentHandler) List(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	residents, err := h.residentService.ListByOwner(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUserResponses(residents))
}

// Get returns one resident
func (h *ResidentHandler) Get(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	residentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid resident ID format")
		return
	}

	resident, err := h.residentService.Get(c.Request.Context(), actor, residentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUserResponse(*resident))
}

// UpdateResidentRequest represents the editable resident fields. A new
// house_id moves the resident.
type UpdateResidentRequest struct {
	FirstName string  `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string  `json:"last_name" binding:"required,min=1,max=100"`
	Phone     string  `json:"phone" binding:"omitempty,max=30"`
	HouseID   *string `json:"house_id" binding:"omitempty,uuid"`
}

// Update edits a resident, optionally moving it to another house
func (h *ResidentHandler) Update(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	residentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid resident ID format")
		return
	}

	var req UpdateResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := identityapp.UpdateResidentInput{
		ActorID:    actor,
		ResidentID: residentID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
	}
	if req.HouseID != nil {
		houseID, err := uuid.Parse(*req.HouseID)
		if err != nil {
			h.BadRequest(c, "Invalid house ID format")
			return
		}
		input.HouseID = &houseID
	}

	resident, err := h.residentService.Update(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUserResponse(*resident))
}

// Remove deletes the resident account with its readings and invoices
func (h *ResidentHandler) Remove(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	residentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid resident ID format")
		return
	}

	if err := h.residentService.Remove(c.Request.Context(), actor, residentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ResetPassword issues a new temporary password for the resident
func (h *ResidentHandler) ResetPassword(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	residentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid resident ID format")
		return
	}

	channel, err := h.residentService.ResetPassword(c.Request.Context(), actor, residentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"credential_channel": channel})
}
