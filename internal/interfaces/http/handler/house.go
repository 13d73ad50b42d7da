package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	housingapp "github.com/ecopower/backend/internal/application/housing"
	identityapp "github.com/ecopower/backend/internal/application/identity"
	"github.com/ecopower/backend/internal/interfaces/http/dto"
)

// HouseHandler handles house management endpoints
type HouseHandler struct {
	BaseHandler
	houseService    *housingapp.HouseService
	residentService *identityapp.ResidentService
	requireAuth     gin.HandlerFunc
}

// NewHouseHandler creates a new HouseHandler
func NewHouseHandler(houseService *housingapp.HouseService, residentService *identityapp.ResidentService, requireAuth gin.HandlerFunc) *HouseHandler {
	return &HouseHandler{
		houseService:    houseService,
		residentService: residentService,
		requireAuth:     requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *HouseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	houses := rg.Group("/houses", h.requireAuth)
	houses.POST("", h.Create)
	houses.GET("", h.List)
	houses.GET("/:id", h.Get)
	houses.PUT("/:id", h.Update)
	houses.PUT("/:id/tariff", h.SetTariff)
	houses.DELETE("/:id", h.Delete)
	houses.GET("/:id/residents", h.ListResidents)
}

// CreateHouseRequest represents a house registration
type CreateHouseRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Address     string          `json:"address" binding:"required,min=1,max=500"`
	City        string          `json:"city" binding:"max=100"`
	MeterNumber string          `json:"meter_number" binding:"max=50"`
	TariffKwh   decimal.Decimal `json:"tariff_kwh"`
}

// Create registers a house for the authenticated owner
func (h *HouseHandler) Create(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateHouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	house, err := h.houseService.Create(c.Request.Context(), housingapp.CreateHouseInput{
		ActorID:     actor,
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		MeterNumber: req.MeterNumber,
		TariffKwh:   req.TariffKwh,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toHouseResponse(*house))
}

// ListHousesRequest represents the house listing filters
type ListHousesRequest struct {
	dto.ListRequest
	Occupied *bool `form:"occupied"`
}

// List returns the houses visible to the caller
func (h *HouseHandler) List(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListHousesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	list, err := h.houseService.List(c.Request.Context(), housingapp.ListHousesInput{
		ActorID:  actor,
		Keyword:  req.Search,
		Occupied: req.Occupied,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toHouseResponses(list.Houses), list.Total, list.Page, list.PageSize)
}

// Get returns one house
func (h *HouseHandler) Get(c *gin.Context) {
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

	house, err := h.houseService.Get(c.Request.Context(), actor, houseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toHouseResponse(*house))
}

// UpdateHouseRequest represents the editable house fields
type UpdateHouseRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Address     string `json:"address" binding:"required,min=1,max=500"`
	City        string `json:"city" binding:"max=100"`
	MeterNumber string `json:"meter_number" binding:"max=50"`
}

// Update edits the house details
func (h *HouseHandler) Update(c *gin.Context) {
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

	var req UpdateHouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	house, err := h.houseService.Update(c.Request.Context(), housingapp.UpdateHouseInput{
		ActorID:     actor,
		HouseID:     houseID,
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		MeterNumber: req.MeterNumber,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toHouseResponse(*house))
}

// SetTariffRequest represents a tariff change
type SetTariffRequest struct {
	TariffKwh decimal.Decimal `json:"tariff_kwh" binding:"required"`
}

// SetTariff changes the per-kWh tariff. Readings already recorded keep
// the tariff they were priced with.
func (h *HouseHandler) SetTariff(c *gin.Context) {
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

	var req SetTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	house, err := h.houseService.SetTariff(c.Request.Context(), housingapp.SetTariffInput{
		ActorID:   actor,
		HouseID:   houseID,
		TariffKwh: req.TariffKwh,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toHouseResponse(*house))
}

// Delete removes the house with its readings and invoices
func (h *HouseHandler) Delete(c *gin.Context) {
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

	if err := h.houseService.Remove(c.Request.Context(), actor, houseID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListResidents returns the residents assigned to the house
func (h *HouseHandler) ListResidents(c *gin.Context) {
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

	residents, err := h.residentService.ListByHouse(c.Request.Context(), actor, houseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUserResponses(residents))
}
