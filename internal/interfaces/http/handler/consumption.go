package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	meteringapp "github.com/ecopower/backend/internal/application/metering"
	"github.com/ecopower/backend/internal/interfaces/http/dto"
)

// ConsumptionHandler handles meter reading endpoints
type ConsumptionHandler struct {
	BaseHandler
	consumptionService *meteringapp.ConsumptionService
	requireAuth        gin.HandlerFunc
}

// NewConsumptionHandler creates a new ConsumptionHandler
func NewConsumptionHandler(consumptionService *meteringapp.ConsumptionService, requireAuth gin.HandlerFunc) *ConsumptionHandler {
	return &ConsumptionHandler{
		consumptionService: consumptionService,
		requireAuth:        requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ConsumptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	readings := rg.Group("/readings", h.requireAuth)
	readings.POST("", h.Record)
	readings.GET("/my", h.ListMine)
	readings.GET("/:id", h.Get)
	readings.PUT("/:id", h.Update)
	readings.DELETE("/:id", h.Delete)

	residents := rg.Group("/residents", h.requireAuth)
	residents.GET("/:id/readings", h.ListByResident)
	residents.GET("/:id/consumption-stats", h.StatsByResident)

	houses := rg.Group("/houses", h.requireAuth)
	houses.GET("/:id/readings", h.ListByHouse)
	houses.GET("/:id/consumption-stats", h.StatsByHouse)
}

// RecordReadingRequest represents a meter reading submission
type RecordReadingRequest struct {
	ResidentID    string          `json:"resident_id" binding:"required,uuid"`
	HouseID       string          `json:"house_id" binding:"required,uuid"`
	PreviousIndex decimal.Decimal `json:"previous_index"`
	CurrentIndex  decimal.Decimal `json:"current_index"`
	Month         int             `json:"month" binding:"required,min=1,max=12"`
	Year          int             `json:"year" binding:"required,min=2000,max=2100"`
	ReadingDate   *time.Time      `json:"reading_date"`
	Comment       string          `json:"comment" binding:"max=1000"`
}

// Record stores a meter reading, pricing it with the current house
// tariff
func (h *ConsumptionHandler) Record(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req RecordReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	residentID, err := uuid.Parse(req.ResidentID)
	if err != nil {
		h.BadRequest(c, "Invalid resident ID format")
		return
	}
	houseID, err := uuid.Parse(req.HouseID)
	if err != nil {
		h.BadRequest(c, "Invalid house ID format")
		return
	}

	readingDate := time.Now()
	if req.ReadingDate != nil {
		readingDate = *req.ReadingDate
	}

	result, err := h.consumptionService.Record(c.Request.Context(), meteringapp.RecordReadingInput{
		ActorID:       actor,
		ResidentID:    residentID,
		HouseID:       houseID,
		PreviousIndex: req.PreviousIndex,
		CurrentIndex:  req.CurrentIndex,
		Month:         req.Month,
		Year:          req.Year,
		ReadingDate:   readingDate,
		Comment:       req.Comment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, RecordReadingResponse{
		Reading:   toReadingResponse(result.Reading),
		Anomalous: result.Anomalous,
	})
}

// Get returns one reading
func (h *ConsumptionHandler) Get(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	readingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reading ID format")
		return
	}

	reading, err := h.consumptionService.Get(c.Request.Context(), actor, readingID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toReadingResponse(*reading))
}

// UpdateReadingRequest represents a correction of an unbilled reading
type UpdateReadingRequest struct {
	PreviousIndex decimal.Decimal `json:"previous_index"`
	CurrentIndex  decimal.Decimal `json:"current_index"`
	Comment       *string         `json:"comment" binding:"omitempty,max=1000"`
}

// Update corrects the indices of an unbilled reading and reprices it
func (h *ConsumptionHandler) Update(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	readingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reading ID format")
		return
	}

	var req UpdateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reading, err := h.consumptionService.Update(c.Request.Context(), meteringapp.UpdateReadingInput{
		ActorID:       actor,
		ReadingID:     readingID,
		PreviousIndex: req.PreviousIndex,
		CurrentIndex:  req.CurrentIndex,
		Comment:       req.Comment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toReadingResponse(*reading))
}

// Delete removes an unbilled reading
func (h *ConsumptionHandler) Delete(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	readingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reading ID format")
		return
	}

	if err := h.consumptionService.Delete(c.Request.Context(), actor, readingID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListReadingsRequest represents the reading listing filters
type ListReadingsRequest struct {
	dto.ListRequest
	Month  *int  `form:"month" binding:"omitempty,min=1,max=12"`
	Year   *int  `form:"year" binding:"omitempty,min=2000,max=2100"`
	Billed *bool `form:"billed"`
}

func (h *ConsumptionHandler) bindListInput(c *gin.Context, actor uuid.UUID) (meteringapp.ListReadingsInput, bool) {
	var req ListReadingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return meteringapp.ListReadingsInput{}, false
	}
	req.Normalize()

	return meteringapp.ListReadingsInput{
		ActorID:  actor,
		Month:    req.Month,
		Year:     req.Year,
		Billed:   req.Billed,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, true
}

// ListByResident returns the readings of one resident
func (h *ConsumptionHandler) ListByResident(c *gin.Context) {
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

	input, ok := h.bindListInput(c, actor)
	if !ok {
		return
	}

	list, err := h.consumptionService.ListByResident(c.Request.Context(), residentID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toReadingResponses(list.Readings), list.Total, list.Page, list.PageSize)
}

// ListMine returns the caller's own readings
func (h *ConsumptionHandler) ListMine(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	input, ok := h.bindListInput(c, actor)
	if !ok {
		return
	}

	list, err := h.consumptionService.ListByResident(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toReadingResponses(list.Readings), list.Total, list.Page, list.PageSize)
}

// ListByHouse returns the readings of one house
func (h *ConsumptionHandler) ListByHouse(c *gin.Context) {
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

	input, ok := h.bindListInput(c, actor)
	if !ok {
		return
	}

	list, err := h.consumptionService.ListByHouse(c.Request.Context(), houseID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toReadingResponses(list.Readings), list.Total, list.Page, list.PageSize)
}

// StatsByResident aggregates a resident's readings
func (h *ConsumptionHandler) StatsByResident(c *gin.Context) {
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

	stats, err := h.consumptionService.StatsByResident(c.Request.Context(), actor, residentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toConsumptionStatsResponse(stats))
}

// StatsByHouse aggregates a house's readings
func (h *ConsumptionHandler) StatsByHouse(c *gin.Context) {
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

	stats, err := h.consumptionService.StatsByHouse(c.Request.Context(), actor, houseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toConsumptionStatsResponse(stats))
}
