package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billingapp "github.com/ecopower/backend/internal/application/billing"
	"github.com/ecopower/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
	requireAuth    gin.HandlerFunc
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService, requireAuth gin.HandlerFunc) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		requireAuth:    requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices", h.requireAuth)
	invoices.POST("", h.Generate)
	invoices.GET("/my", h.ListMine)
	invoices.GET("/:id", h.Get)
	invoices.GET("/number/:number", h.GetByNumber)
	invoices.POST("/:id/pay", h.MarkPaid)

	residents := rg.Group("/residents", h.requireAuth)
	residents.GET("/:id/invoices", h.ListByResident)
	residents.GET("/:id/invoice-stats", h.StatsByResident)

	houses := rg.Group("/houses", h.requireAuth)
	houses.GET("/:id/invoices", h.ListByHouse)
}

// GenerateInvoiceRequest represents an invoice generation request. The
// unbilled reading is located by resident and billing period.
type GenerateInvoiceRequest struct {
	ResidentID string           `json:"resident_id" binding:"required,uuid"`
	Month      int              `json:"month" binding:"required,min=1,max=12"`
	Year       int              `json:"year" binding:"required,min=2000,max=2100"`
	FixedFees  *decimal.Decimal `json:"fixed_fees"`
}

// Generate issues an invoice for the resident's reading of the period
func (h *InvoiceHandler) Generate(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	residentID, err := uuid.Parse(req.ResidentID)
	if err != nil {
		h.BadRequest(c, "Invalid resident ID format")
		return
	}

	invoice, err := h.invoiceService.Generate(c.Request.Context(), billingapp.GenerateInvoiceInput{
		ActorID:    actor,
		ResidentID: residentID,
		Month:      req.Month,
		Year:       req.Year,
		FixedFees:  req.FixedFees,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toInvoiceResponse(*invoice))
}

// Get returns one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), actor, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(*invoice))
}

// GetByNumber returns one invoice by its sequential number
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoice, err := h.invoiceService.GetByNumber(c.Request.Context(), actor, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(*invoice))
}

// MarkPaid settles an invoice
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), actor, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(*invoice))
}

// ListInvoicesRequest represents the invoice listing filters
type ListInvoicesRequest struct {
	dto.ListRequest
	Status *string `form:"status" binding:"omitempty,oneof=pending paid overdue"`
	Month  *int    `form:"month" binding:"omitempty,min=1,max=12"`
	Year   *int    `form:"year" binding:"omitempty,min=2000,max=2100"`
}

func (h *InvoiceHandler) bindListInput(c *gin.Context, actor uuid.UUID) (billingapp.ListInvoicesInput, bool) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return billingapp.ListInvoicesInput{}, false
	}
	req.Normalize()

	return billingapp.ListInvoicesInput{
		ActorID:  actor,
		Status:   req.Status,
		Month:    req.Month,
		Year:     req.Year,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, true
}

// ListByResident returns the invoices of one resident
func (h *InvoiceHandler) ListByResident(c *gin.Context) {
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

	list, err := h.invoiceService.ListByResident(c.Request.Context(), residentID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(list.Invoices), list.Total, list.Page, list.PageSize)
}

// ListMine returns the caller's own invoices
func (h *InvoiceHandler) ListMine(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	input, ok := h.bindListInput(c, actor)
	if !ok {
		return
	}

	list, err := h.invoiceService.ListByResident(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(list.Invoices), list.Total, list.Page, list.PageSize)
}

// ListByHouse returns the invoices of one house
func (h *InvoiceHandler) ListByHouse(c *gin.Context) {
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

	list, err := h.invoiceService.ListByHouse(c.Request.Context(), houseID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(list.Invoices), list.Total, list.Page, list.PageSize)
}

// StatsByResident aggregates a resident's invoices
func (h *InvoiceHandler) StatsByResident(c *gin.Context) {
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

	stats, err := h.invoiceService.StatsByResident(c.Request.Context(), actor, residentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceStatsResponse(stats))
}
