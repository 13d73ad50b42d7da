package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	adminapp "github.com/ecopower/backend/internal/application/admin"
	billingapp "github.com/ecopower/backend/internal/application/billing"
	"github.com/ecopower/backend/internal/interfaces/http/dto"
)

// AdminHandler handles the administration console endpoints. All routes
// require authentication; the services themselves refuse non-admin
// actors.
type AdminHandler struct {
	BaseHandler
	statsService     *adminapp.StatsService
	accountService   *adminapp.AccountService
	broadcastService *adminapp.BroadcastService
	invoiceService   *billingapp.InvoiceService
	requireAuth      gin.HandlerFunc
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	statsService *adminapp.StatsService,
	accountService *adminapp.AccountService,
	broadcastService *adminapp.BroadcastService,
	invoiceService *billingapp.InvoiceService,
	requireAuth gin.HandlerFunc,
) *AdminHandler {
	return &AdminHandler{
		statsService:     statsService,
		accountService:   accountService,
		broadcastService: broadcastService,
		invoiceService:   invoiceService,
		requireAuth:      requireAuth,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin", h.requireAuth)
	admin.GET("/stats", h.Dashboard)
	admin.GET("/invoice-stats", h.InvoiceStats)
	admin.GET("/users", h.ListUsers)
	admin.GET("/houses", h.ListHouses)
	admin.GET("/invoices", h.ListInvoices)
	admin.GET("/audit-logs", h.ListAuditLogs)
	admin.POST("/users/:id/deactivate", h.Deactivate)
	admin.POST("/users/:id/reactivate", h.Reactivate)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.POST("/broadcast", h.Broadcast)
	admin.POST("/test-push", h.TestPush)
}

// Dashboard returns the platform-wide overview
func (h *AdminHandler) Dashboard(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.statsService.Dashboard(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDashboardResponse(stats))
}

// InvoiceStats returns the platform-wide invoice aggregates
func (h *AdminHandler) InvoiceStats(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.invoiceService.Stats(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceStatsResponse(stats))
}

// ListUsersRequest represents the user listing filters
type ListUsersRequest struct {
	dto.ListRequest
	Role *string `form:"role" binding:"omitempty,oneof=admin owner resident"`
}

// ListUsers returns accounts filtered by keyword and role
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	users, total, err := h.accountService.List(c.Request.Context(), adminapp.ListUsersInput{
		ActorID:  actor,
		Keyword:  req.Search,
		Role:     req.Role,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toUserResponses(users), total, req.Page, req.PageSize)
}

// ListHouses returns houses across all owners
func (h *AdminHandler) ListHouses(c *gin.Context) {
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

	houses, total, err := h.statsService.ListHouses(c.Request.Context(), adminapp.ListHousesInput{
		ActorID:  actor,
		Keyword:  req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toHouseResponses(houses), total, req.Page, req.PageSize)
}

// ListInvoices returns invoices across all residents
func (h *AdminHandler) ListInvoices(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	invoices, total, err := h.statsService.ListInvoices(c.Request.Context(), adminapp.ListInvoicesInput{
		ActorID:  actor,
		Status:   req.Status,
		Month:    req.Month,
		Year:     req.Year,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(invoices), total, req.Page, req.PageSize)
}

// ListAuditLogsRequest represents the audit trail filters
type ListAuditLogsRequest struct {
	dto.ListRequest
	UserID *string `form:"user_id" binding:"omitempty,uuid"`
}

// ListAuditLogs returns the security trail
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListAuditLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	input := adminapp.ListAuditLogsInput{
		ActorID:  actor,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.UserID != nil {
		userID, err := uuid.Parse(*req.UserID)
		if err != nil {
			h.BadRequest(c, "Invalid user ID format")
			return
		}
		input.UserID = &userID
	}

	entries, total, err := h.accountService.ListAuditLogs(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toAuditLogResponses(entries), total, req.Page, req.PageSize)
}

// Deactivate suspends an account
func (h *AdminHandler) Deactivate(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	if err := h.accountService.Deactivate(c.Request.Context(), actor, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Reactivate lifts an account suspension
func (h *AdminHandler) Reactivate(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	if err := h.accountService.Reactivate(c.Request.Context(), actor, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteUser removes an account. Deleting an owner cascades to its
// houses, residents, readings and invoices.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	if err := h.accountService.Delete(c.Request.Context(), actor, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// BroadcastRequest represents a platform-wide announcement
type BroadcastRequest struct {
	Title string  `json:"title" binding:"required,min=1,max=200"`
	Body  string  `json:"body" binding:"required,min=1,max=2000"`
	Role  *string `json:"role" binding:"omitempty,oneof=admin owner resident"`
}

// BroadcastResponse reports how the announcement fanned out
type BroadcastResponse struct {
	Recipients int `json:"recipients"`
	Delivered  int `json:"delivered"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Broadcast sends an announcement to every account, optionally
// restricted to one role
func (h *AdminHandler) Broadcast(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.broadcastService.Broadcast(c.Request.Context(), adminapp.BroadcastInput{
		ActorID: actor,
		Title:   req.Title,
		Body:    req.Body,
		Role:    req.Role,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BroadcastResponse{
		Recipients: result.Recipients,
		Delivered:  result.Delivered,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
	})
}

// TestPush sends a test push notification to the caller's own device
func (h *AdminHandler) TestPush(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	status, err := h.broadcastService.TestPush(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"status": status})
}
