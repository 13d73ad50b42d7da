package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecopower/backend/internal/domain/billing"
)

// DashboardStats is the platform-wide overview for the admin console
type DashboardStats struct {
	Owners      int64
	Residents   int64
	Houses      int64
	Readings    int64
	Invoices    *billing.InvoiceStats
	OnlineUsers int64
	GeneratedAt time.Time
}

// ListUsersInput contains the filter options for the admin user listing
type ListUsersInput struct {
	ActorID  uuid.UUID
	Keyword  string
	Role     *string
	Page     int
	PageSize int
}

// ListHousesInput contains the filter options for the admin house listing
type ListHousesInput struct {
	ActorID  uuid.UUID
	Keyword  string
	Page     int
	PageSize int
}

// ListInvoicesInput contains the filter options for the admin invoice listing
type ListInvoicesInput struct {
	ActorID  uuid.UUID
	Status   *string
	Month    *int
	Year     *int
	Page     int
	PageSize int
}

// ListAuditLogsInput contains the filter options for the audit trail
type ListAuditLogsInput struct {
	ActorID  uuid.UUID
	UserID   *uuid.UUID
	Page     int
	PageSize int
}

// BroadcastInput contains the input for a platform-wide announcement
type BroadcastInput struct {
	ActorID uuid.UUID
	Title   string
	Body    string
	Role    *string // Restrict to one role when set
}

// BroadcastResult reports how the announcement fanned out
type BroadcastResult struct {
	Recipients int
	Delivered  int
	Skipped    int
	Failed     int
}
