package handler

import (
	"time"

	"github.com/shopspring/decimal"

	adminapp "github.com/ecopower/backend/internal/application/admin"
	billingapp "github.com/ecopower/backend/internal/application/billing"
	housingapp "github.com/ecopower/backend/internal/application/housing"
	identityapp "github.com/ecopower/backend/internal/application/identity"
	messagingapp "github.com/ecopower/backend/internal/application/messaging"
	meteringapp "github.com/ecopower/backend/internal/application/metering"
	platformapp "github.com/ecopower/backend/internal/application/platform"
	"github.com/ecopower/backend/internal/domain/audit"
	"github.com/ecopower/backend/internal/domain/billing"
	"github.com/ecopower/backend/internal/domain/metering"
)

// UserResponse represents an account in API responses
type UserResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	AuthMethod  string     `json:"auth_method"`
	OwnerID     *string    `json:"owner_id,omitempty"`
	HouseID     *string    `json:"house_id,omitempty"`
	FirstLogin  bool       `json:"first_login"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toUserResponse(u identityapp.UserInfo) UserResponse {
	resp := UserResponse{
		ID:          u.ID.String(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		AuthMethod:  u.AuthMethod,
		FirstLogin:  u.FirstLogin,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.OwnerID != nil {
		id := u.OwnerID.String()
		resp.OwnerID = &id
	}
	if u.HouseID != nil {
		id := u.HouseID.String()
		resp.HouseID = &id
	}
	return resp
}

func toUserResponses(users []identityapp.UserInfo) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	return resp
}

// SessionResponse represents a successful authentication
type SessionResponse struct {
	AccessToken           string       `json:"access_token"`
	RefreshToken          string       `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time    `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time    `json:"refresh_token_expires_at"`
	TokenType             string       `json:"token_type"`
	FirstLogin            bool         `json:"first_login"`
	User                  UserResponse `json:"user"`
}

func toSessionResponse(r *identityapp.LoginResult) SessionResponse {
	return SessionResponse{
		AccessToken:           r.AccessToken,
		RefreshToken:          r.RefreshToken,
		AccessTokenExpiresAt:  r.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
		TokenType:             r.TokenType,
		FirstLogin:            r.FirstLogin,
		User:                  toUserResponse(r.User),
	}
}

// TokenResponse represents a refreshed token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// HouseResponse represents a house in API responses
type HouseResponse struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	MeterNumber string          `json:"meter_number"`
	TariffKwh   decimal.Decimal `json:"tariff_kwh"`
	HasTariff   bool            `json:"has_tariff"`
	Occupied    bool            `json:"occupied"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toHouseResponse(h housingapp.HouseInfo) HouseResponse {
	return HouseResponse{
		ID:          h.ID.String(),
		OwnerID:     h.OwnerID.String(),
		Name:        h.Name,
		Address:     h.Address,
		City:        h.City,
		MeterNumber: h.MeterNumber,
		TariffKwh:   h.TariffKwh,
		HasTariff:   h.HasTariff,
		Occupied:    h.Occupied,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func toHouseResponses(houses []housingapp.HouseInfo) []HouseResponse {
	resp := make([]HouseResponse, len(houses))
	for i, h := range houses {
		resp[i] = toHouseResponse(h)
	}
	return resp
}

// ReadingResponse represents a meter reading in API responses
type ReadingResponse struct {
	ID            string          `json:"id"`
	ResidentID    string          `json:"resident_id"`
	HouseID       string          `json:"house_id"`
	PreviousIndex decimal.Decimal `json:"previous_index"`
	CurrentIndex  decimal.Decimal `json:"current_index"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	ReadingDate   time.Time       `json:"reading_date"`
	KwhConsumed   decimal.Decimal `json:"kwh_consumed"`
	TariffKwh     decimal.Decimal `json:"tariff_kwh"`
	Amount        decimal.Decimal `json:"amount"`
	Billed        bool            `json:"billed"`
	Comment       string          `json:"comment,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toReadingResponse(r meteringapp.ReadingInfo) ReadingResponse {
	return ReadingResponse{
		ID:            r.ID.String(),
		ResidentID:    r.ResidentID.String(),
		HouseID:       r.HouseID.String(),
		PreviousIndex: r.PreviousIndex,
		CurrentIndex:  r.CurrentIndex,
		Month:         r.Month,
		Year:          r.Year,
		ReadingDate:   r.ReadingDate,
		KwhConsumed:   r.KwhConsumed,
		TariffKwh:     r.TariffKwh,
		Amount:        r.Amount,
		Billed:        r.Billed,
		Comment:       r.Comment,
		CreatedAt:     r.CreatedAt,
	}
}

func toReadingResponses(readings []meteringapp.ReadingInfo) []ReadingResponse {
	resp := make([]ReadingResponse, len(readings))
	for i, r := range readings {
		resp[i] = toReadingResponse(r)
	}
	return resp
}

// RecordReadingResponse reports the stored reading and the anomaly flag
type RecordReadingResponse struct {
	Reading   ReadingResponse `json:"reading"`
	Anomalous bool            `json:"anomalous"`
}

// ConsumptionStatsResponse aggregates readings
type ConsumptionStatsResponse struct {
	Count       int64           `json:"count"`
	TotalKwh    decimal.Decimal `json:"total_kwh"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Billed      int64           `json:"billed"`
	Unbilled    int64           `json:"unbilled"`
}

func toConsumptionStatsResponse(s *metering.ConsumptionStats) ConsumptionStatsResponse {
	return ConsumptionStatsResponse{
		Count:       s.Count,
		TotalKwh:    s.TotalKwh,
		TotalAmount: s.TotalAmount,
		Billed:      s.Billed,
		Unbilled:    s.Unbilled,
	}
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                string          `json:"id"`
	Number            string          `json:"number"`
	ResidentID        string          `json:"resident_id"`
	HouseID           string          `json:"house_id"`
	ConsumptionID     string          `json:"consumption_id"`
	Month             int             `json:"month"`
	Year              int             `json:"year"`
	KwhConsumed       decimal.Decimal `json:"kwh_consumed"`
	TariffKwh         decimal.Decimal `json:"tariff_kwh"`
	AmountConsumption decimal.Decimal `json:"amount_consumption"`
	FixedFees         decimal.Decimal `json:"fixed_fees"`
	AmountTotal       decimal.Decimal `json:"amount_total"`
	Status            string          `json:"status"`
	IssueDate         time.Time       `json:"issue_date"`
	DueDate           time.Time       `json:"due_date"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
}

func toInvoiceResponse(inv billingapp.InvoiceInfo) InvoiceResponse {
	return InvoiceResponse{
		ID:                inv.ID.String(),
		Number:            inv.Number,
		ResidentID:        inv.ResidentID.String(),
		HouseID:           inv.HouseID.String(),
		ConsumptionID:     inv.ConsumptionID.String(),
		Month:             inv.Month,
		Year:              inv.Year,
		KwhConsumed:       inv.KwhConsumed,
		TariffKwh:         inv.TariffKwh,
		AmountConsumption: inv.AmountConsumption,
		FixedFees:         inv.FixedFees,
		AmountTotal:       inv.AmountTotal,
		Status:            inv.Status,
		IssueDate:         inv.IssueDate,
		DueDate:           inv.DueDate,
		PaidAt:            inv.PaidAt,
	}
}

func toInvoiceResponses(invoices []billingapp.InvoiceInfo) []InvoiceResponse {
	resp := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		resp[i] = toInvoiceResponse(inv)
	}
	return resp
}

// InvoiceStatsResponse aggregates invoices by status and amount
type InvoiceStatsResponse struct {
	Count            int64           `json:"count"`
	Pending          int64           `json:"pending"`
	Paid             int64           `json:"paid"`
	Overdue          int64           `json:"overdue"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

func toInvoiceStatsResponse(s *billing.InvoiceStats) InvoiceStatsResponse {
	return InvoiceStatsResponse{
		Count:            s.Count,
		Pending:          s.Pending,
		Paid:             s.Paid,
		Overdue:          s.Overdue,
		TotalBilled:      s.TotalBilled,
		TotalCollected:   s.TotalCollected,
		TotalOutstanding: s.TotalOutstanding,
	}
}

// MessageResponse represents a chat message in API responses
type MessageResponse struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	HouseID     *string    `json:"house_id,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Body        string     `json:"body"`
	SentAt      time.Time  `json:"sent_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

func toMessageResponse(m messagingapp.MessageInfo) MessageResponse {
	resp := MessageResponse{
		ID:          m.ID.String(),
		SenderID:    m.SenderID.String(),
		RecipientID: m.RecipientID.String(),
		Subject:     m.Subject,
		Body:        m.Body,
		SentAt:      m.SentAt,
		ReadAt:      m.ReadAt,
	}
	if m.HouseID != nil {
		id := m.HouseID.String()
		resp.HouseID = &id
	}
	return resp
}

func toMessageResponses(messages []messagingapp.MessageInfo) []MessageResponse {
	resp := make([]MessageResponse, len(messages))
	for i, m := range messages {
		resp[i] = toMessageResponse(m)
	}
	return resp
}

// NotificationResponse represents an in-app notification
type NotificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Delivery  string    `json:"delivery"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationResponse(n messagingapp.NotificationInfo) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID.String(),
		Kind:      n.Kind,
		Title:     n.Title,
		Body:      n.Body,
		Delivery:  n.Delivery,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func toNotificationResponses(notifications []messagingapp.NotificationInfo) []NotificationResponse {
	resp := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = toNotificationResponse(n)
	}
	return resp
}

// DashboardResponse is the platform overview for the admin console
type DashboardResponse struct {
	Owners      int64                 `json:"owners"`
	Residents   int64                 `json:"residents"`
	Houses      int64                 `json:"houses"`
	Readings    int64                 `json:"readings"`
	Invoices    *InvoiceStatsResponse `json:"invoices,omitempty"`
	OnlineUsers int64                 `json:"online_users"`
	GeneratedAt time.Time             `json:"generated_at"`
}

func toDashboardResponse(s *adminapp.DashboardStats) DashboardResponse {
	resp := DashboardResponse{
		Owners:      s.Owners,
		Residents:   s.Residents,
		Houses:      s.Houses,
		Readings:    s.Readings,
		OnlineUsers: s.OnlineUsers,
		GeneratedAt: s.GeneratedAt,
	}
	if s.Invoices != nil {
		stats := toInvoiceStatsResponse(s.Invoices)
		resp.Invoices = &stats
	}
	return resp
}

// SettingsResponse represents the public platform settings
type SettingsResponse struct {
	SupportEmail       string `json:"support_email"`
	SupportPhone       string `json:"support_phone"`
	SupportWhatsapp    string `json:"support_whatsapp"`
	AppVersion         string `json:"app_version"`
	MaintenanceMode    bool   `json:"maintenance_mode"`
	MaintenanceMessage string `json:"maintenance_message,omitempty"`
}

func toSettingsResponse(s *platformapp.SettingsInfo) SettingsResponse {
	return SettingsResponse{
		SupportEmail:       s.SupportEmail,
		SupportPhone:       s.SupportPhone,
		SupportWhatsapp:    s.SupportWhatsapp,
		AppVersion:         s.AppVersion,
		MaintenanceMode:    s.MaintenanceMode,
		MaintenanceMessage: s.MaintenanceMessage,
	}
}

// AuditLogResponse represents one security trail entry
type AuditLogResponse struct {
	ID        string                 `json:"id"`
	UserID    *string                `json:"user_id,omitempty"`
	Level     string                 `json:"level"`
	Module    string                 `json:"module"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func toAuditLogResponses(entries []*audit.LogEntry) []AuditLogResponse {
	out := make([]AuditLogResponse, len(entries))
	for i, e := range entries {
		resp := AuditLogResponse{
			ID:        e.ID.String(),
			Level:     string(e.Level),
			Module:    e.Module,
			Action:    e.Action,
			Message:   e.Message,
			Meta:      e.Meta,
			CreatedAt: e.CreatedAt,
		}
		if e.UserID != nil {
			id := e.UserID.String()
			resp.UserID = &id
		}
		out[i] = resp
	}
	return out
}
