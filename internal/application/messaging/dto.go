package messaging

import (
	"time"

	"github.com/google/uuid"

	domain "github.com/ecopower/backend/internal/domain/messaging"
)

// SendMessageInput contains the input for a private message
type SendMessageInput struct {
	ActorID     uuid.UUID
	RecipientID uuid.UUID
	Subject     string
	Body        string
}

// SendHouseMessageInput contains the input for a house-wide message
type SendHouseMessageInput struct {
	ActorID uuid.UUID
	HouseID uuid.UUID
	Subject string
	Body    string
}

// MessageInfo is the message view returned to clients
type MessageInfo struct {
	ID          uuid.UUID
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	HouseID     *uuid.UUID
	Subject     string
	Body        string
	SentAt      time.Time
	ReadAt      *time.Time
}

// NewMessageInfo maps a domain message to its client view
func NewMessageInfo(m *domain.Message) MessageInfo {
	return MessageInfo{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		HouseID:     m.HouseID,
		Subject:     m.Subject,
		Body:        m.Body,
		SentAt:      m.SentAt,
		ReadAt:      m.ReadAt,
	}
}

// MessageList is a paginated conversation slice, oldest first
type MessageList struct {
	Messages []MessageInfo
	Total    int64
	Page     int
	PageSize int
}

// NotificationInfo is the notification view returned to clients
type NotificationInfo struct {
	ID        uuid.UUID
	Kind      string
	Title     string
	Body      string
	Delivery  string
	Read      bool
	CreatedAt time.Time
}

// NewNotificationInfo maps a domain notification to its client view
func NewNotificationInfo(n *domain.Notification) NotificationInfo {
	return NotificationInfo{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		Delivery:  string(n.Delivery),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationList is a paginated list of notifications, newest first
type NotificationList struct {
	Notifications []NotificationInfo
	Total         int64
	Page          int
	PageSize      int
}

func toMessageInfos(messages []*domain.Message) []MessageInfo {
	infos := make([]MessageInfo, len(messages))
	for i, m := range messages {
		infos[i] = NewMessageInfo(m)
	}
	return infos
}
