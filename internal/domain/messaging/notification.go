package messaging

import (
	"strings"
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// NotificationKind classifies a notification for client rendering
type NotificationKind string

const (
	KindInvoice     NotificationKind = "invoice"
	KindPayment     NotificationKind = "payment"
	KindConsumption NotificationKind = "consumption"
	KindQuota       NotificationKind = "quota"
	KindAnomaly     NotificationKind = "anomaly"
	KindResident    NotificationKind = "resident"
	KindMessage     NotificationKind = "message"
	KindMaintenance NotificationKind = "maintenance"
	KindBroadcast   NotificationKind = "broadcast"
)

// DeliveryStatus records what happened to the out-of-band delivery of
// a notification (push, email, WhatsApp)
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliverySkipped   DeliveryStatus = "skipped" // No device token registered
	DeliveryFailed    DeliveryStatus = "failed"
)

// Notification is a persisted in-app notification. The row is written
// before any push attempt, so the inbox survives channel failures.
type Notification struct {
	shared.BaseAggregateRoot
	RecipientID uuid.UUID
	Kind        NotificationKind
	Title       string
	Body        string
	Delivery    DeliveryStatus
	Read        bool
}

// NewNotification creates a notification for a recipient
func NewNotification(recipientID uuid.UUID, kind NotificationKind, title, body string) (*Notification, error) {
	if recipientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Notification must have a recipient")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Notification title cannot be empty")
	}

	return &Notification{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RecipientID:       recipientID,
		Kind:              kind,
		Title:             title,
		Body:              strings.TrimSpace(body),
		Delivery:          DeliveryPending,
	}, nil
}

// RecordDelivery stores the outcome of the out-of-band delivery
func (n *Notification) RecordDelivery(status DeliveryStatus) {
	n.Delivery = status
	n.UpdatedAt = time.Now()
	n.IncrementVersion()
}

// MarkRead marks the notification as read
func (n *Notification) MarkRead() {
	if n.Read {
		return
	}
	n.Read = true
	n.UpdatedAt = time.Now()
	n.IncrementVersion()
}
