package messaging

import (
	"context"

	"github.com/google/uuid"
)

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	// Create creates a new message
	Create(ctx context.Context, m *Message) error

	// Update updates an existing message
	Update(ctx context.Context, m *Message) error

	// Delete deletes a message by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a message by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)

	// FindConversation returns the bidirectional history between two
	// accounts, oldest first, with pagination
	FindConversation(ctx context.Context, a, b uuid.UUID, page, pageSize int) ([]*Message, int64, error)

	// FindByHouse returns the house-wide history, oldest first
	FindByHouse(ctx context.Context, houseID uuid.UUID, page, pageSize int) ([]*Message, int64, error)

	// CountUnread returns the number of unread messages for a recipient
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	// Create creates a new notification
	Create(ctx context.Context, n *Notification) error

	// Update updates an existing notification
	Update(ctx context.Context, n *Notification) error

	// FindByID finds a notification by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// FindByRecipient returns a recipient's notifications, newest
	// first, with pagination
	FindByRecipient(ctx context.Context, recipientID uuid.UUID, page, pageSize int) ([]*Notification, int64, error)

	// CountUnread returns the number of unread notifications
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)

	// MarkAllRead marks all of a recipient's notifications as read
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
}
