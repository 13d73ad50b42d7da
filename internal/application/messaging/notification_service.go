package messaging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/ecopower/backend/internal/domain/messaging"
	"github.com/ecopower/backend/internal/domain/shared"
)

// NotificationService exposes each account's notification inbox
type NotificationService struct {
	notifications domain.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifications domain.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

// List returns the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actorID uuid.UUID, page, pageSize int) (*NotificationList, error) {
	notifications, total, err := s.notifications.FindByRecipient(ctx, actorID, page, pageSize)
	if err != nil {
		return nil, err
	}

	infos := make([]NotificationInfo, len(notifications))
	for i, n := range notifications {
		infos[i] = NewNotificationInfo(n)
	}
	return &NotificationList{
		Notifications: infos,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

// UnreadCount returns the actor's number of unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	return s.notifications.CountUnread(ctx, actorID)
}

// MarkRead marks one of the actor's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error {
	n, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != actorID {
		return shared.ErrForbidden
	}
	if n.Read {
		return nil
	}
	n.MarkRead()
	return s.notifications.Update(ctx, n)
}

// MarkAllRead marks all of the actor's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, actorID uuid.UUID) error {
	return s.notifications.MarkAllRead(ctx, actorID)
}
