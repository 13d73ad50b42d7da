package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/messaging"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/metrics"
	"github.com/ecopower/backend/internal/infrastructure/notify"
)

// broadcastBatchSize is how many pushes go out before a pause, keeping
// the provider below its burst limits
const broadcastBatchSize = 10

// broadcastBatchPause is the pause between batches
const broadcastBatchPause = 500 * time.Millisecond

// BroadcastService fans platform announcements out to every account
type BroadcastService struct {
	users         identity.UserRepository
	authorizer    identity.Authorizer
	dispatcher    *notify.Dispatcher
	notifications messaging.NotificationRepository
	collector     *metrics.Collector
	logger        *zap.Logger
}

// NewBroadcastService creates a new broadcast service
func NewBroadcastService(
	users identity.UserRepository,
	authorizer identity.Authorizer,
	dispatcher *notify.Dispatcher,
	notifications messaging.NotificationRepository,
	collector *metrics.Collector,
	logger *zap.Logger,
) *BroadcastService {
	return &BroadcastService{
		users:         users,
		authorizer:    authorizer,
		dispatcher:    dispatcher,
		notifications: notifications,
		collector:     collector,
		logger:        logger,
	}
}

// Broadcast stores an announcement for every matching account and
// pushes it in batches. Admin only.
func (s *BroadcastService) Broadcast(ctx context.Context, input BroadcastInput) (*BroadcastResult, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if !caps.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	recipients, err := s.collectRecipients(ctx, input.Role)
	if err != nil {
		return nil, err
	}

	result := &BroadcastResult{Recipients: len(recipients)}
	for i, user := range recipients {
		if i > 0 && i%broadcastBatchSize == 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(broadcastBatchPause):
			}
		}
		s.deliverOne(ctx, user, input, result)
	}

	s.logger.Info("broadcast completed",
		zap.Int("recipients", result.Recipients),
		zap.Int("delivered", result.Delivered),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *BroadcastService) collectRecipients(ctx context.Context, role *string) ([]*identity.User, error) {
	var all []*identity.User
	for page := 1; ; page++ {
		filter := identity.NewUserFilter().WithPagination(page, 100)
		if role != nil {
			filter = filter.WithRole(identity.Role(*role))
		}
		users, total, err := s.users.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, users...)
		if int64(len(all)) >= total || len(users) == 0 {
			return all, nil
		}
	}
}

func (s *BroadcastService) deliverOne(ctx context.Context, user *identity.User, input BroadcastInput, result *BroadcastResult) {
	n, err := messaging.NewNotification(user.ID, messaging.KindBroadcast, input.Title, input.Body)
	if err != nil {
		return
	}

	status := s.dispatcher.Push(ctx, user, input.Title, input.Body, map[string]string{
		"kind": string(messaging.KindBroadcast),
	})
	n.RecordDelivery(status)
	s.collector.RecordPushDelivery(string(status))

	switch status {
	case messaging.DeliveryDelivered:
		result.Delivered++
	case messaging.DeliverySkipped:
		result.Skipped++
	default:
		result.Failed++
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Error("broadcast notification failed",
			zap.String("recipient_id", user.ID.String()), zap.Error(err))
	}
}

// TestPush sends a test push to the actor's own device. Admin only.
func (s *BroadcastService) TestPush(ctx context.Context, actorID uuid.UUID) (string, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return "", err
	}
	if !caps.IsAdmin() {
		return "", shared.ErrForbidden
	}

	status := s.dispatcher.Push(ctx, caps.Actor(), "Test notification",
		"Push delivery is working.", map[string]string{"kind": "test"})
	s.collector.RecordPushDelivery(string(status))
	return string(status), nil
}
