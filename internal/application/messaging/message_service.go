package messaging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecopower/backend/internal/domain/identity"
	domain "github.com/ecopower/backend/internal/domain/messaging"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/notify"
	"github.com/ecopower/backend/internal/infrastructure/presence"
)

// MessageService handles chat between owners, residents and the admin
type MessageService struct {
	messages   domain.MessageRepository
	users      identity.UserRepository
	authorizer identity.Authorizer
	dispatcher *notify.Dispatcher
	registry   presence.Registry
	logger     *zap.Logger
}

// NewMessageService creates a new message service
func NewMessageService(
	messages domain.MessageRepository,
	users identity.UserRepository,
	authorizer identity.Authorizer,
	dispatcher *notify.Dispatcher,
	registry presence.Registry,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messages:   messages,
		users:      users,
		authorizer: authorizer,
		dispatcher: dispatcher,
		registry:   registry,
		logger:     logger,
	}
}

// canMessage reports whether the actor may open a conversation with the
// target. Owners talk to their residents, residents to their owner, the
// admin to anyone.
func (s *MessageService) canMessage(ctx context.Context, caps *identity.CapabilitySet, targetID uuid.UUID) (bool, error) {
	if caps.IsAdmin() {
		return true, nil
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	if target.IsAdmin() {
		return true, nil
	}

	actor := caps.Actor()
	if actor.IsOwner() {
		return target.OwnerID != nil && *target.OwnerID == actor.ID, nil
	}
	if actor.IsResident() {
		return actor.OwnerID != nil && *actor.OwnerID == target.ID, nil
	}
	return false, nil
}

// Send stores a private message and pushes it to the recipient's device
// when the recipient has no live connection
func (s *MessageService) Send(ctx context.Context, input SendMessageInput) (*MessageInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(s.canMessage(ctx, caps, input.RecipientID)); err != nil {
		return nil, err
	}

	message, err := domain.NewMessage(input.ActorID, input.RecipientID, nil, input.Subject, input.Body)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	s.pushWhenOffline(ctx, caps.Actor(), input.RecipientID, message)

	info := NewMessageInfo(message)
	return &info, nil
}

// SendToHouse stores a house-wide message and pushes it to every
// offline resident of the house
func (s *MessageService) SendToHouse(ctx context.Context, input SendHouseMessageInput) (*MessageInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanManageHouse(ctx, input.HouseID)); err != nil {
		return nil, err
	}

	message, err := domain.NewHouseMessage(input.ActorID, input.HouseID, input.Subject, input.Body)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	residents, err := s.users.FindResidentsByHouse(ctx, input.HouseID)
	if err != nil {
		s.logger.Error("house fan-out lookup failed", zap.Error(err))
	} else {
		for _, resident := range residents {
			s.pushWhenOffline(ctx, caps.Actor(), resident.ID, message)
		}
	}

	info := NewMessageInfo(message)
	return &info, nil
}

// pushWhenOffline pushes a message to the recipient's device unless a
// live connection will deliver it. Push failures are logged only.
func (s *MessageService) pushWhenOffline(ctx context.Context, sender *identity.User, recipientID uuid.UUID, message *domain.Message) {
	online, err := s.registry.IsOnline(ctx, recipientID)
	if err != nil {
		s.logger.Warn("presence check failed", zap.Error(err))
	}
	if online {
		return
	}

	recipient, err := s.users.FindByID(ctx, recipientID)
	if err != nil {
		return
	}

	title := "Message from " + sender.FirstName + " " + sender.LastName
	status := s.dispatcher.Push(ctx, recipient, title, message.Body, map[string]string{
		"kind":       string(domain.KindMessage),
		"message_id": message.ID.String(),
		"sender_id":  sender.ID.String(),
	})
	if status == domain.DeliveryFailed {
		s.logger.Warn("message push failed",
			zap.String("recipient_id", recipientID.String()),
			zap.String("message_id", message.ID.String()),
		)
	}
}

// Conversation returns the bidirectional history between the actor and
// another account, oldest first
func (s *MessageService) Conversation(ctx context.Context, actorID, otherID uuid.UUID, page, pageSize int) (*MessageList, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(s.canMessage(ctx, caps, otherID)); err != nil {
		return nil, err
	}

	messages, total, err := s.messages.FindConversation(ctx, actorID, otherID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &MessageList{
		Messages: toMessageInfos(messages),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// HouseHistory returns the house-wide history, oldest first
func (s *MessageService) HouseHistory(ctx context.Context, actorID, houseID uuid.UUID, page, pageSize int) (*MessageList, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewHouse(ctx, houseID)); err != nil {
		return nil, err
	}

	messages, total, err := s.messages.FindByHouse(ctx, houseID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &MessageList{
		Messages: toMessageInfos(messages),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// MarkRead records that the recipient read a message
func (s *MessageService) MarkRead(ctx context.Context, actorID, messageID uuid.UUID) error {
	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.RecipientID != actorID {
		return shared.ErrForbidden
	}
	if message.ReadAt != nil {
		return nil
	}
	message.MarkRead()
	return s.messages.Update(ctx, message)
}

// UnreadCount returns the actor's number of unread messages
func (s *MessageService) UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	return s.messages.CountUnread(ctx, actorID)
}
