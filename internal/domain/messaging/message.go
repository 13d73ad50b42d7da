package messaging

import (
	"strings"
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Message is one chat message between two accounts. House-wide messages
// reuse the sender as recipient with the house set, so a single table
// covers both private and house conversations.
type Message struct {
	shared.BaseAggregateRoot
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	HouseID     *uuid.UUID
	Subject     string
	Body        string
	SentAt      time.Time
	ReadAt      *time.Time
}

// NewMessage creates a private message between two accounts
func NewMessage(senderID, recipientID uuid.UUID, houseID *uuid.UUID, subject, body string) (*Message, error) {
	if senderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SENDER", "Message must have a sender")
	}
	if recipientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Message must have a recipient")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "Message body cannot be empty")
	}
	if len(body) > 5000 {
		return nil, shared.NewDomainError("INVALID_BODY", "Message body cannot exceed 5000 characters")
	}

	return &Message{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SenderID:          senderID,
		RecipientID:       recipientID,
		HouseID:           houseID,
		Subject:           strings.TrimSpace(subject),
		Body:              body,
		SentAt:            time.Now(),
	}, nil
}

// NewHouseMessage creates a message addressed to a whole house
func NewHouseMessage(senderID, houseID uuid.UUID, subject, body string) (*Message, error) {
	if houseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_HOUSE", "House message must reference a house")
	}
	// Recipient mirrors the sender for house-wide messages
	m, err := NewMessage(senderID, senderID, &houseID, subject, body)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// IsHouseWide reports whether the message targets a whole house
func (m *Message) IsHouseWide() bool {
	return m.HouseID != nil && m.SenderID == m.RecipientID
}

// MarkRead records when the recipient read the message
func (m *Message) MarkRead() {
	if m.ReadAt != nil {
		return
	}
	now := time.Now()
	m.ReadAt = &now
	m.UpdatedAt = now
	m.IncrementVersion()
}
