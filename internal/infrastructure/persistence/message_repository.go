package persistence

import (
	"context"
	"time"

	"github.com/ecopower/backend/internal/domain/messaging"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageModel is the GORM model for chat messages
type MessageModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SenderID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index"`
	HouseID     *uuid.UUID `gorm:"type:uuid;index"`
	Subject     string     `gorm:"type:varchar(200)"`
	Body        string     `gorm:"type:text;not null"`
	SentAt      time.Time  `gorm:"not null;index"`
	ReadAt      *time.Time
	Version     int       `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (MessageModel) TableName() string {
	return "messages"
}

// ToEntity converts the model to a domain entity
func (m *MessageModel) ToEntity() *messaging.Message {
	return &messaging.Message{
		BaseAggregateRoot: aggregateRoot(m.ID, m.Version, m.CreatedAt, m.UpdatedAt),
		SenderID:          m.SenderID,
		RecipientID:       m.RecipientID,
		HouseID:           m.HouseID,
		Subject:           m.Subject,
		Body:              m.Body,
		SentAt:            m.SentAt,
		ReadAt:            m.ReadAt,
	}
}

// MessageModelFromEntity creates a model from a domain entity
func MessageModelFromEntity(msg *messaging.Message) *MessageModel {
	return &MessageModel{
		ID:          msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		HouseID:     msg.HouseID,
		Subject:     msg.Subject,
		Body:        msg.Body,
		SentAt:      msg.SentAt,
		ReadAt:      msg.ReadAt,
		Version:     msg.Version,
		CreatedAt:   msg.CreatedAt,
		UpdatedAt:   msg.UpdatedAt,
	}
}

// GormMessageRepository implements messaging.MessageRepository
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new message repository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create creates a new message
func (r *GormMessageRepository) Create(ctx context.Context, m *messaging.Message) error {
	return r.db.WithContext(ctx).Create(MessageModelFromEntity(m)).Error
}

// Update updates an existing message
func (r *GormMessageRepository) Update(ctx context.Context, m *messaging.Message) error {
	model := MessageModelFromEntity(m)
	result := r.db.WithContext(ctx).Model(&MessageModel{}).
		Where("id = ?", model.ID).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a message by ID
func (r *GormMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&MessageModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a message by ID
func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*messaging.Message, error) {
	var model MessageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindConversation returns the bidirectional history between two
// accounts, oldest first
func (r *GormMessageRepository) FindConversation(ctx context.Context, a, b uuid.UUID, page, pageSize int) ([]*messaging.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&MessageModel{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Where("house_id IS NULL")
	return r.paginate(query, page, pageSize)
}

// FindByHouse returns the house-wide history, oldest first
func (r *GormMessageRepository) FindByHouse(ctx context.Context, houseID uuid.UUID, page, pageSize int) ([]*messaging.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&MessageModel{}).
		Where("house_id = ?", houseID)
	return r.paginate(query, page, pageSize)
}

func (r *GormMessageRepository) paginate(query *gorm.DB, page, pageSize int) ([]*messaging.Message, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}

	var models []MessageModel
	err := query.Order("sent_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	messages := make([]*messaging.Message, len(models))
	for i := range models {
		messages[i] = models[i].ToEntity()
	}
	return messages, total, nil
}

// CountUnread returns the number of unread messages for a recipient
func (r *GormMessageRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&MessageModel{}).
		Where("recipient_id = ? AND sender_id != ? AND read_at IS NULL", recipientID, recipientID).
		Count(&count).Error
	return count, err
}

// Ensure GormMessageRepository implements the interface
var _ messaging.MessageRepository = (*GormMessageRepository)(nil)
