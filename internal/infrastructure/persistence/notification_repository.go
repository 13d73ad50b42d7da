package persistence

import (
	"context"
	"time"

	"github.com/ecopower/backend/internal/domain/messaging"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationModel is the GORM model for in-app notifications
type NotificationModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind        string    `gorm:"type:varchar(30);not null"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Body        string    `gorm:"type:text"`
	Delivery    string    `gorm:"type:varchar(20);not null;default:'pending'"`
	Read        bool      `gorm:"not null;default:false"`
	Version     int       `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToEntity converts the model to a domain entity
func (m *NotificationModel) ToEntity() *messaging.Notification {
	return &messaging.Notification{
		BaseAggregateRoot: aggregateRoot(m.ID, m.Version, m.CreatedAt, m.UpdatedAt),
		RecipientID:       m.RecipientID,
		Kind:              messaging.NotificationKind(m.Kind),
		Title:             m.Title,
		Body:              m.Body,
		Delivery:          messaging.DeliveryStatus(m.Delivery),
		Read:              m.Read,
	}
}

// NotificationModelFromEntity creates a model from a domain entity
func NotificationModelFromEntity(n *messaging.Notification) *NotificationModel {
	return &NotificationModel{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Kind:        string(n.Kind),
		Title:       n.Title,
		Body:        n.Body,
		Delivery:    string(n.Delivery),
		Read:        n.Read,
		Version:     n.Version,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

// GormNotificationRepository implements messaging.NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new notification repository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a new notification
func (r *GormNotificationRepository) Create(ctx context.Context, n *messaging.Notification) error {
	return r.db.WithContext(ctx).Create(NotificationModelFromEntity(n)).Error
}

// Update updates an existing notification
func (r *GormNotificationRepository) Update(ctx context.Context, n *messaging.Notification) error {
	model := NotificationModelFromEntity(n)
	result := r.db.WithContext(ctx).Model(&NotificationModel{}).
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

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*messaging.Notification, error) {
	var model NotificationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByRecipient returns a recipient's notifications, newest first
func (r *GormNotificationRepository) FindByRecipient(ctx context.Context, recipientID uuid.UUID, page, pageSize int) ([]*messaging.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("recipient_id = ?", recipientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	var models []NotificationModel
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]*messaging.Notification, len(models))
	for i := range models {
		notifications[i] = models[i].ToEntity()
	}
	return notifications, total, nil
}

// CountUnread returns the number of unread notifications
func (r *GormNotificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAllRead marks all of a recipient's notifications as read
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Updates(map[string]interface{}{
			"read":       true,
			"updated_at": time.Now(),
		}).Error
}

// Ensure GormNotificationRepository implements the interface
var _ messaging.NotificationRepository = (*GormNotificationRepository)(nil)
