package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecopower/backend/internal/domain/audit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogModel is the GORM model for audit entries. Meta is stored as
// a JSON blob so entries can carry arbitrary context.
type AuditLogModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	Level     string     `gorm:"type:varchar(20);not null"`
	Module    string     `gorm:"type:varchar(50);not null;index"`
	Action    string     `gorm:"type:varchar(100);not null"`
	Message   string     `gorm:"type:text"`
	Meta      []byte     `gorm:"type:jsonb"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToEntity converts the model to a domain entity
func (m *AuditLogModel) ToEntity() *audit.LogEntry {
	var meta map[string]interface{}
	if len(m.Meta) > 0 {
		// A row with unreadable meta still surfaces the entry itself
		_ = json.Unmarshal(m.Meta, &meta)
	}
	return &audit.LogEntry{
		BaseEntity: baseEntity(m.ID, m.CreatedAt, m.UpdatedAt),
		UserID:     m.UserID,
		Level:      audit.Level(m.Level),
		Module:     m.Module,
		Action:     m.Action,
		Message:    m.Message,
		Meta:       meta,
	}
}

// AuditLogModelFromEntity creates a model from a domain entity
func AuditLogModelFromEntity(e *audit.LogEntry) (*AuditLogModel, error) {
	var meta []byte
	if e.Meta != nil {
		encoded, err := json.Marshal(e.Meta)
		if err != nil {
			return nil, err
		}
		meta = encoded
	}
	return &AuditLogModel{
		ID:        e.ID,
		UserID:    e.UserID,
		Level:     string(e.Level),
		Module:    e.Module,
		Action:    e.Action,
		Message:   e.Message,
		Meta:      meta,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

// GormAuditLogRepository implements audit.LogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new audit log repository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends an audit entry
func (r *GormAuditLogRepository) Create(ctx context.Context, entry *audit.LogEntry) error {
	model, err := AuditLogModelFromEntity(entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByUser returns a user's entries, newest first
func (r *GormAuditLogRepository) FindByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*audit.LogEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&AuditLogModel{}).
		Where("user_id = ?", userID)
	return r.paginate(query, page, pageSize)
}

// FindAll returns entries, newest first, with pagination
func (r *GormAuditLogRepository) FindAll(ctx context.Context, page, pageSize int) ([]*audit.LogEntry, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Model(&AuditLogModel{}), page, pageSize)
}

func (r *GormAuditLogRepository) paginate(query *gorm.DB, page, pageSize int) ([]*audit.LogEntry, int64, error) {
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

	var models []AuditLogModel
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]*audit.LogEntry, len(models))
	for i := range models {
		entries[i] = models[i].ToEntity()
	}
	return entries, total, nil
}

// DeleteByUser removes all entries of a user
func (r *GormAuditLogRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&AuditLogModel{}, "user_id = ?", userID).Error
}

// Ensure GormAuditLogRepository implements the interface
var _ audit.LogRepository = (*GormAuditLogRepository)(nil)
