package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is the GORM model for user accounts
type UserModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FirstName    string     `gorm:"type:varchar(100);not null"`
	LastName     string     `gorm:"type:varchar(100);not null"`
	Email        *string    `gorm:"type:varchar(200);uniqueIndex"`
	Phone        *string    `gorm:"type:varchar(50);uniqueIndex"`
	PasswordHash string     `gorm:"type:varchar(255)"`
	GoogleID     *string    `gorm:"type:varchar(255);uniqueIndex"`
	AuthMethod   string     `gorm:"type:varchar(20);not null;default:'local'"`
	Role         string     `gorm:"type:varchar(20);not null;index"`
	OwnerID      *uuid.UUID `gorm:"type:uuid;index"`
	HouseID      *uuid.UUID `gorm:"type:uuid;index"`
	FirstLogin   bool       `gorm:"not null;default:false"`
	DeviceToken  string     `gorm:"type:varchar(512)"`
	RefreshToken string     `gorm:"type:varchar(1024)"`
	Active       bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
	Version      int       `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts the model to a domain entity
func (m *UserModel) ToEntity() *identity.User {
	u := &identity.User{
		BaseAggregateRoot: aggregateRoot(m.ID, m.Version, m.CreatedAt, m.UpdatedAt),
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		PasswordHash:      m.PasswordHash,
		AuthMethod:        identity.AuthMethod(m.AuthMethod),
		Role:              identity.Role(m.Role),
		OwnerID:           m.OwnerID,
		HouseID:           m.HouseID,
		FirstLogin:        m.FirstLogin,
		DeviceToken:       m.DeviceToken,
		RefreshToken:      m.RefreshToken,
		Active:            m.Active,
		LastLoginAt:       m.LastLoginAt,
	}
	if m.Email != nil {
		u.Email = *m.Email
	}
	if m.Phone != nil {
		u.Phone = *m.Phone
	}
	if m.GoogleID != nil {
		u.GoogleID = *m.GoogleID
	}
	return u
}

// UserModelFromEntity creates a model from a domain entity
func UserModelFromEntity(u *identity.User) *UserModel {
	m := &UserModel{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		AuthMethod:   string(u.AuthMethod),
		Role:         string(u.Role),
		OwnerID:      u.OwnerID,
		HouseID:      u.HouseID,
		FirstLogin:   u.FirstLogin,
		DeviceToken:  u.DeviceToken,
		RefreshToken: u.RefreshToken,
		Active:       u.Active,
		LastLoginAt:  u.LastLoginAt,
		Version:      u.Version,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	// Unique columns stay NULL rather than empty string so the unique
	// index tolerates accounts without that identifier
	if u.Email != "" {
		m.Email = &u.Email
	}
	if u.Phone != "" {
		m.Phone = &u.Phone
	}
	if u.GoogleID != "" {
		m.GoogleID = &u.GoogleID
	}
	return m
}

// GormUserRepository implements identity.UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new user repository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	model := UserModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update updates an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	model := UserModelFromEntity(user)
	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", model.ID).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return shared.ErrAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a user by ID
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByPhone finds a user by phone
func (r *GormUserRepository) FindByPhone(ctx context.Context, phone string) (*identity.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "phone = ?", phone).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByIdentifier finds a user by email or phone, whichever matches
func (r *GormUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).
		Where("email = ? OR phone = ?", identifier, identifier).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByGoogleID finds a user by linked Google identity
func (r *GormUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*identity.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "google_id = ?", googleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindAll returns users matching the filter with pagination
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&UserModel{})

	if filter.Role != nil {
		query = query.Where("role = ?", string(*filter.Role))
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Keyword != "" {
		pattern := "%" + strings.ToLower(filter.Keyword) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern, "%"+filter.Keyword+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := validateUserSortField(filter.SortBy)
	sortOrder := validateSortOrder(filter.SortOrder)

	var models []UserModel
	err := query.Order(sortBy + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	users := make([]*identity.User, len(models))
	for i := range models {
		users[i] = models[i].ToEntity()
	}
	return users, total, nil
}

// FindResidentsByOwner returns all residents provisioned by an owner
func (r *GormUserRepository) FindResidentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*identity.User, error) {
	var models []UserModel
	err := r.db.WithContext(ctx).
		Where("role = ? AND owner_id = ?", string(identity.RoleResident), ownerID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]*identity.User, len(models))
	for i := range models {
		users[i] = models[i].ToEntity()
	}
	return users, nil
}

// FindResidentsByHouse returns all residents occupying a house
func (r *GormUserRepository) FindResidentsByHouse(ctx context.Context, houseID uuid.UUID) ([]*identity.User, error) {
	var models []UserModel
	err := r.db.WithContext(ctx).
		Where("role = ? AND house_id = ?", string(identity.RoleResident), houseID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]*identity.User, len(models))
	for i := range models {
		users[i] = models[i].ToEntity()
	}
	return users, nil
}

// ExistsByEmail checks if an email already exists
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// ExistsByPhone checks if a phone already exists
func (r *GormUserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("phone = ?", phone).
		Count(&count).Error
	return count > 0, err
}

// CountByRole returns the number of accounts holding a role
func (r *GormUserRepository) CountByRole(ctx context.Context, role identity.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("role = ?", string(role)).
		Count(&count).Error
	return count, err
}

var userAllowedSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"first_name": true,
	"last_name":  true,
	"email":      true,
	"role":       true,
}

func validateUserSortField(field string) string {
	if userAllowedSortFields[field] {
		return field
	}
	return "created_at"
}

// Ensure GormUserRepository implements the interface
var _ identity.UserRepository = (*GormUserRepository)(nil)
