package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// Delete deletes a user by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByPhone finds a user by phone
	FindByPhone(ctx context.Context, phone string) (*User, error)

	// FindByIdentifier finds a user by email or phone, whichever matches
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)

	// FindByGoogleID finds a user by linked Google identity
	FindByGoogleID(ctx context.Context, googleID string) (*User, error)

	// FindAll returns users matching the filter with pagination
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)

	// FindResidentsByOwner returns all residents provisioned by an owner
	FindResidentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*User, error)

	// FindResidentsByHouse returns all residents occupying a house
	FindResidentsByHouse(ctx context.Context, houseID uuid.UUID) ([]*User, error)

	// ExistsByEmail checks if an email already exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByPhone checks if a phone already exists
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	// CountByRole returns the number of accounts holding a role
	CountByRole(ctx context.Context, role Role) (int64, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	// Search keyword for name, email, or phone
	Keyword string

	// Filter by role
	Role *Role

	// Filter by provisioning owner
	OwnerID *uuid.UUID

	// Pagination
	Page     int
	PageSize int

	// Sorting
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// NewUserFilter creates a new UserFilter with default values
func NewUserFilter() UserFilter {
	return UserFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// WithKeyword sets the search keyword
func (f UserFilter) WithKeyword(keyword string) UserFilter {
	f.Keyword = keyword
	return f
}

// WithRole sets the role filter
func (f UserFilter) WithRole(role Role) UserFilter {
	f.Role = &role
	return f
}

// WithOwner sets the provisioning owner filter
func (f UserFilter) WithOwner(ownerID uuid.UUID) UserFilter {
	f.OwnerID = &ownerID
	return f
}

// WithPagination sets pagination parameters
func (f UserFilter) WithPagination(page, pageSize int) UserFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f UserFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f UserFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
