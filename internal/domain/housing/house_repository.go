package housing

import (
	"context"

	"github.com/google/uuid"
)

// HouseRepository defines the interface for house persistence
type HouseRepository interface {
	// Create creates a new house
	Create(ctx context.Context, house *House) error

	// Update updates an existing house
	Update(ctx context.Context, house *House) error

	// Delete deletes a house by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a house by ID
	FindByID(ctx context.Context, id uuid.UUID) (*House, error)

	// FindByOwner returns all houses registered by an owner
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*House, error)

	// FindAll returns houses matching the filter with pagination
	FindAll(ctx context.Context, filter HouseFilter) ([]*House, int64, error)

	// OwnerOf returns the owner of a house
	OwnerOf(ctx context.Context, houseID uuid.UUID) (uuid.UUID, error)

	// Count returns the total number of houses
	Count(ctx context.Context) (int64, error)
}

// HouseFilter contains filter options for querying houses
type HouseFilter struct {
	Keyword  string
	OwnerID  *uuid.UUID
	Occupied *bool

	Page     int
	PageSize int

	SortBy    string
	SortOrder string
}

// NewHouseFilter creates a new HouseFilter with default values
func NewHouseFilter() HouseFilter {
	return HouseFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// WithKeyword sets the search keyword
func (f HouseFilter) WithKeyword(keyword string) HouseFilter {
	f.Keyword = keyword
	return f
}

// WithOwner sets the owner filter
func (f HouseFilter) WithOwner(ownerID uuid.UUID) HouseFilter {
	f.OwnerID = &ownerID
	return f
}

// WithOccupied sets the occupancy filter
func (f HouseFilter) WithOccupied(occupied bool) HouseFilter {
	f.Occupied = &occupied
	return f
}

// WithPagination sets pagination parameters
func (f HouseFilter) WithPagination(page, pageSize int) HouseFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f HouseFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f HouseFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
