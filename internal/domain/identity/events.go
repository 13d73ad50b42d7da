package identity

import (
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the identity domain
const (
	EventUserRegistered      = "identity.user.registered"
	EventResidentProvisioned = "identity.resident.provisioned"
	EventUserDeleted         = "identity.user.deleted"
)

// UserRegisteredEvent is raised when an owner or admin account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Role  Role   `json:"role"`
	Email string `json:"email"`
}

// NewUserRegisteredEvent creates a new user registered event
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventUserRegistered, "User", u.ID),
		Role:            u.Role,
		Email:           u.Email,
	}
}

// ResidentProvisionedEvent is raised when an owner provisions a resident
type ResidentProvisionedEvent struct {
	shared.BaseDomainEvent
	OwnerID uuid.UUID `json:"owner_id"`
	HouseID uuid.UUID `json:"house_id"`
}

// NewResidentProvisionedEvent creates a new resident provisioned event
func NewResidentProvisionedEvent(u *User) *ResidentProvisionedEvent {
	ev := &ResidentProvisionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventResidentProvisioned, "User", u.ID),
	}
	if u.OwnerID != nil {
		ev.OwnerID = *u.OwnerID
	}
	if u.HouseID != nil {
		ev.HouseID = *u.HouseID
	}
	return ev
}

// UserDeletedEvent is raised when an account is removed by a cascade
type UserDeletedEvent struct {
	shared.BaseDomainEvent
	Role Role `json:"role"`
}

// NewUserDeletedEvent creates a new user deleted event
func NewUserDeletedEvent(id uuid.UUID, role Role) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventUserDeleted, "User", id),
		Role:            role,
	}
}
