package identity

import (
	"context"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// HouseOwnership answers who owns a house. Implemented by the housing
// repository; declared here to keep the identity package free of a
// dependency on the housing package.
type HouseOwnership interface {
	OwnerOf(ctx context.Context, houseID uuid.UUID) (uuid.UUID, error)
}

// Authorizer resolves an actor into a capability set. Services consult
// the resolved set instead of branching on role strings.
type Authorizer interface {
	Resolve(ctx context.Context, actorID uuid.UUID) (*CapabilitySet, error)
}

// CapabilitySet answers authorization questions for one actor. Owners
// hold capabilities only over houses and residents linked to them,
// residents only over themselves, the admin over everything.
type CapabilitySet struct {
	actor  *User
	users  UserRepository
	houses HouseOwnership
}

// Actor returns the resolved actor
func (c *CapabilitySet) Actor() *User {
	return c.actor
}

// ActorID returns the resolved actor's ID
func (c *CapabilitySet) ActorID() uuid.UUID {
	return c.actor.ID
}

// IsAdmin reports whether the actor holds platform-wide capabilities
func (c *CapabilitySet) IsAdmin() bool {
	return c.actor.IsAdmin()
}

// IsSelf reports whether the target is the actor
func (c *CapabilitySet) IsSelf(userID uuid.UUID) bool {
	return c.actor.ID == userID
}

// CanManageHouse reports whether the actor may administer a house
// (record readings, generate invoices, manage residents of it)
func (c *CapabilitySet) CanManageHouse(ctx context.Context, houseID uuid.UUID) (bool, error) {
	if c.actor.IsAdmin() {
		return true, nil
	}
	if !c.actor.IsOwner() {
		return false, nil
	}
	ownerID, err := c.houses.OwnerOf(ctx, houseID)
	if err != nil {
		return false, err
	}
	return ownerID == c.actor.ID, nil
}

// CanViewHouse reports whether the actor may read house data. Residents
// may view the house they occupy.
func (c *CapabilitySet) CanViewHouse(ctx context.Context, houseID uuid.UUID) (bool, error) {
	if c.actor.IsResident() {
		return c.actor.HouseID != nil && *c.actor.HouseID == houseID, nil
	}
	return c.CanManageHouse(ctx, houseID)
}

// CanManageResident reports whether the actor may act on a resident's
// account and records (readings, invoices, password resets)
func (c *CapabilitySet) CanManageResident(ctx context.Context, residentID uuid.UUID) (bool, error) {
	if c.actor.IsAdmin() {
		return true, nil
	}
	if !c.actor.IsOwner() {
		return false, nil
	}
	resident, err := c.users.FindByID(ctx, residentID)
	if err != nil {
		return false, err
	}
	return resident.OwnerID != nil && *resident.OwnerID == c.actor.ID, nil
}

// CanRecordReading reports whether the actor may record a meter
// reading against a resident. Residents record their own readings;
// owners and the admin record for residents they manage.
func (c *CapabilitySet) CanRecordReading(ctx context.Context, residentID uuid.UUID) (bool, error) {
	if c.actor.IsResident() {
		return c.IsSelf(residentID), nil
	}
	return c.CanManageResident(ctx, residentID)
}

// CanViewResident reports whether the actor may read a resident's data.
// Residents may view their own records.
func (c *CapabilitySet) CanViewResident(ctx context.Context, residentID uuid.UUID) (bool, error) {
	if c.IsSelf(residentID) {
		return true, nil
	}
	return c.CanManageResident(ctx, residentID)
}

// Require converts a capability decision into a domain error
func Require(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrForbidden
	}
	return nil
}

// AuthorizationService is the default Authorizer backed by repositories
type AuthorizationService struct {
	users  UserRepository
	houses HouseOwnership
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(users UserRepository, houses HouseOwnership) *AuthorizationService {
	return &AuthorizationService{users: users, houses: houses}
}

// Resolve loads the actor and returns its capability set
func (s *AuthorizationService) Resolve(ctx context.Context, actorID uuid.UUID) (*CapabilitySet, error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, shared.ErrUnauthorized
	}
	return &CapabilitySet{actor: actor, users: s.users, houses: s.houses}, nil
}
