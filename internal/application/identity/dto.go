package identity

import (
	"time"

	"github.com/google/uuid"

	domain "github.com/ecopower/backend/internal/domain/identity"
)

// RegisterOwnerInput contains the input for owner self-registration
type RegisterOwnerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// RegisterAdminInput contains the input for creating the admin account
type RegisterAdminInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// LoginInput contains the input for credential login. Identifier is an
// email or a phone number.
type LoginInput struct {
	Identifier string
	Password   string
}

// GoogleLoginInput contains the input for Google sign-in
type GoogleLoginInput struct {
	IDToken string
}

// LoginResult contains the result of a successful authentication
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	FirstLogin            bool
	User                  UserInfo
}

// RefreshResult contains the result of a token refresh
type RefreshResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// UserInfo is the account view returned to clients
type UserInfo struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Role        string
	AuthMethod  string
	OwnerID     *uuid.UUID
	HouseID     *uuid.UUID
	FirstLogin  bool
	Active      bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

// NewUserInfo maps a domain user to its client view
func NewUserInfo(u *domain.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        string(u.Role),
		AuthMethod:  string(u.AuthMethod),
		OwnerID:     u.OwnerID,
		HouseID:     u.HouseID,
		FirstLogin:  u.FirstLogin,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// ChangePasswordInput contains the input for a password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// FirstLoginPasswordInput contains the input for the forced password
// change after a temporary password
type FirstLoginPasswordInput struct {
	UserID      uuid.UUID
	NewPassword string
}

// AddResidentInput contains the input for resident provisioning
type AddResidentInput struct {
	ActorID   uuid.UUID
	HouseID   uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     string
	ViaGoogle bool // Pre-provision for Google sign-in, no temp password
}

// AddResidentResult reports the provisioned account and how the
// credentials reached it
type AddResidentResult struct {
	Resident          UserInfo
	CredentialChannel string // email, whatsapp, audit, none
}

// UpdateResidentInput contains the editable resident fields
type UpdateResidentInput struct {
	ActorID    uuid.UUID
	ResidentID uuid.UUID
	FirstName  string
	LastName   string
	Phone      string
	HouseID    *uuid.UUID
}
