package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role represents the role of a platform account
type Role string

const (
	RoleOwner    Role = "owner"    // Registers houses and provisions residents
	RoleResident Role = "resident" // Consults own consumption and invoices
	RoleAdmin    Role = "admin"    // Platform operator, unique account
)

// AuthMethod indicates how a user authenticates
type AuthMethod string

const (
	AuthMethodLocal  AuthMethod = "local"
	AuthMethodGoogle AuthMethod = "google"
	AuthMethodBoth   AuthMethod = "both"
)

// Password cost for bcrypt
const bcryptCost = 12

// User is the aggregate root for platform accounts. Owners, residents and
// the admin share the same aggregate; role-specific links (OwnerID, HouseID)
// are only populated for residents.
type User struct {
	shared.BaseAggregateRoot
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	GoogleID     string
	AuthMethod   AuthMethod
	Role         Role
	OwnerID      *uuid.UUID // Owner who provisioned this resident
	HouseID      *uuid.UUID // House the resident occupies
	FirstLogin   bool       // Temp password not yet replaced
	DeviceToken  string
	RefreshToken string
	Active       bool
	LastLoginAt  *time.Time
}

// NewOwner creates an owner account with a local password
func NewOwner(firstName, lastName, email, phone, password string) (*User, error) {
	u, err := newUser(firstName, lastName, email, phone, RoleOwner)
	if err != nil {
		return nil, err
	}
	if err := u.setInitialPassword(password); err != nil {
		return nil, err
	}
	u.AddDomainEvent(NewUserRegisteredEvent(u))
	return u, nil
}

// NewAdmin creates the platform administrator account. Uniqueness of the
// admin role is enforced by the application service, not here.
func NewAdmin(firstName, lastName, email, phone, password string) (*User, error) {
	u, err := newUser(firstName, lastName, email, phone, RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := u.setInitialPassword(password); err != nil {
		return nil, err
	}
	u.AddDomainEvent(NewUserRegisteredEvent(u))
	return u, nil
}

// NewResident creates a resident account provisioned by an owner. The
// resident starts with a temporary password and must change it on first
// login. A resident may instead be pre-provisioned for Google sign-in,
// in which case tempPassword may be empty and googleEmail links later.
func NewResident(ownerID, houseID uuid.UUID, firstName, lastName, email, phone, tempPassword string) (*User, error) {
	u, err := newUser(firstName, lastName, email, phone, RoleResident)
	if err != nil {
		return nil, err
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Resident must be linked to an owner")
	}
	if houseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_HOUSE", "Resident must be linked to a house")
	}
	u.OwnerID = &ownerID
	u.HouseID = &houseID
	u.FirstLogin = true

	if tempPassword != "" {
		if err := u.setInitialPassword(tempPassword); err != nil {
			return nil, err
		}
	} else {
		// Pre-provisioned for Google sign-in; the account holds no
		// credential until the Google identity is linked.
		u.AuthMethod = AuthMethodGoogle
	}

	u.AddDomainEvent(NewResidentProvisionedEvent(u))
	return u, nil
}

func newUser(firstName, lastName, email, phone string, role Role) (*User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "First and last name are required")
	}
	if email == "" && phone == "" {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Either email or phone is required")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FirstName:         firstName,
		LastName:          lastName,
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Phone:             strings.TrimSpace(phone),
		AuthMethod:        AuthMethodLocal,
		Role:              role,
		Active:            true,
	}, nil
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasCredential reports whether the account can authenticate at all
func (u *User) HasCredential() bool {
	return u.PasswordHash != "" || u.GoogleID != ""
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword changes the password after verifying the current one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the previous one
// (first-login reset, owner-initiated reset, forgot-password flow)
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.FirstLogin = false
	if u.AuthMethod == AuthMethodGoogle {
		u.AuthMethod = AuthMethodBoth
	}
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// IssueTemporaryPassword sets a temporary password and flags the account
// for a forced change on next login
func (u *User) IssueTemporaryPassword(tempPassword string) error {
	if err := u.SetPassword(tempPassword); err != nil {
		return err
	}
	u.FirstLogin = true
	return nil
}

func (u *User) setInitialPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	return nil
}

// LinkGoogle attaches a Google identity to the account
func (u *User) LinkGoogle(googleID string) error {
	if googleID == "" {
		return shared.NewDomainError("INVALID_GOOGLE_ID", "Google ID cannot be empty")
	}
	u.GoogleID = googleID
	if u.PasswordHash != "" {
		u.AuthMethod = AuthMethodBoth
	} else {
		u.AuthMethod = AuthMethodGoogle
	}
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// RotateRefreshToken replaces the stored refresh token. An empty value
// revokes the session.
func (u *User) RotateRefreshToken(token string) {
	u.RefreshToken = token
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// SetDeviceToken stores the push notification device token
func (u *User) SetDeviceToken(token string) {
	u.DeviceToken = token
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// RecordLogin records a successful authentication
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	u.IncrementVersion()
}

// AssignHouse links a resident to a house
func (u *User) AssignHouse(houseID uuid.UUID) error {
	if u.Role != RoleResident {
		return shared.NewDomainError("INVALID_ROLE", "Only residents can be assigned to a house")
	}
	if houseID == uuid.Nil {
		return shared.NewDomainError("INVALID_HOUSE", "House ID cannot be empty")
	}
	u.HouseID = &houseID
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// DetachHouse removes the resident's house and owner links, leaving the
// account without dangling references after a house deletion
func (u *User) DetachHouse() {
	u.HouseID = nil
	u.OwnerID = nil
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// IsOwner returns true for owner accounts
func (u *User) IsOwner() bool { return u.Role == RoleOwner }

// IsResident returns true for resident accounts
func (u *User) IsResident() bool { return u.Role == RoleResident }

// IsAdmin returns true for the admin account
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// CanLogin returns true if the account may authenticate
func (u *User) CanLogin() bool {
	return u.Active && u.HasCredential()
}

// Validation functions

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePhone(phone string) error {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 8 {
		return shared.NewDomainError("INVALID_PHONE", "Phone must contain at least 8 digits")
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
