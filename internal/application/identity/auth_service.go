package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecopower/backend/internal/domain/audit"
	domain "github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/auth"
	"github.com/ecopower/backend/internal/infrastructure/notify"
)

// GoogleVerifier validates Google ID tokens
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error)
}

// AuthService handles registration and authentication
type AuthService struct {
	users      domain.UserRepository
	jwtService *auth.JWTService
	google     GoogleVerifier
	dispatcher *notify.Dispatcher
	auditLog   audit.LogRepository
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	jwtService *auth.JWTService,
	google GoogleVerifier,
	dispatcher *notify.Dispatcher,
	auditLog audit.LogRepository,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		google:     google,
		dispatcher: dispatcher,
		auditLog:   auditLog,
		logger:     logger,
	}
}

// RegisterOwner creates an owner account
func (s *AuthService) RegisterOwner(ctx context.Context, input RegisterOwnerInput) (*UserInfo, error) {
	if err := s.checkContactAvailable(ctx, input.Email, input.Phone); err != nil {
		return nil, err
	}

	owner, err := domain.NewOwner(input.FirstName, input.LastName, input.Email, input.Phone, input.Password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, owner); err != nil {
		return nil, err
	}

	s.logger.Info("owner registered", zap.String("user_id", owner.ID.String()))
	info := NewUserInfo(owner)
	return &info, nil
}

// RegisterAdmin creates the platform administrator. Exactly one admin
// account may exist.
func (s *AuthService) RegisterAdmin(ctx context.Context, input RegisterAdminInput) (*UserInfo, error) {
	admins, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if admins > 0 {
		return nil, shared.NewDomainError("ADMIN_EXISTS", "An administrator account already exists")
	}

	if err := s.checkContactAvailable(ctx, input.Email, input.Phone); err != nil {
		return nil, err
	}

	admin, err := domain.NewAdmin(input.FirstName, input.LastName, input.Email, input.Phone, input.Password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("admin registered", zap.String("user_id", admin.ID.String()))
	info := NewUserInfo(admin)
	return &info, nil
}

func (s *AuthService) checkContactAvailable(ctx context.Context, email, phone string) error {
	if email != "" {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
		}
	}
	if phone != "" {
		exists, err := s.users.ExistsByPhone(ctx, phone)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("PHONE_TAKEN", "An account with this phone already exists")
		}
	}
	return nil
}

// Login authenticates with an email or phone plus password. The error
// never discloses whether the account exists.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		s.logger.Warn("login for unknown identifier")
		return nil, shared.ErrInvalidCredential
	}

	if !user.CanLogin() {
		s.logger.Warn("login for inactive account", zap.String("user_id", user.ID.String()))
		return nil, shared.ErrInvalidCredential
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("login with wrong password", zap.String("user_id", user.ID.String()))
		return nil, shared.ErrInvalidCredential
	}

	return s.establishSession(ctx, user)
}

// LoginWithGoogle authenticates with a Google ID token. A resident
// pre-provisioned by email gets the Google identity linked on first
// sign-in.
func (s *AuthService) LoginWithGoogle(ctx context.Context, input GoogleLoginInput) (*LoginResult, error) {
	ident, err := s.google.Verify(ctx, input.IDToken)
	if err != nil {
		s.logger.Warn("google token rejected", zap.Error(err))
		return nil, shared.ErrInvalidCredential
	}

	user, err := s.users.FindByGoogleID(ctx, ident.Subject)
	if err == nil {
		if !user.Active {
			return nil, shared.ErrInvalidCredential
		}
		return s.establishSession(ctx, user)
	}
	if err != shared.ErrNotFound {
		return nil, err
	}

	// Unlinked identity: match a pre-provisioned account by email
	user, err = s.users.FindByEmail(ctx, ident.Email)
	if err != nil {
		s.logger.Warn("google sign-in for unknown email")
		return nil, shared.ErrInvalidCredential
	}
	if !user.Active {
		return nil, shared.ErrInvalidCredential
	}

	if err := user.LinkGoogle(ident.Subject); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("google identity linked", zap.String("user_id", user.ID.String()))

	return s.establishSession(ctx, user)
}

func (s *AuthService) establishSession(ctx context.Context, user *domain.User) (*LoginResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID,
		Role:   string(user.Role),
		Email:  user.Email,
	})
	if err != nil {
		return nil, err
	}

	user.RotateRefreshToken(pair.RefreshToken)
	user.RecordLogin()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		FirstLogin:            user.FirstLogin,
		User:                  NewUserInfo(user),
	}, nil
}

// Refresh rotates a refresh token. The presented token must match the
// one stored on the account, so a stolen token dies at the next
// legitimate refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	if !user.Active || user.RefreshToken != refreshToken {
		s.logger.Warn("refresh with stale or revoked token", zap.String("user_id", user.ID.String()))
		return nil, shared.ErrUnauthorized
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID,
		Role:   string(user.Role),
		Email:  user.Email,
	})
	if err != nil {
		return nil, err
	}

	user.RotateRefreshToken(pair.RefreshToken)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// Logout revokes the stored refresh token and device token
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.RotateRefreshToken("")
	user.SetDeviceToken("")
	return s.users.Update(ctx, user)
}

// CurrentUser returns the authenticated account's view
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := NewUserInfo(user)
	return &info, nil
}

// ChangePassword changes the password after verifying the current one
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	return s.users.Update(ctx, user)
}

// CompleteFirstLogin replaces a temporary password. Only available
// while the account is flagged for a forced change.
func (s *AuthService) CompleteFirstLogin(ctx context.Context, input FirstLoginPasswordInput) error {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if !user.FirstLogin {
		return shared.NewDomainError("NOT_FIRST_LOGIN", "Account is not pending a password change")
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	return s.users.Update(ctx, user)
}

// ForgotPassword issues and delivers a temporary password. The response
// is identical whether or not the identifier matches an account.
func (s *AuthService) ForgotPassword(ctx context.Context, identifier string) error {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if err == shared.ErrNotFound {
			s.logger.Info("forgot password for unknown identifier")
			return nil
		}
		return err
	}

	temp, err := GenerateTempPassword()
	if err != nil {
		return err
	}
	if err := user.IssueTemporaryPassword(temp); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	channel := s.dispatcher.DeliverCredentials(ctx, user, temp)
	s.logger.Info("temporary password issued",
		zap.String("user_id", user.ID.String()),
		zap.String("channel", string(channel)),
	)

	entry := audit.NewLogEntry(&user.ID, audit.LevelInfo, "identity", "forgot_password",
		"Temporary password issued", map[string]interface{}{"channel": string(channel)})
	if err := s.auditLog.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed", zap.Error(err))
	}
	return nil
}

// SetDeviceToken stores the push token of the account's device
func (s *AuthService) SetDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.SetDeviceToken(token)
	return s.users.Update(ctx, user)
}
