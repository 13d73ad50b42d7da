package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/ecopower/backend/internal/application/identity"
)

// AuthHandler handles authentication and session endpoints
type AuthHandler struct {
	BaseHandler
	authService *identityapp.AuthService
	requireAuth gin.HandlerFunc
	loginLimit  gin.HandlerFunc
}

// NewAuthHandler creates a new AuthHandler. loginLimit is the stricter
// rate limit applied to credential endpoints; pass nil to disable.
func NewAuthHandler(authService *identityapp.AuthService, requireAuth, loginLimit gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		requireAuth: requireAuth,
		loginLimit:  loginLimit,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	public := rg.Group("/auth")
	if h.loginLimit != nil {
		public.Use(h.loginLimit)
	}
	public.POST("/register", h.Register)
	public.POST("/register-admin", h.RegisterAdmin)
	public.POST("/login", h.Login)
	public.POST("/google", h.GoogleLogin)
	public.POST("/refresh", h.Refresh)
	public.POST("/forgot-password", h.ForgotPassword)

	private := rg.Group("/auth", h.requireAuth)
	private.POST("/logout", h.Logout)
	private.GET("/me", h.Me)
	private.POST("/change-password", h.ChangePassword)
	private.POST("/first-login", h.CompleteFirstLogin)
	private.PUT("/device-token", h.SetDeviceToken)
}

// RegisterRequest represents an owner self-registration
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"required,min=1,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"omitempty,max=30"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

// Register creates an owner account
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.RegisterOwner(c.Request.Context(), identityapp.RegisterOwnerInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toUserResponse(*user))
}

// RegisterAdmin bootstraps the administrator account. The service
// refuses once an admin exists, so the route can stay public.
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.RegisterAdmin(c.Request.Context(), identityapp.RegisterAdminInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toUserResponse(*user))
}

// LoginRequest represents a credential login. Identifier is an email
// address or a phone number.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login authenticates with email/phone and password
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identityapp.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSessionResponse(result))
}

// GoogleLoginRequest represents a Google sign-in
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// GoogleLogin authenticates with a Google ID token
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.LoginWithGoogle(c.Request.Context(), identityapp.GoogleLoginInput{
		IDToken: req.IDToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSessionResponse(result))
}

// RefreshRequest represents a token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh rotates the refresh token and issues a new pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, TokenResponse{
		AccessToken:           result.AccessToken,
		RefreshToken:          result.RefreshToken,
		AccessTokenExpiresAt:  result.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: result.RefreshTokenExpiresAt,
		TokenType:             result.TokenType,
	})
}

// Logout revokes the stored refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Me returns the authenticated account
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUserResponse(*user))
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// ChangePassword changes the password of the authenticated account
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err = h.authService.ChangePassword(c.Request.Context(), identityapp.ChangePasswordInput{
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// FirstLoginRequest represents the forced password change after a
// temporary password
type FirstLoginRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// CompleteFirstLogin replaces the temporary password
func (h *AuthHandler) CompleteFirstLogin(c *gin.Context) {
	userID, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req FirstLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err = h.authService.CompleteFirstLogin(c.Request.Context(), identityapp.FirstLoginPasswordInput{
		UserID:      userID,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ForgotPasswordRequest represents a password reset request
type ForgotPasswordRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// ForgotPassword issues a temporary password. The response is the same
// whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Identifier); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "If the account exists, a temporary password has been sent"})
}

// DeviceTokenRequest represents a push token registration
type DeviceTokenRequest struct {
	Token string `json:"token"`
}

// SetDeviceToken stores the push token of the caller's device. An empty
// token clears it.
func (h *AuthHandler) SetDeviceToken(c *gin.Context) {
	userID, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.SetDeviceToken(c.Request.Context(), userID, req.Token); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
