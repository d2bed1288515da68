package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/middleware"
	"ecoaceite/internal/models"
	"ecoaceite/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	roleResolver services.RoleResolver
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, roleResolver services.RoleResolver, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, roleResolver: roleResolver, auditService: auditService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email         string      `json:"email" binding:"required,email,max=255"`
	Password      string      `json:"password" binding:"required,min=8,max=128"`
	Nombre        string      `json:"nombre" binding:"required,max=200"`
	Role          models.Role `json:"role" binding:"required,public_role"`
	Telefono      string      `json:"telefono" binding:"max=30"`
	Direccion     string      `json:"direccion" binding:"max=300"`
	Distrito      string      `json:"distrito" binding:"max=100"`
	CodigoPostal  string      `json:"codigo_postal" binding:"omitempty,postal_code_es"`
	NumViviendas  int         `json:"num_viviendas" binding:"gte=0"`
	NombreEntidad string      `json:"nombre_entidad" binding:"max=200"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents the profile update payload
type UpdateProfileRequest struct {
	Nombre        *string `json:"nombre" binding:"omitempty,min=1,max=200"`
	Telefono      *string `json:"telefono" binding:"omitempty,max=30"`
	Direccion     *string `json:"direccion" binding:"omitempty,max=300"`
	Distrito      *string `json:"distrito" binding:"omitempty,max=100"`
	CodigoPostal  *string `json:"codigo_postal" binding:"omitempty,postal_code_es"`
	NumViviendas  *int    `json:"num_viviendas" binding:"omitempty,gte=0"`
	NombreEntidad *string `json:"nombre_entidad" binding:"omitempty,max=200"`
}

// AuthResponse represents the authentication response with tokens
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// SessionResponse describes the current session and the panels it opens.
type SessionResponse struct {
	UID          string             `json:"uid"`
	Email        string             `json:"email"`
	Provider     string             `json:"provider"`
	Role         models.Role        `json:"role,omitempty"`
	RoleSource   string             `json:"role_source,omitempty"`
	IsAdminEmail bool               `json:"is_admin_email"`
	Dashboards   []models.Dashboard `json:"dashboards"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new account with one of the public roles
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(services.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		Nombre:        req.Nombre,
		Role:          req.Role,
		Telefono:      req.Telefono,
		Direccion:     req.Direccion,
		Distrito:      req.Distrito,
		CodigoPostal:  req.CodigoPostal,
		NumViviendas:  req.NumViviendas,
		NombreEntidad: req.NombreEntidad,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "REGISTER", "user", user.ID, c.ClientIP(),
		map[string]interface{}{"role": user.Role})

	h.issueTokens(c, http.StatusCreated, user)
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate with email and password and get an access/refresh token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Account disabled"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.issueTokens(c, http.StatusOK, user)
}

// Refresh exchanges a refresh token for a new token pair
// @Summary     Refresh tokens
// @Description Rotate the refresh token and issue a new access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthResponse "New tokens"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid or revoked token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	claims, err := middleware.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}
	if stored == "" || stored != middleware.HashToken(req.RefreshToken) {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}
	if !user.IsActive {
		respondWithError(c, apperrors.ErrUserInactive)
		return
	}

	h.issueTokens(c, http.StatusOK, user)
}

// Logout revokes the stored refresh token
// @Summary     Logout
// @Description Revoke the current refresh token
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     204 "Logged out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.ClearRefreshTokenHash(userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Session describes the current session
// @Summary     Current session
// @Description Resolve the session's role and list the dashboards it can open
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SessionResponse "Session"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Email already bound to another account"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	match, err := h.roleResolver.Resolve(sess.Identity, models.AllRoles)
	if errors.Is(err, apperrors.ErrNotAuthorized) {
		match, err = h.roleResolver.ResolveDashboard(sess.Identity, models.DashboardAdmin)
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotAuthorized) {
		respondWithError(c, err)
		return
	}

	// External accounts get a users row on first sight unless usuarios already grants a role.
	if match == nil && sess.Provider == middleware.ProviderOIDC {
		user, err := h.userService.EnsureExternalUser(sess.Identity, middleware.DisplayName(c), sess.Provider)
		if err != nil {
			respondWithError(c, err)
			return
		}
		if !user.IsActive {
			respondWithError(c, apperrors.ErrUserInactive)
			return
		}
		match = &services.RoleMatch{Role: user.Role, Source: services.SourceUsers}
	}

	resp := SessionResponse{
		UID:        sess.UID,
		Email:      sess.Email,
		Provider:   sess.Provider,
		Dashboards: []models.Dashboard{},
	}
	if match != nil {
		resp.Role = match.Role
		resp.RoleSource = string(match.Source)
		resp.IsAdminEmail = match.AdminEmail
	}
	for _, d := range models.AllDashboards {
		if (match != nil && d.Accepts(match.Role)) || (resp.IsAdminEmail && d.AllowsAdminEmail()) {
			resp.Dashboards = append(resp.Dashboards, d)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Description Get the authenticated user's profile information
// @Tags        user
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile updates the user's profile
// @Summary     Update user profile
// @Description Update contact and address details of the authenticated user
// @Tags        user
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Profile fields"
// @Success     200 {object} models.User "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.UpdateProfile(userID, services.ProfileUpdate{
		Nombre:        req.Nombre,
		Telefono:      req.Telefono,
		Direccion:     req.Direccion,
		Distrito:      req.Distrito,
		CodigoPostal:  req.CodigoPostal,
		NumViviendas:  req.NumViviendas,
		NombreEntidad: req.NombreEntidad,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROFILE", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) issueTokens(c *gin.Context, status int, user *models.User) {
	accessToken, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	refreshToken, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(refreshToken)); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(status, AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: *user})
}
