package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/middleware"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/services"
)

// AdminHandler manages accounts and the legacy usuarios entries.
type AdminHandler struct {
	userService    services.UserServicer
	usuarioService services.UsuarioServicer
	auditService   services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userService services.UserServicer, usuarioService services.UsuarioServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{userService: userService, usuarioService: usuarioService, auditService: auditService}
}

// ChangeRoleRequest sets a user's role.
type ChangeRoleRequest struct {
	Role models.Role `json:"role" binding:"required,role"`
}

// SetActiveRequest enables or disables a user.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetEmailVerifiedRequest marks a local account's email as proven.
type SetEmailVerifiedRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// UsuarioRequest creates a legacy usuarios entry.
type UsuarioRequest struct {
	UID    string      `json:"uid" binding:"max=128"`
	Email  string      `json:"email" binding:"omitempty,email,max=255"`
	Nombre string      `json:"nombre" binding:"max=200"`
	Role   models.Role `json:"role" binding:"required,role"`
}

// ListUsers returns a page of accounts
// @Summary     List users
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page (max 100)"
// @Param       sort      query string false "email, created_at or role; prefix - for descending"
// @Param       role      query string false "Role filter"
// @Success     200 {object} pagination.PageResponse[models.User] "Users"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var role *models.Role
	if v := c.Query("role"); v != "" {
		r := models.Role(v)
		if !r.IsValid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown role"))
			return
		}
		role = &r
	}

	result, err := h.userService.ListUsers(page, role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ChangeRole sets the role of an account
// @Summary     Change a user's role
// @Description Only a superadmin may grant or revoke admin and superadmin
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "User ID"
// @Param       request body ChangeRoleRequest true "New role"
// @Success     200 {object} models.User "User updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Role not assignable"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users/{id}/role [patch]
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	actorRole, _ := middleware.RoleFromContext(c)

	// User ids may be provider subjects, not UUIDs.
	userID := c.Param("id")

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.ChangeRole(actorRole, userID, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "CHANGE_ROLE", "user", userID, c.ClientIP(),
		map[string]interface{}{"role": req.Role})

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SetActive enables or disables an account
// @Summary     Enable or disable a user
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "User ID"
// @Param       request body SetActiveRequest true "Active flag"
// @Success     200 {object} models.User "User updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users/{id}/active [patch]
func (h *AdminHandler) SetActive(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID := c.Param("id")

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if userID == actorID && !*req.Active {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "you cannot disable your own account"))
		return
	}

	user, err := h.userService.SetActive(userID, *req.Active)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "SET_USER_ACTIVE", "user", userID, c.ClientIP(),
		map[string]interface{}{"active": *req.Active})

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SetEmailVerified records that an operator confirmed the account's email.
// Only a verified email is matched against usuarios rows and the admin
// allow-list, so the flag is reserved for superadmins.
// @Summary     Verify a user's email
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "User ID"
// @Param       request body SetEmailVerifiedRequest true "Verified flag"
// @Success     200 {object} models.User "User updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Superadmin only"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users/{id}/email-verified [patch]
func (h *AdminHandler) SetEmailVerified(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	actorRole, _ := middleware.RoleFromContext(c)
	if actorRole != models.RoleSuperadmin {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "only a superadmin can verify emails"))
		return
	}

	userID := c.Param("id")

	var req SetEmailVerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.SetEmailVerified(userID, *req.Verified)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "SET_EMAIL_VERIFIED", "user", userID, c.ClientIP(),
		map[string]interface{}{"verified": *req.Verified, "email": user.Email})

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// CreateUsuario adds a legacy usuarios entry
// @Summary     Create a usuarios entry
// @Description Grants a role by uid or email without a users row
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UsuarioRequest true "Entry"
// @Success     201 {object} models.Usuario "Entry created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Role not assignable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/usuarios [post]
func (h *AdminHandler) CreateUsuario(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	actorRole, _ := middleware.RoleFromContext(c)

	var req UsuarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.Role.IsPrivileged() && actorRole != models.RoleSuperadmin {
		respondWithError(c, apperrors.ErrRoleNotAssignable)
		return
	}

	usuario, err := h.usuarioService.CreateUsuario(req.UID, req.Email, req.Nombre, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "CREATE_USUARIO", "usuario", usuario.ID, c.ClientIP(),
		map[string]interface{}{"role": req.Role})

	c.JSON(http.StatusCreated, gin.H{"usuario": usuario})
}

// ListUsuarios returns a page of legacy usuarios entries
// @Summary     List usuarios entries
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.Usuario] "Entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/usuarios [get]
func (h *AdminHandler) ListUsuarios(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.usuarioService.ListUsuarios(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteUsuario removes a legacy usuarios entry
// @Summary     Delete a usuarios entry
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/usuarios/{id} [delete]
func (h *AdminHandler) DeleteUsuario(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.usuarioService.DeleteUsuario(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "DELETE_USUARIO", "usuario", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Usuario deleted successfully"})
}

// ListAuditLogs returns the back-office trail
// @Summary     List audit entries
// @Description Newest first; filter by user, resource type or resource id
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       user_id       query string false "Acting user"
// @Param       resource_type query string false "Resource type, e.g. ingreso"
// @Param       resource_id   query string false "Resource ID"
// @Param       page          query int    false "Page number"
// @Param       page_size     query int    false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Audit entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not authorized"
// @Router      /admin/audit [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.auditService.ListAuditLogs(page, services.AuditFilter{
		UserID:       c.Query("user_id"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
