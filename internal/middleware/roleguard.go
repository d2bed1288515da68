package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/services"
)

// Context keys set by RequireDashboard.
const (
	roleKey         = "role"
	roleSourceKey   = "roleSource"
	isAdminEmailKey = "isAdminEmail"
)

// LoginPath is where unauthorized sessions are sent.
const LoginPath = "/login"

// RequireDashboard resolves the session's role against the roles dashboard
// accepts. Sessions without an accepted role, or whose account is disabled,
// never reach the next handler:
// API clients get 403 with a redirect hint, browsers get 303 to the login page.
func RequireDashboard(resolver services.RoleResolver, dashboard models.Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			redirectToLogin(c, apperrors.ErrUnauthorized)
			return
		}

		match, err := resolver.ResolveDashboard(id, dashboard)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && (appErr.Code == apperrors.ErrNotAuthorized.Code || appErr.Code == apperrors.ErrUserInactive.Code) {
				redirectToLogin(c, appErr)
				return
			}
			abortWithError(c, err)
			return
		}

		c.Set(roleKey, match.Role)
		c.Set(roleSourceKey, match.Source)
		c.Set(isAdminEmailKey, match.AdminEmail)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context, appErr *apperrors.AppError) {
	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, LoginPath+"?toast="+url.QueryEscape(appErr.Message))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
		"redirect": LoginPath,
		"toast":    appErr.Message,
	})
}

func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}

// RoleFromContext returns the role resolved by RequireDashboard.
func RoleFromContext(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(roleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}

// RoleSourceFromContext returns the lookup step that produced the role.
func RoleSourceFromContext(c *gin.Context) services.RoleSource {
	v, _ := c.Get(roleSourceKey)
	source, _ := v.(services.RoleSource)
	return source
}

// IsAdminEmailFromContext reports whether the session holds a proven
// allow-listed email.
func IsAdminEmailFromContext(c *gin.Context) bool {
	return c.GetBool(isAdminEmailKey)
}
