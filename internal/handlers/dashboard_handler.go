package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/middleware"
	"ecoaceite/internal/models"
	"ecoaceite/internal/services"
)

// DashboardHandler serves the guarded panel payloads. Every route is mounted
// behind middleware.RequireDashboard, which stores the resolved role.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
	now              func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, now: time.Now}
}

// DashboardResponse wraps a panel payload with the guard's outcome.
type DashboardResponse struct {
	Dashboard    models.Dashboard `json:"dashboard"`
	Role         models.Role      `json:"role"`
	RoleSource   string           `json:"role_source"`
	IsAdminEmail bool             `json:"is_admin_email"`
	Data         interface{}      `json:"data"`
}

func (h *DashboardHandler) respond(c *gin.Context, d models.Dashboard, data interface{}) {
	role, _ := middleware.RoleFromContext(c)
	c.JSON(http.StatusOK, DashboardResponse{
		Dashboard:    d,
		Role:         role,
		RoleSource:   string(middleware.RoleSourceFromContext(c)),
		IsAdminEmail: middleware.IsAdminEmailFromContext(c),
		Data:         data,
	})
}

// Admin returns the admin panel
// @Summary     Admin dashboard
// @Description Monthly finance summary, pending invoices, active projects and inbox counters
// @Tags        dashboards
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DashboardResponse "Admin panel"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not accepted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboards/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	data, err := h.dashboardService.AdminDashboard(h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respond(c, models.DashboardAdmin, data)
}

// Usuario returns the regular user panel
// @Summary     User dashboard
// @Description The user's sign-ups, grant applications and open grant announcements
// @Tags        dashboards
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DashboardResponse "User panel"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not accepted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboards/usuario [get]
func (h *DashboardHandler) Usuario(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	data, err := h.dashboardService.UsuarioDashboard(sess.Identity, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respond(c, models.DashboardUsuario, data)
}

// Administrador returns the building administrator panel
// @Summary     Building administrator dashboard
// @Description Community sign-ups in the administrator's district
// @Tags        dashboards
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DashboardResponse "Administrator panel"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not accepted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboards/administrador [get]
func (h *DashboardHandler) Administrador(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	data, err := h.dashboardService.AdministradorDashboard(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respond(c, models.DashboardAdministrador, data)
}

// Comercial returns the commercial panel
// @Summary     Commercial dashboard
// @Description Hospitality and collection point sign-ups grouped by status
// @Tags        dashboards
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DashboardResponse "Commercial panel"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not accepted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboards/comercial [get]
func (h *DashboardHandler) Comercial(c *gin.Context) {
	data, err := h.dashboardService.ComercialDashboard()
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respond(c, models.DashboardComercial, data)
}

// FinanceSummary returns monthly totals and yearly series
// @Summary     Finance summary
// @Description Income and expense of a month plus the 12 monthly sums of its year
// @Tags        finance
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year (defaults to current)"
// @Param       month query int false "Month 1-12 (defaults to current)"
// @Success     200 {object} services.FinanceSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not accepted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /finance/summary [get]
func (h *DashboardHandler) FinanceSummary(c *gin.Context) {
	now := h.now()
	year, err := queryInt(c, "year", now.Year())
	if err != nil {
		respondWithError(c, err)
		return
	}
	month, err := queryInt(c, "month", int(now.Month()))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if month < 1 || month > 12 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12"))
		return
	}

	summary, err := h.dashboardService.FinanceSummary(year, time.Month(month))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
