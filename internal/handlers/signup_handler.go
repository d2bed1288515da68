package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/services"
)

// SignupHandler handles the public program forms and their follow-up.
type SignupHandler struct {
	signupService services.SignupServicer
	auditService  services.AuditServicer
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(signupService services.SignupServicer, auditService services.AuditServicer) *SignupHandler {
	return &SignupHandler{signupService: signupService, auditService: auditService}
}

// SignupRequest represents a program sign-up form.
type SignupRequest struct {
	Programa        models.Programa `json:"programa" binding:"required,programa"`
	Nombre          string          `json:"nombre" binding:"required,max=200"`
	Email           string          `json:"email" binding:"required,email,max=255"`
	Telefono        string          `json:"telefono" binding:"max=30"`
	Direccion       string          `json:"direccion" binding:"max=300"`
	Distrito        string          `json:"distrito" binding:"max=100"`
	CodigoPostal    string          `json:"codigo_postal" binding:"omitempty,postal_code_es"`
	NumViviendas    int             `json:"num_viviendas" binding:"gte=0"`
	Centro          string          `json:"centro" binding:"max=200"`
	LitrosEstimados int             `json:"litros_estimados" binding:"gte=0"`
	Mensaje         string          `json:"mensaje" binding:"max=5000"`
}

// SignupEstadoRequest moves a sign-up through follow-up.
type SignupEstadoRequest struct {
	Estado models.SignupEstado `json:"estado" binding:"required,signup_estado"`
}

// CreateSignup handles a public program form
// @Summary     Submit a program sign-up
// @Description Volunteering, schools, communities, hospitality and collection point forms
// @Tags        signups
// @Accept      json
// @Produce     json
// @Param       request body SignupRequest true "Sign-up"
// @Success     201 {object} models.ProgramSignup "Sign-up stored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /signups [post]
func (h *SignupHandler) CreateSignup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	// The form is public; a session is only attached when the route is mounted behind auth.
	userID, _ := getUserID(c)

	signup, err := h.signupService.CreateSignup(c.Request.Context(), services.SignupInput{
		Programa:        req.Programa,
		Nombre:          req.Nombre,
		Email:           req.Email,
		Telefono:        req.Telefono,
		Direccion:       req.Direccion,
		Distrito:        req.Distrito,
		CodigoPostal:    req.CodigoPostal,
		NumViviendas:    req.NumViviendas,
		Centro:          req.Centro,
		LitrosEstimados: req.LitrosEstimados,
		Mensaje:         req.Mensaje,
		UserID:          userID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"signup": signup})
}

// ListSignups returns every sign-up for the admin panel
// @Summary     List sign-ups
// @Tags        signups
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page (max 100)"
// @Param       programa  query string false "Program"
// @Param       estado    query string false "nueva, contactada or cerrada"
// @Param       distrito  query string false "District"
// @Success     200 {object} pagination.PageResponse[models.ProgramSignup] "Sign-ups"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/signups [get]
func (h *SignupHandler) ListSignups(c *gin.Context) {
	h.list(c, nil)
}

// ListCommercialSignups returns sign-ups of the commercial programs
// @Summary     List commercial sign-ups
// @Tags        signups
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page (max 100)"
// @Param       programa  query string false "restaurante, hotel or punto_recogida"
// @Param       estado    query string false "nueva, contactada or cerrada"
// @Success     200 {object} pagination.PageResponse[models.ProgramSignup] "Sign-ups"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /comercial/signups [get]
func (h *SignupHandler) ListCommercialSignups(c *gin.Context) {
	h.list(c, models.CommercialProgramas)
}

func (h *SignupHandler) list(c *gin.Context, allowed []models.Programa) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.SignupFilter{
		Programas: allowed,
		Estado:    c.Query("estado"),
		Distrito:  c.Query("distrito"),
	}
	if v := c.Query("programa"); v != "" {
		p := models.Programa(v)
		if allowed != nil && !p.IsCommercial() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "programa is not followed by the commercial team"))
			return
		}
		filter.Programas = []models.Programa{p}
	}

	result, err := h.signupService.ListSignups(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateSignupEstado moves any sign-up through follow-up
// @Summary     Update sign-up status
// @Tags        signups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Sign-up ID"
// @Param       request body SignupEstadoRequest true "New status"
// @Success     200 {object} models.ProgramSignup "Sign-up updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/signups/{id}/estado [patch]
func (h *SignupHandler) UpdateSignupEstado(c *gin.Context) {
	h.updateEstado(c, nil)
}

// UpdateCommercialSignupEstado moves a commercial sign-up through follow-up
// @Summary     Update commercial sign-up status
// @Tags        signups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Sign-up ID"
// @Param       request body SignupEstadoRequest true "New status"
// @Success     200 {object} models.ProgramSignup "Sign-up updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found or not a commercial program"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /comercial/signups/{id}/estado [patch]
func (h *SignupHandler) UpdateCommercialSignupEstado(c *gin.Context) {
	h.updateEstado(c, models.CommercialProgramas)
}

func (h *SignupHandler) updateEstado(c *gin.Context, allowed []models.Programa) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SignupEstadoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	signup, err := h.signupService.UpdateSignupEstado(id, req.Estado, allowed)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SIGNUP_ESTADO", "signup", id, c.ClientIP(),
		map[string]interface{}{"estado": req.Estado})

	c.JSON(http.StatusOK, gin.H{"signup": signup})
}
