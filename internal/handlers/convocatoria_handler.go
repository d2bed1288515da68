package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/services"
)

// ConvocatoriaHandler handles grant announcements and applications to them.
type ConvocatoriaHandler struct {
	convocatoriaService services.ConvocatoriaServicer
	auditService        services.AuditServicer
}

// NewConvocatoriaHandler creates a new ConvocatoriaHandler.
func NewConvocatoriaHandler(convocatoriaService services.ConvocatoriaServicer, auditService services.AuditServicer) *ConvocatoriaHandler {
	return &ConvocatoriaHandler{convocatoriaService: convocatoriaService, auditService: auditService}
}

// ConvocatoriaRequest represents the grant announcement form.
type ConvocatoriaRequest struct {
	Titulo        string          `json:"titulo" binding:"required,max=300"`
	Descripcion   string          `json:"descripcion" binding:"max=5000"`
	Organismo     string          `json:"organismo" binding:"max=200"`
	Importe       decimal.Decimal `json:"importe" binding:"gte=0"`
	FechaApertura string          `json:"fecha_apertura" binding:"required"`
	FechaCierre   *string         `json:"fecha_cierre"`
	URL           string          `json:"url" binding:"omitempty,url,max=500"`
	Activa        *bool           `json:"activa"`
}

// ImportRequest carries a batch of announcements from the grants pipeline.
type ImportRequest struct {
	Convocatorias []ConvocatoriaRequest `json:"convocatorias" binding:"required,min=1,max=500,dive"`
}

// SolicitudRequest represents an application form.
type SolicitudRequest struct {
	Entidad       string `json:"entidad" binding:"required,max=200"`
	EmailContacto string `json:"email_contacto" binding:"required,email,max=255"`
	Telefono      string `json:"telefono" binding:"max=30"`
	Mensaje       string `json:"mensaje" binding:"max=5000"`
}

// SolicitudEstadoRequest moves an application through review.
type SolicitudEstadoRequest struct {
	Estado models.SolicitudEstado `json:"estado" binding:"required,solicitud_estado"`
}

func (r ConvocatoriaRequest) toInput() (services.ConvocatoriaInput, error) {
	apertura, err := parseFlexibleTime(r.FechaApertura)
	if err != nil {
		return services.ConvocatoriaInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	cierre, err := parseOptionalTime(r.FechaCierre)
	if err != nil {
		return services.ConvocatoriaInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	activa := true
	if r.Activa != nil {
		activa = *r.Activa
	}
	return services.ConvocatoriaInput{
		Titulo:        r.Titulo,
		Descripcion:   r.Descripcion,
		Organismo:     r.Organismo,
		Importe:       r.Importe,
		FechaApertura: apertura,
		FechaCierre:   cierre,
		URL:           r.URL,
		Activa:        activa,
	}, nil
}

// ListPublic returns active announcements
// @Summary     List open grant announcements
// @Tags        convocatorias
// @Produce     json
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.Convocatoria] "Announcements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /convocatorias [get]
func (h *ConvocatoriaHandler) ListPublic(c *gin.Context) {
	h.list(c, true)
}

// ListAll returns every announcement, active or not
// @Summary     List all grant announcements
// @Tags        convocatorias
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.Convocatoria] "Announcements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/convocatorias [get]
func (h *ConvocatoriaHandler) ListAll(c *gin.Context) {
	h.list(c, false)
}

func (h *ConvocatoriaHandler) list(c *gin.Context, activeOnly bool) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.convocatoriaService.ListConvocatorias(page, activeOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPublic returns one active announcement
// @Summary     Get a grant announcement
// @Tags        convocatorias
// @Produce     json
// @Param       id path string true "Announcement ID"
// @Success     200 {object} models.Convocatoria "Announcement"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /convocatorias/{id} [get]
func (h *ConvocatoriaHandler) GetPublic(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	convocatoria, err := h.convocatoriaService.GetConvocatoriaByID(id, true)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"convocatoria": convocatoria})
}

// CreateConvocatoria handles the creation of an announcement
// @Summary     Create a grant announcement
// @Tags        convocatorias
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConvocatoriaRequest true "Announcement details"
// @Success     201 {object} models.Convocatoria "Announcement created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/convocatorias [post]
func (h *ConvocatoriaHandler) CreateConvocatoria(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConvocatoriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	convocatoria, err := h.convocatoriaService.CreateConvocatoria(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CONVOCATORIA", "convocatoria", convocatoria.ID, c.ClientIP(),
		map[string]interface{}{"titulo": convocatoria.Titulo})

	c.JSON(http.StatusCreated, gin.H{"convocatoria": convocatoria})
}

// UpdateConvocatoria replaces the editable fields of an announcement
// @Summary     Update a grant announcement
// @Tags        convocatorias
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Announcement ID"
// @Param       request body ConvocatoriaRequest true "Announcement details"
// @Success     200 {object} models.Convocatoria "Announcement updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/convocatorias/{id} [put]
func (h *ConvocatoriaHandler) UpdateConvocatoria(c *gin.Context) {
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

	var req ConvocatoriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	convocatoria, err := h.convocatoriaService.UpdateConvocatoria(id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CONVOCATORIA", "convocatoria", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"convocatoria": convocatoria})
}

// DeleteConvocatoria removes an announcement
// @Summary     Delete a grant announcement
// @Tags        convocatorias
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Announcement ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/convocatorias/{id} [delete]
func (h *ConvocatoriaHandler) DeleteConvocatoria(c *gin.Context) {
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

	if err := h.convocatoriaService.DeleteConvocatoria(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CONVOCATORIA", "convocatoria", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Convocatoria deleted successfully"})
}

// Import bulk-upserts announcements matched by titulo and organismo
// @Summary     Import grant announcements
// @Description Internal endpoint for the grants pipeline; authenticated with X-API-Key
// @Tags        internal
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body ImportRequest true "Announcements"
// @Success     200 {object} services.ImportResult "Import summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /internal/convocatorias/import [post]
func (h *ConvocatoriaHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.ConvocatoriaInput, 0, len(req.Convocatorias))
	for _, r := range req.Convocatorias {
		input, err := r.toInput()
		if err != nil {
			respondWithError(c, err)
			return
		}
		inputs = append(inputs, input)
	}

	result, err := h.convocatoriaService.ImportConvocatorias(inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("", "IMPORT_CONVOCATORIAS", "convocatoria", "", c.ClientIP(),
		map[string]interface{}{"created": result.Created, "updated": result.Updated})

	c.JSON(http.StatusOK, result)
}

// CreateSolicitud files an application to an open announcement
// @Summary     Apply to a grant announcement
// @Tags        solicitudes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Announcement ID"
// @Param       request body SolicitudRequest true "Application"
// @Success     201 {object} models.Solicitud "Application filed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Announcement not found"
// @Failure     409 {object} ErrorResponse "Announcement closed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /convocatorias/{id}/solicitudes [post]
func (h *ConvocatoriaHandler) CreateSolicitud(c *gin.Context) {
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

	var req SolicitudRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	solicitud, err := h.convocatoriaService.CreateSolicitud(c.Request.Context(), userID, id, services.SolicitudInput{
		Entidad:       req.Entidad,
		EmailContacto: req.EmailContacto,
		Telefono:      req.Telefono,
		Mensaje:       req.Mensaje,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SOLICITUD", "solicitud", solicitud.ID, c.ClientIP(),
		map[string]interface{}{"convocatoria_id": id})

	c.JSON(http.StatusCreated, gin.H{"solicitud": solicitud})
}

// ListMine returns the caller's applications
// @Summary     My applications
// @Tags        solicitudes
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Solicitud "Applications"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /solicitudes/mine [get]
func (h *ConvocatoriaHandler) ListMine(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	solicitudes, err := h.convocatoriaService.ListUserSolicitudes(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"solicitudes": solicitudes})
}

// ListSolicitudes returns a page of applications for review
// @Summary     List applications
// @Tags        solicitudes
// @Produce     json
// @Security    BearerAuth
// @Param       page            query int    false "Page number"
// @Param       page_size       query int    false "Items per page (max 100)"
// @Param       convocatoria_id query string false "Announcement"
// @Param       estado          query string false "enviada, en_revision, aceptada or rechazada"
// @Success     200 {object} pagination.PageResponse[models.Solicitud] "Applications"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/solicitudes [get]
func (h *ConvocatoriaHandler) ListSolicitudes(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.SolicitudFilter{
		ConvocatoriaID: c.Query("convocatoria_id"),
		Estado:         c.Query("estado"),
	}

	result, err := h.convocatoriaService.ListSolicitudes(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateSolicitudEstado moves an application through review
// @Summary     Update application status
// @Tags        solicitudes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Application ID"
// @Param       request body SolicitudEstadoRequest true "New status"
// @Success     200 {object} models.Solicitud "Application updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/solicitudes/{id}/estado [patch]
func (h *ConvocatoriaHandler) UpdateSolicitudEstado(c *gin.Context) {
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

	var req SolicitudEstadoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	solicitud, err := h.convocatoriaService.UpdateSolicitudEstado(id, req.Estado)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SOLICITUD_ESTADO", "solicitud", id, c.ClientIP(),
		map[string]interface{}{"estado": req.Estado})

	c.JSON(http.StatusOK, gin.H{"solicitud": solicitud})
}
