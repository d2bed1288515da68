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

// ProjectHandler handles projects and their derived financials.
type ProjectHandler struct {
	projectService services.ProjectServicer
	auditService   services.AuditServicer
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService services.ProjectServicer, auditService services.AuditServicer) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, auditService: auditService}
}

// ProjectRequest represents the project form.
type ProjectRequest struct {
	Nombre      string               `json:"nombre" binding:"required,max=200"`
	Cliente     string               `json:"cliente" binding:"max=200"`
	Descripcion string               `json:"descripcion" binding:"max=2000"`
	Presupuesto decimal.Decimal      `json:"presupuesto" binding:"gte=0"`
	FechaInicio string               `json:"fecha_inicio" binding:"required"`
	FechaFin    *string              `json:"fecha_fin"`
	Estado      models.ProjectEstado `json:"estado" binding:"omitempty,project_estado"`
}

func (r ProjectRequest) toInput() (services.ProjectInput, error) {
	inicio, err := parseFlexibleTime(r.FechaInicio)
	if err != nil {
		return services.ProjectInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	fin, err := parseOptionalTime(r.FechaFin)
	if err != nil {
		return services.ProjectInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return services.ProjectInput{
		Nombre:      r.Nombre,
		Cliente:     r.Cliente,
		Descripcion: r.Descripcion,
		Presupuesto: r.Presupuesto,
		FechaInicio: inicio,
		FechaFin:    fin,
		Estado:      r.Estado,
	}, nil
}

// CreateProject handles the creation of a project
// @Summary     Create a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ProjectRequest true "Project details"
// @Success     201 {object} models.Project "Project created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.CreateProject(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PROJECT", "project", project.ID, c.ClientIP(),
		map[string]interface{}{"nombre": project.Nombre})

	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// ListProjects returns a page of projects
// @Summary     List projects
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page (max 100)"
// @Param       estado    query string false "activo, pendiente, completado or cancelado"
// @Success     200 {object} pagination.PageResponse[models.Project] "Projects"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var estado *models.ProjectEstado
	if v := c.Query("estado"); v != "" {
		e := models.ProjectEstado(v)
		switch e {
		case models.ProjectActivo, models.ProjectPendiente, models.ProjectCompletado, models.ProjectCancelado:
			estado = &e
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid estado"))
			return
		}
	}

	result, err := h.projectService.ListProjects(page, estado)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProject returns one project
// @Summary     Get a project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} models.Project "Project"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetProjectByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// UpdateProject replaces the editable fields of a project
// @Summary     Update a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Project ID"
// @Param       request body ProjectRequest true "Project details"
// @Success     200 {object} models.Project "Project updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
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

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROJECT", "project", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// DeleteProject removes a project. Linked income and expense records are kept.
// @Summary     Delete a project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
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

	if err := h.projectService.DeleteProject(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PROJECT", "project", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// GetProjectFinancials returns income, expense, profitability and budget consumption
// @Summary     Project financials
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} finance.ProjectFinancials "Financials"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id}/financials [get]
func (h *ProjectHandler) GetProjectFinancials(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	financials, err := h.projectService.GetProjectFinancials(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"financials": financials})
}
