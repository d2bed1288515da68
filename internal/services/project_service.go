package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/finance"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
)

// projectService handles projects and their derived financials.
type projectService struct {
	db *gorm.DB
}

// NewProjectService creates a new ProjectServicer.
func NewProjectService(db *gorm.DB) ProjectServicer {
	return &projectService{db: db}
}

func validateProject(input ProjectInput) error {
	if strings.TrimSpace(input.Nombre) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "nombre is required")
	}
	if input.Presupuesto.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "presupuesto must not be negative")
	}
	if input.FechaInicio.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "fecha_inicio is required")
	}
	if input.FechaFin != nil && input.FechaFin.Before(input.FechaInicio) {
		return apperrors.ErrInvalidProjectDates
	}
	return nil
}

// CreateProject stores a new project.
func (s *projectService) CreateProject(input ProjectInput) (*models.Project, error) {
	if err := validateProject(input); err != nil {
		return nil, err
	}

	estado := input.Estado
	if estado == "" {
		estado = models.ProjectPendiente
	}

	project := &models.Project{
		Nombre:      strings.TrimSpace(input.Nombre),
		Cliente:     input.Cliente,
		Descripcion: input.Descripcion,
		Presupuesto: input.Presupuesto.Round(2),
		FechaInicio: input.FechaInicio,
		FechaFin:    input.FechaFin,
		Estado:      estado,
	}
	if err := s.db.Create(project).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return project, nil
}

// GetProjectByID retrieves a project by ID.
func (s *projectService) GetProjectByID(id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// ListProjects returns a page of projects, optionally restricted to one estado.
func (s *projectService) ListProjects(page pagination.PageRequest, estado *models.ProjectEstado) (*pagination.PageResponse[models.Project], error) {
	page.Defaults()

	base := s.db.Model(&models.Project{})
	if estado != nil {
		base = base.Where("estado = ?", *estado)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	order := page.OrderClause(map[string]string{
		"nombre":       "nombre",
		"fecha_inicio": "fecha_inicio",
		"presupuesto":  "presupuesto",
	}, "fecha_inicio DESC")

	var projects []models.Project
	if err := base.Order(order).Scopes(pagination.Paginate(page)).Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(projects, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateProject replaces the editable fields of a project.
func (s *projectService) UpdateProject(id string, input ProjectInput) (*models.Project, error) {
	if err := validateProject(input); err != nil {
		return nil, err
	}

	project, err := s.GetProjectByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"nombre":       strings.TrimSpace(input.Nombre),
		"cliente":      input.Cliente,
		"descripcion":  input.Descripcion,
		"presupuesto":  input.Presupuesto.Round(2),
		"fecha_inicio": input.FechaInicio,
		"fecha_fin":    input.FechaFin,
	}
	if input.Estado != "" {
		updates["estado"] = input.Estado
	}

	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetProjectByID(id)
}

// DeleteProject soft-deletes a project. Linked income and expense records
// keep their proyecto_id.
func (s *projectService) DeleteProject(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.Project{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// GetProjectFinancials totals the records linked to a project.
func (s *projectService) GetProjectFinancials(id string) (*finance.ProjectFinancials, error) {
	project, err := s.GetProjectByID(id)
	if err != nil {
		return nil, err
	}
	return s.financials(project)
}

func (s *projectService) financials(project *models.Project) (*finance.ProjectFinancials, error) {
	var ingresos []models.Ingreso
	if err := s.db.Where("proyecto_id = ?", project.ID).Find(&ingresos).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var gastos []models.Gasto
	if err := s.db.Where("proyecto_id = ?", project.ID).Find(&gastos).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	f := finance.ForProject(project.ID, project.Presupuesto, ingresos, gastos)
	return &f, nil
}
