package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/finance"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/services"
)

type mockProjectService struct {
	createFn     func(input services.ProjectInput) (*models.Project, error)
	listFn       func(page pagination.PageRequest, estado *models.ProjectEstado) (*pagination.PageResponse[models.Project], error)
	deleteFn     func(id string) error
	financialsFn func(id string) (*finance.ProjectFinancials, error)
	calls        int
}

var _ services.ProjectServicer = (*mockProjectService)(nil)

func (m *mockProjectService) CreateProject(input services.ProjectInput) (*models.Project, error) {
	m.calls++
	if m.createFn != nil {
		return m.createFn(input)
	}
	return &models.Project{Base: models.Base{ID: ingresoID}, Nombre: input.Nombre}, nil
}

func (m *mockProjectService) GetProjectByID(id string) (*models.Project, error) {
	m.calls++
	return &models.Project{Base: models.Base{ID: id}}, nil
}

func (m *mockProjectService) ListProjects(page pagination.PageRequest, estado *models.ProjectEstado) (*pagination.PageResponse[models.Project], error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(page, estado)
	}
	resp := pagination.NewPageResponse[models.Project](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockProjectService) UpdateProject(id string, input services.ProjectInput) (*models.Project, error) {
	m.calls++
	return &models.Project{Base: models.Base{ID: id}, Nombre: input.Nombre}, nil
}

func (m *mockProjectService) DeleteProject(id string) error {
	m.calls++
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

func (m *mockProjectService) GetProjectFinancials(id string) (*finance.ProjectFinancials, error) {
	m.calls++
	if m.financialsFn != nil {
		return m.financialsFn(id)
	}
	return &finance.ProjectFinancials{ProjectID: id}, nil
}

func setupProjectRouter(handler *ProjectHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUserID(testUserID))
	r.POST("/projects", handler.CreateProject)
	r.GET("/projects", handler.ListProjects)
	r.GET("/projects/:id", handler.GetProject)
	r.PUT("/projects/:id", handler.UpdateProject)
	r.DELETE("/projects/:id", handler.DeleteProject)
	r.GET("/projects/:id/financials", handler.GetProjectFinancials)
	return r
}

func TestProjectHandler_Create(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.ProjectInput
		svc := &mockProjectService{
			createFn: func(input services.ProjectInput) (*models.Project, error) {
				got = input
				return &models.Project{Base: models.Base{ID: ingresoID}, Nombre: input.Nombre}, nil
			},
		}
		r := setupProjectRouter(NewProjectHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/projects",
			`{"nombre":"Ruta hostelera Centro","presupuesto":"5000","fecha_inicio":"2024-01-10","fecha_fin":"2024-12-31","estado":"activo"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.FechaFin == nil || got.FechaFin.Month() != 12 {
			t.Errorf("expected fecha_fin forwarded, got %v", got.FechaFin)
		}
		if got.Estado != models.ProjectActivo {
			t.Errorf("expected estado activo, got %s", got.Estado)
		}
	})

	t.Run("returns 400 on negative budget", func(t *testing.T) {
		svc := &mockProjectService{}
		r := setupProjectRouter(NewProjectHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/projects", `{"nombre":"x","presupuesto":-1,"fecha_inicio":"2024-01-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if svc.calls != 0 {
			t.Error("service must not be called")
		}
	})

	t.Run("returns 400 on inverted dates", func(t *testing.T) {
		svc := &mockProjectService{
			createFn: func(services.ProjectInput) (*models.Project, error) { return nil, apperrors.ErrInvalidProjectDates },
		}
		r := setupProjectRouter(NewProjectHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/projects", `{"nombre":"x","fecha_inicio":"2024-05-10","fecha_fin":"2024-01-01"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PROJECT_DATES")
	})
}

func TestProjectHandler_List(t *testing.T) {
	var got *models.ProjectEstado
	svc := &mockProjectService{
		listFn: func(_ pagination.PageRequest, estado *models.ProjectEstado) (*pagination.PageResponse[models.Project], error) {
			got = estado
			resp := pagination.NewPageResponse[models.Project](nil, 1, 20, 0)
			return &resp, nil
		},
	}
	r := setupProjectRouter(NewProjectHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/projects?estado=completado", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || *got != models.ProjectCompletado {
		t.Errorf("expected estado filter completado, got %v", got)
	}

	rec = doRequest(r, "GET", "/projects?estado=archivado", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on unknown estado, got %d", rec.Code)
	}
}

func TestProjectHandler_Financials(t *testing.T) {
	t.Run("returns derived figures", func(t *testing.T) {
		svc := &mockProjectService{
			financialsFn: func(id string) (*finance.ProjectFinancials, error) {
				return &finance.ProjectFinancials{
					ProjectID:    id,
					Ingresos:     decimal.NewFromInt(500),
					Gastos:       decimal.NewFromInt(200),
					Beneficio:    decimal.NewFromInt(300),
					Rentabilidad: decimal.NewFromInt(60),
				}, nil
			},
		}
		r := setupProjectRouter(NewProjectHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/projects/"+ingresoID+"/financials", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		f := parseJSON(t, rec)["financials"].(map[string]interface{})
		if f["rentabilidad"] != "60" || f["beneficio"] != "300" {
			t.Errorf("unexpected financials %v", f)
		}
	})

	t.Run("returns 404 for unknown project", func(t *testing.T) {
		svc := &mockProjectService{
			financialsFn: func(string) (*finance.ProjectFinancials, error) { return nil, apperrors.ErrProjectNotFound },
		}
		r := setupProjectRouter(NewProjectHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/projects/"+ingresoID+"/financials", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PROJECT_NOT_FOUND")
	})
}

func TestProjectHandler_Delete(t *testing.T) {
	audit := &mockAuditService{}
	r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, audit))

	rec := doRequest(r, "DELETE", "/projects/"+ingresoID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(audit.entries) != 1 || audit.entries[0].action != "DELETE_PROJECT" {
		t.Errorf("unexpected audit entries %+v", audit.entries)
	}
}
