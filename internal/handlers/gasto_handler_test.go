package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/services"
)

type mockGastoService struct {
	createFn     func(actorID string, input services.GastoInput) (*models.Gasto, error)
	allFn        func(filter services.FinanceFilter) ([]models.Gasto, error)
	markPagadaFn func(id string, at time.Time) (*models.Gasto, error)
	calls        int
}

var _ services.GastoServicer = (*mockGastoService)(nil)

func (m *mockGastoService) CreateGasto(actorID string, input services.GastoInput) (*models.Gasto, error) {
	m.calls++
	if m.createFn != nil {
		return m.createFn(actorID, input)
	}
	return &models.Gasto{Base: models.Base{ID: ingresoID}, Cantidad: input.Cantidad}, nil
}

func (m *mockGastoService) GetGastoByID(id string) (*models.Gasto, error) {
	m.calls++
	return &models.Gasto{Base: models.Base{ID: id}}, nil
}

func (m *mockGastoService) ListGastos(page pagination.PageRequest, _ services.FinanceFilter) (*pagination.PageResponse[models.Gasto], error) {
	m.calls++
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Gasto{{Concepto: "Bidones"}}, page.Page, page.PageSize, 1)
	return &resp, nil
}

func (m *mockGastoService) AllGastos(filter services.FinanceFilter) ([]models.Gasto, error) {
	m.calls++
	if m.allFn != nil {
		return m.allFn(filter)
	}
	return nil, nil
}

func (m *mockGastoService) UpdateGasto(id string, input services.GastoInput) (*models.Gasto, error) {
	m.calls++
	return &models.Gasto{Base: models.Base{ID: id}, Cantidad: input.Cantidad}, nil
}

func (m *mockGastoService) DeleteGasto(_ string) error {
	m.calls++
	return nil
}

func (m *mockGastoService) MarkPagada(id string, at time.Time) (*models.Gasto, error) {
	m.calls++
	if m.markPagadaFn != nil {
		return m.markPagadaFn(id, at)
	}
	return &models.Gasto{Base: models.Base{ID: id}, Estado: models.GastoPagada, PagadaAt: &at}, nil
}

func (m *mockGastoService) ListPendingGastos() ([]models.Gasto, error) {
	m.calls++
	return nil, nil
}

func setupGastoRouter(handler *GastoHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUserID(testUserID))
	r.POST("/gastos", handler.CreateGasto)
	r.GET("/gastos", handler.ListGastos)
	r.GET("/gastos/export.csv", handler.ExportGastos)
	r.GET("/gastos/:id", handler.GetGasto)
	r.PUT("/gastos/:id", handler.UpdateGasto)
	r.DELETE("/gastos/:id", handler.DeleteGasto)
	r.PATCH("/gastos/:id/pagar", handler.MarkPagada)
	return r
}

func TestGastoHandler_Create(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.GastoInput
		svc := &mockGastoService{
			createFn: func(_ string, input services.GastoInput) (*models.Gasto, error) {
				got = input
				return &models.Gasto{Base: models.Base{ID: ingresoID}}, nil
			},
		}
		r := setupGastoRouter(NewGastoHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/gastos",
			`{"concepto":"Bidones 25L","cantidad":340,"iva":"21","fecha":"2024-02-01T10:00:00+01:00","proveedor":"Plasticos SL","tipo":"material"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Proveedor != "Plasticos SL" || got.Tipo != "material" {
			t.Errorf("unexpected input %+v", got)
		}
		if !got.IVA.Equal(decimal.NewFromInt(21)) {
			t.Errorf("expected iva 21, got %s", got.IVA)
		}
		if got.Fecha.Location() != time.UTC || got.Fecha.Hour() != 9 {
			t.Errorf("expected fecha normalized to UTC, got %v", got.Fecha)
		}
	})

	t.Run("returns 400 on non-numeric amount without calling the service", func(t *testing.T) {
		svc := &mockGastoService{}
		r := setupGastoRouter(NewGastoHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/gastos", `{"concepto":"x","cantidad":"mucho","fecha":"2024-02-01"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		if svc.calls != 0 {
			t.Errorf("expected no service call, got %d", svc.calls)
		}
	})

	t.Run("returns 400 on invalid proyecto_id", func(t *testing.T) {
		svc := &mockGastoService{}
		r := setupGastoRouter(NewGastoHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/gastos", `{"concepto":"x","cantidad":1,"fecha":"2024-02-01","proyecto_id":"p1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if svc.calls != 0 {
			t.Error("service must not be called")
		}
	})
}

func TestGastoHandler_List(t *testing.T) {
	r := setupGastoRouter(NewGastoHandler(&mockGastoService{}, &mockAuditService{}))

	rec := doRequest(r, "GET", "/gastos?page=1&page_size=10&estado=pagada", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["total_items"] != float64(1) || result["page_size"] != float64(10) {
		t.Errorf("unexpected page metadata %v", result)
	}

	rec = doRequest(r, "GET", "/gastos?page_size=500", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for page_size above 100, got %d", rec.Code)
	}
}

func TestGastoHandler_MarkPagada(t *testing.T) {
	t.Run("flips estado", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupGastoRouter(NewGastoHandler(&mockGastoService{}, audit))

		rec := doRequest(r, "PATCH", "/gastos/"+ingresoID+"/pagar", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		gasto := parseJSON(t, rec)["gasto"].(map[string]interface{})
		if gasto["estado"] != "pagada" {
			t.Errorf("expected estado pagada, got %v", gasto["estado"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "MARK_GASTO_PAGADA" {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 409 when already paid", func(t *testing.T) {
		svc := &mockGastoService{
			markPagadaFn: func(string, time.Time) (*models.Gasto, error) { return nil, apperrors.ErrAlreadySettled },
		}
		r := setupGastoRouter(NewGastoHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/gastos/"+ingresoID+"/pagar", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed date", func(t *testing.T) {
		svc := &mockGastoService{}
		r := setupGastoRouter(NewGastoHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/gastos/"+ingresoID+"/pagar", `{"fecha":"ayer"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if svc.calls != 0 {
			t.Error("service must not be called")
		}
	})
}

func TestGastoHandler_Export(t *testing.T) {
	svc := &mockGastoService{
		allFn: func(services.FinanceFilter) ([]models.Gasto, error) {
			return []models.Gasto{{Concepto: "Bidones", Proveedor: "Plasticos SL", Cantidad: decimal.NewFromInt(10), Estado: models.GastoPendiente}}, nil
		},
	}
	r := setupGastoRouter(NewGastoHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/gastos/export.csv", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), `"gastos.csv"`) {
		t.Errorf("unexpected Content-Disposition %s", rec.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(rec.Body.String(), "Plasticos SL") {
		t.Errorf("expected provider in CSV, got %s", rec.Body.String())
	}
}
