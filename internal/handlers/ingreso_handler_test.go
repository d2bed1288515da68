package handlers

import (
	"context"
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

type mockIngresoService struct {
	createFn      func(actorID string, input services.IngresoInput) (*models.Ingreso, error)
	getFn         func(id string) (*models.Ingreso, error)
	listFn        func(page pagination.PageRequest, filter services.FinanceFilter) (*pagination.PageResponse[models.Ingreso], error)
	allFn         func(filter services.FinanceFilter) ([]models.Ingreso, error)
	updateFn      func(id string, input services.IngresoInput) (*models.Ingreso, error)
	deleteFn      func(id string) error
	markCobradaFn func(ctx context.Context, id string, at time.Time) (*models.Ingreso, error)
	calls         int
}

var _ services.IngresoServicer = (*mockIngresoService)(nil)

func (m *mockIngresoService) CreateIngreso(actorID string, input services.IngresoInput) (*models.Ingreso, error) {
	m.calls++
	if m.createFn != nil {
		return m.createFn(actorID, input)
	}
	return &models.Ingreso{Base: models.Base{ID: testUserID}, Cantidad: input.Cantidad, Estado: models.IngresoPendiente}, nil
}

func (m *mockIngresoService) GetIngresoByID(id string) (*models.Ingreso, error) {
	m.calls++
	if m.getFn != nil {
		return m.getFn(id)
	}
	return &models.Ingreso{Base: models.Base{ID: id}}, nil
}

func (m *mockIngresoService) ListIngresos(page pagination.PageRequest, filter services.FinanceFilter) (*pagination.PageResponse[models.Ingreso], error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(page, filter)
	}
	resp := pagination.NewPageResponse[models.Ingreso](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockIngresoService) AllIngresos(filter services.FinanceFilter) ([]models.Ingreso, error) {
	m.calls++
	if m.allFn != nil {
		return m.allFn(filter)
	}
	return nil, nil
}

func (m *mockIngresoService) UpdateIngreso(id string, input services.IngresoInput) (*models.Ingreso, error) {
	m.calls++
	if m.updateFn != nil {
		return m.updateFn(id, input)
	}
	return &models.Ingreso{Base: models.Base{ID: id}, Cantidad: input.Cantidad}, nil
}

func (m *mockIngresoService) DeleteIngreso(id string) error {
	m.calls++
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

func (m *mockIngresoService) MarkCobrada(ctx context.Context, id string, at time.Time) (*models.Ingreso, error) {
	m.calls++
	if m.markCobradaFn != nil {
		return m.markCobradaFn(ctx, id, at)
	}
	return &models.Ingreso{Base: models.Base{ID: id}, Estado: models.IngresoCobrada, CobradaAt: &at}, nil
}

func (m *mockIngresoService) ListPendingIngresos() ([]models.Ingreso, error) {
	m.calls++
	return nil, nil
}

type mockInvoiceGenerator struct {
	invoiceFn func(ctx context.Context, ingreso *models.Ingreso) ([]byte, error)
}

func (m *mockInvoiceGenerator) Invoice(ctx context.Context, ingreso *models.Ingreso) ([]byte, error) {
	if m.invoiceFn != nil {
		return m.invoiceFn(ctx, ingreso)
	}
	return []byte("%PDF-1.3 test"), nil
}

func setupIngresoRouter(handler *IngresoHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUserID(testUserID))
	r.POST("/ingresos", handler.CreateIngreso)
	r.GET("/ingresos", handler.ListIngresos)
	r.GET("/ingresos/export.csv", handler.ExportIngresos)
	r.GET("/ingresos/:id", handler.GetIngreso)
	r.PUT("/ingresos/:id", handler.UpdateIngreso)
	r.DELETE("/ingresos/:id", handler.DeleteIngreso)
	r.PATCH("/ingresos/:id/cobrar", handler.MarkCobrada)
	r.GET("/ingresos/:id/factura.pdf", handler.Invoice)
	return r
}

const ingresoID = "0190f0a4-0000-7000-8000-000000000001"

func TestIngresoHandler_Create(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.IngresoInput
		var actor string
		svc := &mockIngresoService{
			createFn: func(actorID string, input services.IngresoInput) (*models.Ingreso, error) {
				actor, got = actorID, input
				return &models.Ingreso{Base: models.Base{ID: ingresoID}, Cantidad: input.Cantidad}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, audit))

		rec := doRequest(r, "POST", "/ingresos",
			`{"concepto":"Recogida marzo","cantidad":"1250.50","iva":21,"fecha":"2024-03-15","cliente":"Hotel Sol"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if actor != testUserID {
			t.Errorf("expected actor %s, got %s", testUserID, actor)
		}
		if !got.Cantidad.Equal(decimal.RequireFromString("1250.50")) {
			t.Errorf("expected cantidad 1250.50, got %s", got.Cantidad)
		}
		if !got.Fecha.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected fecha %v", got.Fecha)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_INGRESO" {
			t.Errorf("expected CREATE_INGRESO audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 400 on non-numeric amount without calling the service", func(t *testing.T) {
		svc := &mockIngresoService{}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		for _, amount := range []string{`"doce euros"`, `"12,50"`, `true`, `"NaN"`} {
			rec := doRequest(r, "POST", "/ingresos",
				`{"concepto":"x","cantidad":`+amount+`,"fecha":"2024-03-15"}`)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("amount %s: expected 400, got %d", amount, rec.Code)
				continue
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		}
		if svc.calls != 0 {
			t.Errorf("expected no service call, got %d", svc.calls)
		}
	})

	t.Run("returns 400 on zero or negative amount", func(t *testing.T) {
		svc := &mockIngresoService{}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		for _, amount := range []string{"0", "-10"} {
			rec := doRequest(r, "POST", "/ingresos", `{"concepto":"x","cantidad":`+amount+`,"fecha":"2024-03-15"}`)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("amount %s: expected 400, got %d", amount, rec.Code)
			}
		}
		if svc.calls != 0 {
			t.Errorf("expected no service call, got %d", svc.calls)
		}
	})

	t.Run("returns 400 on iva above 100", func(t *testing.T) {
		svc := &mockIngresoService{}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/ingresos", `{"concepto":"x","cantidad":10,"iva":121,"fecha":"2024-03-15"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		svc := &mockIngresoService{}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/ingresos", `{"concepto":"x","cantidad":10,"fecha":"15/03/2024"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if svc.calls != 0 {
			t.Error("service must not be called")
		}
	})

	t.Run("returns 400 on unknown estado", func(t *testing.T) {
		r := setupIngresoRouter(NewIngresoHandler(&mockIngresoService{}, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/ingresos", `{"concepto":"x","cantidad":10,"fecha":"2024-03-15","estado":"pagada"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestIngresoHandler_List(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.FinanceFilter
		svc := &mockIngresoService{
			listFn: func(_ pagination.PageRequest, filter services.FinanceFilter) (*pagination.PageResponse[models.Ingreso], error) {
				got = filter
				resp := pagination.NewPageResponse[models.Ingreso](nil, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos?estado=pendiente&year=2024&desde=2024-01-01&hasta=2024-06-30", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Estado != "pendiente" || got.Year != 2024 || got.Range.From == nil || got.Range.To == nil {
			t.Fatalf("unexpected filter %+v", got)
		}
		wantTo := time.Date(2024, time.June, 30, 23, 59, 59, 999999000, time.UTC)
		if !got.Range.To.Equal(wantTo) {
			t.Errorf("date-only hasta should cover the whole day, got %s", got.Range.To)
		}
	})

	t.Run("keeps RFC3339 hasta exact", func(t *testing.T) {
		var got services.FinanceFilter
		svc := &mockIngresoService{
			listFn: func(_ pagination.PageRequest, filter services.FinanceFilter) (*pagination.PageResponse[models.Ingreso], error) {
				got = filter
				resp := pagination.NewPageResponse[models.Ingreso](nil, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos?hasta=2026-10-15T12:00:00Z", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		want := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
		if got.Range.To == nil || !got.Range.To.Equal(want) {
			t.Errorf("expected hasta %s, got %v", want, got.Range.To)
		}
	})

	t.Run("returns 400 on inverted range", func(t *testing.T) {
		r := setupIngresoRouter(NewIngresoHandler(&mockIngresoService{}, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos?desde=2024-06-30&hasta=2024-01-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid estado", func(t *testing.T) {
		r := setupIngresoRouter(NewIngresoHandler(&mockIngresoService{}, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos?estado=pagada", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestIngresoHandler_GetUpdateDelete(t *testing.T) {
	t.Run("returns 400 on invalid id", func(t *testing.T) {
		svc := &mockIngresoService{}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if svc.calls != 0 {
			t.Error("service must not be called")
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockIngresoService{
			getFn: func(string) (*models.Ingreso, error) { return nil, apperrors.ErrIngresoNotFound },
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos/"+ingresoID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INGRESO_NOT_FOUND")
	})

	t.Run("updates a record", func(t *testing.T) {
		var gotID string
		svc := &mockIngresoService{
			updateFn: func(id string, input services.IngresoInput) (*models.Ingreso, error) {
				gotID = id
				return &models.Ingreso{Base: models.Base{ID: id}, Cantidad: input.Cantidad}, nil
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/ingresos/"+ingresoID, `{"concepto":"x","cantidad":99.9,"fecha":"2024-03-15"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != ingresoID {
			t.Errorf("expected id %s, got %s", ingresoID, gotID)
		}
	})

	t.Run("deletes a record", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupIngresoRouter(NewIngresoHandler(&mockIngresoService{}, &mockInvoiceGenerator{}, audit))

		rec := doRequest(r, "DELETE", "/ingresos/"+ingresoID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceID != ingresoID {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})
}

func TestIngresoHandler_MarkCobrada(t *testing.T) {
	t.Run("defaults to now without a body", func(t *testing.T) {
		var gotAt time.Time
		svc := &mockIngresoService{
			markCobradaFn: func(_ context.Context, id string, at time.Time) (*models.Ingreso, error) {
				gotAt = at
				return &models.Ingreso{Base: models.Base{ID: id}, Estado: models.IngresoCobrada}, nil
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		before := time.Now()
		rec := doRequest(r, "PATCH", "/ingresos/"+ingresoID+"/cobrar", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAt.Before(before) {
			t.Errorf("expected settlement time at or after %v, got %v", before, gotAt)
		}
		ingreso := parseJSON(t, rec)["ingreso"].(map[string]interface{})
		if ingreso["estado"] != "cobrada" {
			t.Errorf("expected estado cobrada, got %v", ingreso["estado"])
		}
	})

	t.Run("uses the provided date", func(t *testing.T) {
		var gotAt time.Time
		svc := &mockIngresoService{
			markCobradaFn: func(_ context.Context, id string, at time.Time) (*models.Ingreso, error) {
				gotAt = at
				return &models.Ingreso{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/ingresos/"+ingresoID+"/cobrar", `{"fecha":"2024-04-02"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !gotAt.Equal(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected settlement date %v", gotAt)
		}
	})

	t.Run("returns 409 when already collected", func(t *testing.T) {
		svc := &mockIngresoService{
			markCobradaFn: func(context.Context, string, time.Time) (*models.Ingreso, error) {
				return nil, apperrors.ErrAlreadySettled
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/ingresos/"+ingresoID+"/cobrar", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALREADY_SETTLED")
	})
}

func TestIngresoHandler_Invoice(t *testing.T) {
	t.Run("serves a pdf", func(t *testing.T) {
		svc := &mockIngresoService{
			getFn: func(id string) (*models.Ingreso, error) {
				return &models.Ingreso{Base: models.Base{ID: id}, NumeroFactura: "F-2024-007"}, nil
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos/"+ingresoID+"/factura.pdf", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("expected application/pdf, got %s", ct)
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), "F-2024-007.pdf") {
			t.Errorf("unexpected Content-Disposition %s", rec.Header().Get("Content-Disposition"))
		}
		if !strings.HasPrefix(rec.Body.String(), "%PDF") {
			t.Error("expected PDF body")
		}
	})

	t.Run("returns 500 when rendering fails", func(t *testing.T) {
		gen := &mockInvoiceGenerator{
			invoiceFn: func(context.Context, *models.Ingreso) ([]byte, error) {
				return nil, context.DeadlineExceeded
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(&mockIngresoService{}, gen, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos/"+ingresoID+"/factura.pdf", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestIngresoHandler_Export(t *testing.T) {
	t.Run("writes csv rows", func(t *testing.T) {
		fecha := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		svc := &mockIngresoService{
			allFn: func(filter services.FinanceFilter) ([]models.Ingreso, error) {
				if filter.Year != 2024 {
					t.Errorf("expected year 2024, got %d", filter.Year)
				}
				return []models.Ingreso{{
					Base:     models.Base{ID: ingresoID},
					Concepto: "Recogida, marzo",
					Cantidad: decimal.NewFromInt(100),
					IVA:      decimal.NewFromInt(21),
					Total:    decimal.NewFromInt(121),
					Fecha:    fecha,
					Estado:   models.IngresoPendiente,
				}}, nil
			},
		}
		r := setupIngresoRouter(NewIngresoHandler(svc, &mockInvoiceGenerator{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/ingresos/export.csv?year=2024", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), "ingresos-2024.csv") {
			t.Errorf("unexpected Content-Disposition %s", rec.Header().Get("Content-Disposition"))
		}
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one row, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "id,fecha,concepto") {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.Contains(lines[1], `"Recogida, marzo"`) || !strings.Contains(lines[1], "100.00,21.00,121.00") {
			t.Errorf("unexpected row %q", lines[1])
		}
	})
}
