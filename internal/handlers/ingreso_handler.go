package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/pdf"
	"ecoaceite/internal/services"
)

// IngresoHandler handles income records.
type IngresoHandler struct {
	ingresoService services.IngresoServicer
	invoices       pdf.InvoiceGenerator
	auditService   services.AuditServicer
}

// NewIngresoHandler creates a new IngresoHandler.
func NewIngresoHandler(ingresoService services.IngresoServicer, invoices pdf.InvoiceGenerator, auditService services.AuditServicer) *IngresoHandler {
	return &IngresoHandler{ingresoService: ingresoService, invoices: invoices, auditService: auditService}
}

// IngresoRequest represents the income form. Amounts accept JSON numbers or
// numeric strings; anything else fails binding.
type IngresoRequest struct {
	Concepto      string               `json:"concepto" binding:"required,max=300"`
	Cantidad      decimal.Decimal      `json:"cantidad" binding:"required,gt=0"`
	IVA           decimal.Decimal      `json:"iva" binding:"gte=0,lte=100"`
	Fecha         string               `json:"fecha" binding:"required"`
	Cliente       string               `json:"cliente" binding:"max=200"`
	NumeroFactura string               `json:"numero_factura" binding:"max=50"`
	Estado        models.IngresoEstado `json:"estado" binding:"omitempty,ingreso_estado"`
	Categoria     string               `json:"categoria" binding:"max=100"`
	Origen        string               `json:"origen" binding:"max=100"`
	ProyectoID    string               `json:"proyecto_id" binding:"omitempty,uuid"`
}

// MarkSettledRequest optionally carries the settlement date.
type MarkSettledRequest struct {
	Fecha *string `json:"fecha"`
}

func (r IngresoRequest) toInput() (services.IngresoInput, error) {
	fecha, err := parseFlexibleTime(r.Fecha)
	if err != nil {
		return services.IngresoInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return services.IngresoInput{
		Concepto:      r.Concepto,
		Cantidad:      r.Cantidad,
		IVA:           r.IVA,
		Fecha:         fecha,
		Cliente:       r.Cliente,
		NumeroFactura: r.NumeroFactura,
		Estado:        r.Estado,
		Categoria:     r.Categoria,
		Origen:        r.Origen,
		ProyectoID:    r.ProyectoID,
	}, nil
}

func validIngresoEstado(v string) bool {
	switch models.IngresoEstado(v) {
	case models.IngresoPendiente, models.IngresoCobrada:
		return true
	}
	return false
}

// CreateIngreso handles the creation of an income record
// @Summary     Create an income record
// @Description Register an issued invoice; the total is derived from cantidad and iva
// @Tags        ingresos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body IngresoRequest true "Income details"
// @Success     201 {object} models.Ingreso "Income created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not accepted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingresos [post]
func (h *IngresoHandler) CreateIngreso(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IngresoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	ingreso, err := h.ingresoService.CreateIngreso(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_INGRESO", "ingreso", ingreso.ID, c.ClientIP(),
		map[string]interface{}{"cantidad": ingreso.Cantidad.StringFixed(2), "estado": ingreso.Estado})

	c.JSON(http.StatusCreated, gin.H{"ingreso": ingreso})
}

// ListIngresos returns a page of income records
// @Summary     List income records
// @Description Paginated income records with optional filters
// @Tags        ingresos
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Items per page (max 100)"
// @Param       sort        query string false "fecha, cantidad, total or estado; prefix - for descending"
// @Param       estado      query string false "pendiente or cobrada"
// @Param       proyecto_id query string false "Linked project"
// @Param       year        query int    false "Calendar year"
// @Param       desde       query string false "From date (YYYY-MM-DD)"
// @Param       hasta       query string false "To date (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Ingreso] "Income records"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not accepted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingresos [get]
func (h *IngresoHandler) ListIngresos(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseFinanceFilter(c, validIngresoEstado)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ingresoService.ListIngresos(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetIngreso returns one income record
// @Summary     Get an income record
// @Tags        ingresos
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income ID"
// @Success     200 {object} models.Ingreso "Income record"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingresos/{id} [get]
func (h *IngresoHandler) GetIngreso(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ingreso, err := h.ingresoService.GetIngresoByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingreso": ingreso})
}

// UpdateIngreso replaces the editable fields of an income record
// @Summary     Update an income record
// @Tags        ingresos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Income ID"
// @Param       request body IngresoRequest true "Income details"
// @Success     200 {object} models.Ingreso "Income updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Settling requires the settle endpoint"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingresos/{id} [put]
func (h *IngresoHandler) UpdateIngreso(c *gin.Context) {
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

	var req IngresoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	ingreso, err := h.ingresoService.UpdateIngreso(id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_INGRESO", "ingreso", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"ingreso": ingreso})
}

// DeleteIngreso removes an income record
// @Summary     Delete an income record
// @Tags        ingresos
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingresos/{id} [delete]
func (h *IngresoHandler) DeleteIngreso(c *gin.Context) {
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

	if err := h.ingresoService.DeleteIngreso(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_INGRESO", "ingreso", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Ingreso deleted successfully"})
}

// MarkCobrada flips a pending income record to collected
// @Summary     Mark income as collected
// @Description Set estado to cobrada; the record leaves the pending list
// @Tags        ingresos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true  "Income ID"
// @Param       request body MarkSettledRequest false "Collection date (defaults to now)"
// @Success     200 {object} models.Ingreso "Income collected"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Not pending"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingresos/{id}/cobrar [patch]
func (h *IngresoHandler) MarkCobrada(c *gin.Context) {
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

	at, err := settlementTime(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ingreso, err := h.ingresoService.MarkCobrada(c.Request.Context(), id, at)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "MARK_INGRESO_COBRADA", "ingreso", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"ingreso": ingreso})
}

// Invoice renders the income record as a PDF invoice
// @Summary     Income invoice
// @Tags        ingresos
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       id path string true "Income ID"
// @Success     200 {file} binary "PDF invoice"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingresos/{id}/factura.pdf [get]
func (h *IngresoHandler) Invoice(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ingreso, err := h.ingresoService.GetIngresoByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	doc, err := h.invoices.Invoice(c.Request.Context(), ingreso)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", pdf.InvoiceNumber(ingreso)+".pdf"))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// ExportIngresos downloads income records as CSV
// @Summary     Export income records
// @Tags        ingresos
// @Produce     text/csv
// @Security    BearerAuth
// @Param       year   query int    false "Calendar year"
// @Param       estado query string false "pendiente or cobrada"
// @Success     200 {file} binary "CSV file"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingresos/export.csv [get]
func (h *IngresoHandler) ExportIngresos(c *gin.Context) {
	filter, err := parseFinanceFilter(c, validIngresoEstado)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ingresos, err := h.ingresoService.AllIngresos(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows := make([][]string, 0, len(ingresos))
	for _, i := range ingresos {
		rows = append(rows, ingresoCSVRow(i))
	}
	writeCSV(c, exportFilename("ingresos", filter.Year), ingresoCSVHeader, rows)
}

// settlementTime reads the optional settlement date body; an empty body means now.
func settlementTime(c *gin.Context) (time.Time, error) {
	at := time.Now()
	if c.Request.ContentLength == 0 {
		return at, nil
	}
	var req MarkSettledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return at, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	parsed, err := parseOptionalTime(req.Fecha)
	if err != nil {
		return at, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if parsed != nil {
		at = *parsed
	}
	return at, nil
}

func exportFilename(kind string, year int) string {
	if year > 0 {
		return fmt.Sprintf("%s-%d.csv", kind, year)
	}
	return kind + ".csv"
}
