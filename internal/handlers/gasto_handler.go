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

// GastoHandler handles expense records.
type GastoHandler struct {
	gastoService services.GastoServicer
	auditService services.AuditServicer
}

// NewGastoHandler creates a new GastoHandler.
func NewGastoHandler(gastoService services.GastoServicer, auditService services.AuditServicer) *GastoHandler {
	return &GastoHandler{gastoService: gastoService, auditService: auditService}
}

// GastoRequest represents the expense form.
type GastoRequest struct {
	Concepto      string             `json:"concepto" binding:"required,max=300"`
	Cantidad      decimal.Decimal    `json:"cantidad" binding:"required,gt=0"`
	IVA           decimal.Decimal    `json:"iva" binding:"gte=0,lte=100"`
	Fecha         string             `json:"fecha" binding:"required"`
	Proveedor     string             `json:"proveedor" binding:"max=200"`
	NumeroFactura string             `json:"numero_factura" binding:"max=50"`
	Estado        models.GastoEstado `json:"estado" binding:"omitempty,gasto_estado"`
	Categoria     string             `json:"categoria" binding:"max=100"`
	Tipo          string             `json:"tipo" binding:"max=100"`
	ProyectoID    string             `json:"proyecto_id" binding:"omitempty,uuid"`
}

func (r GastoRequest) toInput() (services.GastoInput, error) {
	fecha, err := parseFlexibleTime(r.Fecha)
	if err != nil {
		return services.GastoInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return services.GastoInput{
		Concepto:      r.Concepto,
		Cantidad:      r.Cantidad,
		IVA:           r.IVA,
		Fecha:         fecha,
		Proveedor:     r.Proveedor,
		NumeroFactura: r.NumeroFactura,
		Estado:        r.Estado,
		Categoria:     r.Categoria,
		Tipo:          r.Tipo,
		ProyectoID:    r.ProyectoID,
	}, nil
}

func validGastoEstado(v string) bool {
	switch models.GastoEstado(v) {
	case models.GastoPendiente, models.GastoPagada:
		return true
	}
	return false
}

// CreateGasto handles the creation of an expense record
// @Summary     Create an expense record
// @Description Register a received invoice; the total is derived from cantidad and iva
// @Tags        gastos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body GastoRequest true "Expense details"
// @Success     201 {object} models.Gasto "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not accepted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /gastos [post]
func (h *GastoHandler) CreateGasto(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req GastoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	gasto, err := h.gastoService.CreateGasto(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GASTO", "gasto", gasto.ID, c.ClientIP(),
		map[string]interface{}{"cantidad": gasto.Cantidad.StringFixed(2), "estado": gasto.Estado})

	c.JSON(http.StatusCreated, gin.H{"gasto": gasto})
}

// ListGastos returns a page of expense records
// @Summary     List expense records
// @Tags        gastos
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Items per page (max 100)"
// @Param       sort        query string false "fecha, cantidad, total or estado; prefix - for descending"
// @Param       estado      query string false "pendiente or pagada"
// @Param       proyecto_id query string false "Linked project"
// @Param       year        query int    false "Calendar year"
// @Param       desde       query string false "From date (YYYY-MM-DD)"
// @Param       hasta       query string false "To date (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Gasto] "Expense records"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /gastos [get]
func (h *GastoHandler) ListGastos(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseFinanceFilter(c, validGastoEstado)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.gastoService.ListGastos(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGasto returns one expense record
// @Summary     Get an expense record
// @Tags        gastos
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Gasto "Expense record"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /gastos/{id} [get]
func (h *GastoHandler) GetGasto(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	gasto, err := h.gastoService.GetGastoByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gasto": gasto})
}

// UpdateGasto replaces the editable fields of an expense record
// @Summary     Update an expense record
// @Tags        gastos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Expense ID"
// @Param       request body GastoRequest true "Expense details"
// @Success     200 {object} models.Gasto "Expense updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Settling requires the settle endpoint"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /gastos/{id} [put]
func (h *GastoHandler) UpdateGasto(c *gin.Context) {
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

	var req GastoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	gasto, err := h.gastoService.UpdateGasto(id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GASTO", "gasto", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"gasto": gasto})
}

// DeleteGasto removes an expense record
// @Summary     Delete an expense record
// @Tags        gastos
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /gastos/{id} [delete]
func (h *GastoHandler) DeleteGasto(c *gin.Context) {
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

	if err := h.gastoService.DeleteGasto(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GASTO", "gasto", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Gasto deleted successfully"})
}

// MarkPagada flips a pending expense record to paid
// @Summary     Mark expense as paid
// @Tags        gastos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true  "Expense ID"
// @Param       request body MarkSettledRequest false "Payment date (defaults to now)"
// @Success     200 {object} models.Gasto "Expense paid"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Not pending"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /gastos/{id}/pagar [patch]
func (h *GastoHandler) MarkPagada(c *gin.Context) {
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

	gasto, err := h.gastoService.MarkPagada(id, at)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "MARK_GASTO_PAGADA", "gasto", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"gasto": gasto})
}

// ExportGastos downloads expense records as CSV
// @Summary     Export expense records
// @Tags        gastos
// @Produce     text/csv
// @Security    BearerAuth
// @Param       year   query int    false "Calendar year"
// @Param       estado query string false "pendiente or pagada"
// @Success     200 {file} binary "CSV file"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /gastos/export.csv [get]
func (h *GastoHandler) ExportGastos(c *gin.Context) {
	filter, err := parseFinanceFilter(c, validGastoEstado)
	if err != nil {
		respondWithError(c, err)
		return
	}

	gastos, err := h.gastoService.AllGastos(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows := make([][]string, 0, len(gastos))
	for _, g := range gastos {
		rows = append(rows, gastoCSVRow(g))
	}
	writeCSV(c, exportFilename("gastos", filter.Year), gastoCSVHeader, rows)
}
