package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/finance"
	"ecoaceite/internal/models"
	"ecoaceite/internal/notify"
	"ecoaceite/internal/pagination"
)

var financeSortColumns = map[string]string{
	"fecha":    "fecha",
	"cantidad": "cantidad",
	"total":    "total",
	"estado":   "estado",
}

// ingresoService handles income records.
type ingresoService struct {
	db       *gorm.DB
	notifier notify.Notifier
}

// NewIngresoService creates a new IngresoServicer.
func NewIngresoService(db *gorm.DB, notifier notify.Notifier) IngresoServicer {
	return &ingresoService{db: db, notifier: notifier}
}

func validateAmounts(concepto string, cantidad, iva decimal.Decimal, fecha time.Time) error {
	if strings.TrimSpace(concepto) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "concepto is required")
	}
	if !cantidad.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "cantidad must be greater than zero")
	}
	if iva.IsNegative() || iva.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "iva must be between 0 and 100")
	}
	if fecha.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "fecha is required")
	}
	return nil
}

// financeScope applies a FinanceFilter to an ingresos or gastos query.
func financeScope(filter FinanceFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Estado != "" {
			db = db.Where("estado = ?", filter.Estado)
		}
		if filter.ProyectoID != "" {
			db = db.Where("proyecto_id = ?", filter.ProyectoID)
		}
		if filter.Year > 0 {
			from := time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
			db = db.Where("fecha >= ? AND fecha < ?", from, from.AddDate(1, 0, 0))
		}
		return db.Scopes(pagination.Between("fecha", filter.Range))
	}
}

// CreateIngreso stores a new income record. The total is derived from
// cantidad and iva.
func (s *ingresoService) CreateIngreso(actorID string, input IngresoInput) (*models.Ingreso, error) {
	if err := validateAmounts(input.Concepto, input.Cantidad, input.IVA, input.Fecha); err != nil {
		return nil, err
	}

	estado := input.Estado
	if estado == "" {
		estado = models.IngresoPendiente
	}

	ingreso := &models.Ingreso{
		Concepto:      strings.TrimSpace(input.Concepto),
		Cantidad:      input.Cantidad.Round(2),
		IVA:           input.IVA,
		Total:         finance.GrossTotal(input.Cantidad, input.IVA),
		Fecha:         input.Fecha,
		Cliente:       input.Cliente,
		NumeroFactura: input.NumeroFactura,
		Estado:        estado,
		Categoria:     input.Categoria,
		Origen:        input.Origen,
		ProyectoID:    input.ProyectoID,
		CreatedBy:     actorID,
	}
	if estado == models.IngresoCobrada {
		now := time.Now()
		ingreso.CobradaAt = &now
	}

	if err := s.db.Create(ingreso).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ingreso, nil
}

// GetIngresoByID retrieves an income record by ID.
func (s *ingresoService) GetIngresoByID(id string) (*models.Ingreso, error) {
	var ingreso models.Ingreso
	if err := s.db.Where("id = ?", id).First(&ingreso).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIngresoNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ingreso, nil
}

// ListIngresos returns a filtered page of income records, newest first by default.
func (s *ingresoService) ListIngresos(page pagination.PageRequest, filter FinanceFilter) (*pagination.PageResponse[models.Ingreso], error) {
	page.Defaults()

	base := s.db.Model(&models.Ingreso{}).Scopes(financeScope(filter))

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var ingresos []models.Ingreso
	order := page.OrderClause(financeSortColumns, "fecha DESC")
	if err := base.Order(order).Scopes(pagination.Paginate(page)).Find(&ingresos).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(ingresos, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// AllIngresos returns every matching income record ordered by date. It feeds
// the aggregations and exports, which need the full set.
func (s *ingresoService) AllIngresos(filter FinanceFilter) ([]models.Ingreso, error) {
	var ingresos []models.Ingreso
	if err := s.db.Scopes(financeScope(filter)).Order("fecha ASC").Find(&ingresos).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ingresos, nil
}

// UpdateIngreso replaces the editable fields of an income record. It can move
// a collected record back to pendiente but never settles one: that goes
// through MarkCobrada so the pending check and notification run.
func (s *ingresoService) UpdateIngreso(id string, input IngresoInput) (*models.Ingreso, error) {
	if err := validateAmounts(input.Concepto, input.Cantidad, input.IVA, input.Fecha); err != nil {
		return nil, err
	}

	ingreso, err := s.GetIngresoByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"concepto":       strings.TrimSpace(input.Concepto),
		"cantidad":       input.Cantidad.Round(2),
		"iva":            input.IVA,
		"total":          finance.GrossTotal(input.Cantidad, input.IVA),
		"fecha":          input.Fecha,
		"cliente":        input.Cliente,
		"numero_factura": input.NumeroFactura,
		"categoria":      input.Categoria,
		"origen":         input.Origen,
		"proyecto_id":    input.ProyectoID,
	}
	if input.Estado != "" && input.Estado != ingreso.Estado {
		if input.Estado == models.IngresoCobrada {
			return nil, apperrors.ErrSettleOnUpdate
		}
		updates["estado"] = input.Estado
		updates["cobrada_at"] = nil
	}

	if err := s.db.Model(ingreso).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetIngresoByID(id)
}

// DeleteIngreso soft-deletes an income record.
func (s *ingresoService) DeleteIngreso(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.Ingreso{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrIngresoNotFound
	}
	return nil
}

// MarkCobrada flips a pending income record to cobrada. Records that are not
// pending yield ErrAlreadySettled.
func (s *ingresoService) MarkCobrada(ctx context.Context, id string, at time.Time) (*models.Ingreso, error) {
	result := s.db.Model(&models.Ingreso{}).
		Where("id = ? AND estado = ?", id, models.IngresoPendiente).
		Updates(map[string]interface{}{"estado": models.IngresoCobrada, "cobrada_at": at})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetIngresoByID(id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrAlreadySettled
	}

	ingreso, err := s.GetIngresoByID(id)
	if err != nil {
		return nil, err
	}

	notify.Dispatch(ctx, s.notifier, notify.NewEvent(notify.EventIngresoCobrada, ingreso.ID, map[string]string{
		"concepto":       ingreso.Concepto,
		"cliente":        ingreso.Cliente,
		"numero_factura": ingreso.NumeroFactura,
		"total":          ingreso.Total.StringFixed(2),
	}))
	return ingreso, nil
}

// ListPendingIngresos returns every income record still to be collected.
func (s *ingresoService) ListPendingIngresos() ([]models.Ingreso, error) {
	return s.AllIngresos(FinanceFilter{Estado: string(models.IngresoPendiente)})
}
