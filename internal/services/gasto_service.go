package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/finance"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
)

// gastoService handles expense records.
type gastoService struct {
	db *gorm.DB
}

// NewGastoService creates a new GastoServicer.
func NewGastoService(db *gorm.DB) GastoServicer {
	return &gastoService{db: db}
}

// CreateGasto stores a new expense record.
func (s *gastoService) CreateGasto(actorID string, input GastoInput) (*models.Gasto, error) {
	if err := validateAmounts(input.Concepto, input.Cantidad, input.IVA, input.Fecha); err != nil {
		return nil, err
	}

	estado := input.Estado
	if estado == "" {
		estado = models.GastoPendiente
	}

	gasto := &models.Gasto{
		Concepto:      strings.TrimSpace(input.Concepto),
		Cantidad:      input.Cantidad.Round(2),
		IVA:           input.IVA,
		Total:         finance.GrossTotal(input.Cantidad, input.IVA),
		Fecha:         input.Fecha,
		Proveedor:     input.Proveedor,
		NumeroFactura: input.NumeroFactura,
		Estado:        estado,
		Categoria:     input.Categoria,
		Tipo:          input.Tipo,
		ProyectoID:    input.ProyectoID,
		CreatedBy:     actorID,
	}
	if estado == models.GastoPagada {
		now := time.Now()
		gasto.PagadaAt = &now
	}

	if err := s.db.Create(gasto).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return gasto, nil
}

// GetGastoByID retrieves an expense record by ID.
func (s *gastoService) GetGastoByID(id string) (*models.Gasto, error) {
	var gasto models.Gasto
	if err := s.db.Where("id = ?", id).First(&gasto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGastoNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &gasto, nil
}

// ListGastos returns a filtered page of expense records.
func (s *gastoService) ListGastos(page pagination.PageRequest, filter FinanceFilter) (*pagination.PageResponse[models.Gasto], error) {
	page.Defaults()

	base := s.db.Model(&models.Gasto{}).Scopes(financeScope(filter))

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var gastos []models.Gasto
	order := page.OrderClause(financeSortColumns, "fecha DESC")
	if err := base.Order(order).Scopes(pagination.Paginate(page)).Find(&gastos).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(gastos, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// AllGastos returns every matching expense record ordered by date.
func (s *gastoService) AllGastos(filter FinanceFilter) ([]models.Gasto, error) {
	var gastos []models.Gasto
	if err := s.db.Scopes(financeScope(filter)).Order("fecha ASC").Find(&gastos).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return gastos, nil
}

// UpdateGasto replaces the editable fields of an expense record. Settling
// goes through MarkPagada only.
func (s *gastoService) UpdateGasto(id string, input GastoInput) (*models.Gasto, error) {
	if err := validateAmounts(input.Concepto, input.Cantidad, input.IVA, input.Fecha); err != nil {
		return nil, err
	}

	gasto, err := s.GetGastoByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"concepto":       strings.TrimSpace(input.Concepto),
		"cantidad":       input.Cantidad.Round(2),
		"iva":            input.IVA,
		"total":          finance.GrossTotal(input.Cantidad, input.IVA),
		"fecha":          input.Fecha,
		"proveedor":      input.Proveedor,
		"numero_factura": input.NumeroFactura,
		"categoria":      input.Categoria,
		"tipo":           input.Tipo,
		"proyecto_id":    input.ProyectoID,
	}
	if input.Estado != "" && input.Estado != gasto.Estado {
		if input.Estado == models.GastoPagada {
			return nil, apperrors.ErrSettleOnUpdate
		}
		updates["estado"] = input.Estado
		updates["pagada_at"] = nil
	}

	if err := s.db.Model(gasto).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetGastoByID(id)
}

// DeleteGasto soft-deletes an expense record.
func (s *gastoService) DeleteGasto(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.Gasto{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrGastoNotFound
	}
	return nil
}

// MarkPagada flips a pending expense record to pagada.
func (s *gastoService) MarkPagada(id string, at time.Time) (*models.Gasto, error) {
	result := s.db.Model(&models.Gasto{}).
		Where("id = ? AND estado = ?", id, models.GastoPendiente).
		Updates(map[string]interface{}{"estado": models.GastoPagada, "pagada_at": at})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetGastoByID(id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrAlreadySettled
	}
	return s.GetGastoByID(id)
}

// ListPendingGastos returns every expense record still to be paid.
func (s *gastoService) ListPendingGastos() ([]models.Gasto, error) {
	return s.AllGastos(FinanceFilter{Estado: string(models.GastoPendiente)})
}
