package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/notify"
	"ecoaceite/internal/pagination"
)

// convocatoriaService handles grant announcements and applications to them.
type convocatoriaService struct {
	db       *gorm.DB
	notifier notify.Notifier
	now      func() time.Time
}

// NewConvocatoriaService creates a new ConvocatoriaServicer.
func NewConvocatoriaService(db *gorm.DB, notifier notify.Notifier) ConvocatoriaServicer {
	return &convocatoriaService{db: db, notifier: notifier, now: time.Now}
}

func validateConvocatoria(input ConvocatoriaInput) error {
	if strings.TrimSpace(input.Titulo) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "titulo is required")
	}
	if input.Importe.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "importe must not be negative")
	}
	if input.FechaApertura.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "fecha_apertura is required")
	}
	if input.FechaCierre != nil && input.FechaCierre.Before(input.FechaApertura) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "fecha_cierre must not be before fecha_apertura")
	}
	return nil
}

func convocatoriaFields(input ConvocatoriaInput) map[string]interface{} {
	return map[string]interface{}{
		"titulo":         strings.TrimSpace(input.Titulo),
		"descripcion":    input.Descripcion,
		"organismo":      strings.TrimSpace(input.Organismo),
		"importe":        input.Importe.Round(2),
		"fecha_apertura": input.FechaApertura,
		"fecha_cierre":   input.FechaCierre,
		"url":            input.URL,
		"activa":         input.Activa,
	}
}

// CreateConvocatoria stores a new grant announcement.
func (s *convocatoriaService) CreateConvocatoria(input ConvocatoriaInput) (*models.Convocatoria, error) {
	if err := validateConvocatoria(input); err != nil {
		return nil, err
	}

	conv := &models.Convocatoria{
		Titulo:        strings.TrimSpace(input.Titulo),
		Descripcion:   input.Descripcion,
		Organismo:     strings.TrimSpace(input.Organismo),
		Importe:       input.Importe.Round(2),
		FechaApertura: input.FechaApertura,
		FechaCierre:   input.FechaCierre,
		URL:           input.URL,
		Activa:        input.Activa,
	}
	if err := s.db.Create(conv).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	// gorm skips zero-valued fields that carry a default on insert.
	if !input.Activa {
		if err := s.db.Model(conv).Update("activa", false).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return conv, nil
}

// GetConvocatoriaByID retrieves a grant announcement. With activeOnly,
// inactive announcements are reported as not found.
func (s *convocatoriaService) GetConvocatoriaByID(id string, activeOnly bool) (*models.Convocatoria, error) {
	query := s.db.Where("id = ?", id)
	if activeOnly {
		query = query.Where("activa = ?", true)
	}

	var conv models.Convocatoria
	if err := query.First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrConvocatoriaNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &conv, nil
}

// ListConvocatorias returns a page of grant announcements ordered by closing date.
func (s *convocatoriaService) ListConvocatorias(page pagination.PageRequest, activeOnly bool) (*pagination.PageResponse[models.Convocatoria], error) {
	page.Defaults()

	base := s.db.Model(&models.Convocatoria{})
	if activeOnly {
		base = base.Where("activa = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	order := page.OrderClause(map[string]string{
		"fecha_apertura": "fecha_apertura",
		"fecha_cierre":   "fecha_cierre",
		"importe":        "importe",
		"titulo":         "titulo",
	}, "fecha_apertura DESC")

	var convs []models.Convocatoria
	if err := base.Order(order).Scopes(pagination.Paginate(page)).Find(&convs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(convs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateConvocatoria replaces the editable fields of a grant announcement.
func (s *convocatoriaService) UpdateConvocatoria(id string, input ConvocatoriaInput) (*models.Convocatoria, error) {
	if err := validateConvocatoria(input); err != nil {
		return nil, err
	}

	conv, err := s.GetConvocatoriaByID(id, false)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(conv).Updates(convocatoriaFields(input)).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetConvocatoriaByID(id, false)
}

// DeleteConvocatoria soft-deletes a grant announcement.
func (s *convocatoriaService) DeleteConvocatoria(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.Convocatoria{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConvocatoriaNotFound
	}
	return nil
}

// ImportConvocatorias upserts announcements keyed by (titulo, organismo) in a
// single transaction. Soft-deleted matches are restored.
func (s *convocatoriaService) ImportConvocatorias(inputs []ConvocatoriaInput) (*ImportResult, error) {
	for i, input := range inputs {
		if err := validateConvocatoria(input); err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item "+strconv.Itoa(i)+": "+appErr.Message)
			}
			return nil, err
		}
	}

	result := &ImportResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, input := range inputs {
			var existing models.Convocatoria
			err := tx.Unscoped().
				Where("titulo = ? AND organismo = ?", strings.TrimSpace(input.Titulo), strings.TrimSpace(input.Organismo)).
				First(&existing).Error

			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				conv := &models.Convocatoria{
					Titulo:        strings.TrimSpace(input.Titulo),
					Descripcion:   input.Descripcion,
					Organismo:     strings.TrimSpace(input.Organismo),
					Importe:       input.Importe.Round(2),
					FechaApertura: input.FechaApertura,
					FechaCierre:   input.FechaCierre,
					URL:           input.URL,
					Activa:        input.Activa,
				}
				if err := tx.Create(conv).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				if !input.Activa {
					if err := tx.Model(conv).Update("activa", false).Error; err != nil {
						return apperrors.Wrap(apperrors.ErrInternalServer, err)
					}
				}
				result.Created++
			case err != nil:
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			default:
				fields := convocatoriaFields(input)
				fields["deleted_at"] = nil
				if err := tx.Unscoped().Model(&existing).Updates(fields).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSolicitud files an application from userID to an open announcement.
func (s *convocatoriaService) CreateSolicitud(ctx context.Context, userID, convocatoriaID string, input SolicitudInput) (*models.Solicitud, error) {
	if strings.TrimSpace(input.Entidad) == "" || strings.TrimSpace(input.EmailContacto) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "entidad and email_contacto are required")
	}

	conv, err := s.GetConvocatoriaByID(convocatoriaID, false)
	if err != nil {
		return nil, err
	}
	if !conv.AcceptsApplications(s.now()) {
		return nil, apperrors.ErrConvocatoriaClosed
	}

	solicitud := &models.Solicitud{
		ConvocatoriaID: conv.ID,
		UserID:         userID,
		Entidad:        strings.TrimSpace(input.Entidad),
		EmailContacto:  normalizeEmail(input.EmailContacto),
		Telefono:       input.Telefono,
		Mensaje:        input.Mensaje,
		Estado:         models.SolicitudEnviada,
	}
	if err := s.db.Create(solicitud).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	notify.Dispatch(ctx, s.notifier, notify.NewEvent(notify.EventSolicitudCreated, solicitud.ID, map[string]string{
		"convocatoria": conv.Titulo,
		"organismo":    conv.Organismo,
		"entidad":      solicitud.Entidad,
		"email":        solicitud.EmailContacto,
	}))

	solicitud.Convocatoria = conv
	return solicitud, nil
}

// ListSolicitudes returns a filtered page of applications with their announcement.
func (s *convocatoriaService) ListSolicitudes(page pagination.PageRequest, filter SolicitudFilter) (*pagination.PageResponse[models.Solicitud], error) {
	page.Defaults()

	base := s.db.Model(&models.Solicitud{})
	if filter.ConvocatoriaID != "" {
		base = base.Where("convocatoria_id = ?", filter.ConvocatoriaID)
	}
	if filter.Estado != "" {
		base = base.Where("estado = ?", filter.Estado)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []models.Solicitud
	if err := base.Preload("Convocatoria").Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rows, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListUserSolicitudes returns every application filed by userID, newest first.
func (s *convocatoriaService) ListUserSolicitudes(userID string) ([]models.Solicitud, error) {
	var rows []models.Solicitud
	if err := s.db.Preload("Convocatoria").Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if rows == nil {
		rows = []models.Solicitud{}
	}
	return rows, nil
}

// UpdateSolicitudEstado moves an application to estado.
func (s *convocatoriaService) UpdateSolicitudEstado(id string, estado models.SolicitudEstado) (*models.Solicitud, error) {
	var solicitud models.Solicitud
	if err := s.db.Where("id = ?", id).First(&solicitud).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSolicitudNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&solicitud).Update("estado", estado).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	solicitud.Estado = estado
	return &solicitud, nil
}
