package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/notify"
	"ecoaceite/internal/pagination"
)

// signupService handles program sign-up forms.
type signupService struct {
	db       *gorm.DB
	notifier notify.Notifier
}

// NewSignupService creates a new SignupServicer.
func NewSignupService(db *gorm.DB, notifier notify.Notifier) SignupServicer {
	return &signupService{db: db, notifier: notifier}
}

// CreateSignup stores a sign-up and notifies the association.
func (s *signupService) CreateSignup(ctx context.Context, input SignupInput) (*models.ProgramSignup, error) {
	if strings.TrimSpace(input.Nombre) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "nombre and email are required")
	}
	if input.Programa == models.ProgramaComunidad && input.NumViviendas <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "num_viviendas is required for comunidades")
	}
	if input.Programa == models.ProgramaEscolar && strings.TrimSpace(input.Centro) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "centro is required for escolar")
	}

	signup := &models.ProgramSignup{
		Programa:        input.Programa,
		Nombre:          strings.TrimSpace(input.Nombre),
		Email:           normalizeEmail(input.Email),
		Telefono:        input.Telefono,
		Direccion:       input.Direccion,
		Distrito:        strings.TrimSpace(input.Distrito),
		CodigoPostal:    input.CodigoPostal,
		NumViviendas:    input.NumViviendas,
		Centro:          input.Centro,
		LitrosEstimados: input.LitrosEstimados,
		Mensaje:         input.Mensaje,
		Estado:          models.SignupNueva,
	}
	if input.UserID != "" {
		uid := input.UserID
		signup.UserID = &uid
	}

	if err := s.db.Create(signup).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	notify.Dispatch(ctx, s.notifier, notify.NewEvent(notify.EventSignupCreated, signup.ID, map[string]string{
		"programa":      string(signup.Programa),
		"nombre":        signup.Nombre,
		"email":         signup.Email,
		"telefono":      signup.Telefono,
		"distrito":      signup.Distrito,
		"num_viviendas": strconv.Itoa(signup.NumViviendas),
	}))
	return signup, nil
}

// ListSignups returns a filtered page of sign-ups, newest first.
func (s *signupService) ListSignups(page pagination.PageRequest, filter SignupFilter) (*pagination.PageResponse[models.ProgramSignup], error) {
	page.Defaults()

	base := s.db.Model(&models.ProgramSignup{})
	if len(filter.Programas) > 0 {
		base = base.Where("programa IN ?", filter.Programas)
	}
	if filter.Estado != "" {
		base = base.Where("estado = ?", filter.Estado)
	}
	if filter.Distrito != "" {
		base = base.Where("LOWER(distrito) = ?", strings.ToLower(filter.Distrito))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []models.ProgramSignup
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rows, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateSignupEstado moves a sign-up to estado. When allowed is non-empty the
// sign-up must belong to one of those programs, otherwise it is reported as
// not found.
func (s *signupService) UpdateSignupEstado(id string, estado models.SignupEstado, allowed []models.Programa) (*models.ProgramSignup, error) {
	query := s.db.Where("id = ?", id)
	if len(allowed) > 0 {
		query = query.Where("programa IN ?", allowed)
	}

	var signup models.ProgramSignup
	if err := query.First(&signup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSignupNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&signup).Update("estado", estado).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	signup.Estado = estado
	return &signup, nil
}
