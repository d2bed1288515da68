package services

import (
	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
)

// usuarioService manages the secondary profile collection.
type usuarioService struct {
	db *gorm.DB
}

// NewUsuarioService creates a new UsuarioServicer.
func NewUsuarioService(db *gorm.DB) UsuarioServicer {
	return &usuarioService{db: db}
}

// CreateUsuario adds an entry. At least one of uid and email is required.
func (s *usuarioService) CreateUsuario(uid, email, nombre string, role models.Role) (*models.Usuario, error) {
	email = normalizeEmail(email)
	if uid == "" && email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "uid or email is required")
	}
	if !role.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown role")
	}

	u := &models.Usuario{UID: uid, Email: email, Nombre: nombre, Role: role}
	if err := s.db.Create(u).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return u, nil
}

// ListUsuarios returns a page of entries, newest first.
func (s *usuarioService) ListUsuarios(page pagination.PageRequest) (*pagination.PageResponse[models.Usuario], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Usuario{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []models.Usuario
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rows, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteUsuario soft-deletes an entry.
func (s *usuarioService) DeleteUsuario(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.Usuario{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUsuarioNotFound
	}
	return nil
}
