package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/notify"
	"ecoaceite/internal/pagination"
)

type contactService struct {
	db       *gorm.DB
	notifier notify.Notifier
}

// NewContactService creates a new ContactServicer.
func NewContactService(db *gorm.DB, notifier notify.Notifier) ContactServicer {
	return &contactService{db: db, notifier: notifier}
}

// CreateContactMessage stores a contact form submission and forwards it.
func (s *contactService) CreateContactMessage(ctx context.Context, nombre, email, asunto, mensaje string) (*models.ContactMessage, error) {
	if strings.TrimSpace(nombre) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(mensaje) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "nombre, email and mensaje are required")
	}

	msg := &models.ContactMessage{
		Nombre:  strings.TrimSpace(nombre),
		Email:   normalizeEmail(email),
		Asunto:  strings.TrimSpace(asunto),
		Mensaje: mensaje,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	notify.Dispatch(ctx, s.notifier, notify.NewEvent(notify.EventContactReceived, msg.ID, map[string]string{
		"nombre":  msg.Nombre,
		"email":   msg.Email,
		"asunto":  msg.Asunto,
		"mensaje": msg.Mensaje,
	}))
	return msg, nil
}

// ListContactMessages returns a page of messages, newest first.
func (s *contactService) ListContactMessages(page pagination.PageRequest) (*pagination.PageResponse[models.ContactMessage], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.ContactMessage{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []models.ContactMessage
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rows, page.Page, page.PageSize, totalItems)
	return &result, nil
}
