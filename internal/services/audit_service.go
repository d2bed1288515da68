package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/logger"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log stores one back-office write. A failed insert is logged and swallowed:
// the audited operation has already succeeded.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.Named("audit")

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			log.Warnw("dropping unencodable audit changes", "action", action, "error", err)
		} else {
			entry.Changes = string(data)
		}
	}

	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to store audit entry",
			"error", err,
			"action", action,
			"resource", resourceType+"/"+resourceID,
			"user_id", userID,
		)
	}
}

// ListAuditLogs returns the trail newest first.
func (s *auditService) ListAuditLogs(page pagination.PageRequest, filter AuditFilter) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	query := s.db.Model(&models.AuditLog{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := query.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, total)
	return &result, nil
}
