package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/services"
)

// ContactHandler handles the public contact form.
type ContactHandler struct {
	contactService services.ContactServicer
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactService services.ContactServicer) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRequest represents the contact form.
type ContactRequest struct {
	Nombre  string `json:"nombre" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email,max=255"`
	Asunto  string `json:"asunto" binding:"max=300"`
	Mensaje string `json:"mensaje" binding:"required,max=5000"`
}

// CreateMessage stores a contact form submission
// @Summary     Send a contact message
// @Tags        contact
// @Accept      json
// @Produce     json
// @Param       request body ContactRequest true "Message"
// @Success     201 {object} models.ContactMessage "Message stored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /contact [post]
func (h *ContactHandler) CreateMessage(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	msg, err := h.contactService.CreateContactMessage(c.Request.Context(), req.Nombre, req.Email, req.Asunto, req.Mensaje)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ListMessages returns a page of contact messages
// @Summary     List contact messages
// @Tags        contact
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.ContactMessage] "Messages"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/contact [get]
func (h *ContactHandler) ListMessages(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.contactService.ListContactMessages(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
