package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoaceite/internal/content"
)

// PageStore is the read side of the static content.
type PageStore interface {
	Get(slug string) (*content.Page, error)
	List() []content.PageSummary
}

// ContentHandler serves the marketing pages.
type ContentHandler struct {
	pages PageStore
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(pages PageStore) *ContentHandler {
	return &ContentHandler{pages: pages}
}

// ListPages returns the page menu
// @Summary     List pages
// @Tags        pages
// @Produce     json
// @Success     200 {array} content.PageSummary "Pages in menu order"
// @Router      /pages [get]
func (h *ContentHandler) ListPages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pages": h.pages.List()})
}

// GetPage returns a rendered page
// @Summary     Get a page
// @Tags        pages
// @Produce     json
// @Param       slug path string true "Page slug"
// @Success     200 {object} content.Page "Rendered page"
// @Failure     404 {object} ErrorResponse "Page not found"
// @Router      /pages/{slug} [get]
func (h *ContentHandler) GetPage(c *gin.Context) {
	page, err := h.pages.Get(c.Param("slug"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, gin.H{"page": page})
}
