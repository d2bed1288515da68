package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "ecoaceite/internal/errors"
)

// APIKeyAuth guards the internal endpoints fed by the grants scraper. The
// X-API-Key header must equal apiKey; an empty apiKey disables the endpoints.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrAPIKeyNotSet)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
