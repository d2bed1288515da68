package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/pagination"
	"ecoaceite/internal/services"
)

// parseFinanceFilter reads the list filters shared by ingresos and gastos:
// estado, proyecto_id, year and the desde/hasta date range.
func parseFinanceFilter(c *gin.Context, validEstado func(string) bool) (services.FinanceFilter, error) {
	var filter services.FinanceFilter

	if v := c.Query("estado"); v != "" {
		if !validEstado(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid estado")
		}
		filter.Estado = v
	}

	filter.ProyectoID = c.Query("proyecto_id")

	year, err := queryInt(c, "year", 0)
	if err != nil {
		return filter, err
	}
	filter.Year = year

	if v := c.Query("desde"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid desde format, use RFC3339 or YYYY-MM-DD")
		}
		filter.Range.From = &t
	}
	if v := c.Query("hasta"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid hasta format, use RFC3339 or YYYY-MM-DD")
		}
		// A bare date covers that whole day; an RFC3339 instant is taken as is.
		if len(v) == len(dateLayout) {
			t = pagination.EndOfDay(t)
		}
		filter.Range.To = &t
	}
	if !filter.Range.Valid() {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "hasta must not be before desde")
	}

	return filter, nil
}
