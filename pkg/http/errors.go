package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/coldchain-monitor/pkg/iot"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, iot.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, iot.ErrInvalidTransition),
		errors.Is(err, iot.ErrOverlappingAssignment),
		errors.Is(err, iot.ErrDuplicateDefault),
		errors.Is(err, iot.ErrProfileInUse):
		return http.StatusConflict
	case errors.Is(err, iot.ErrConfiguration), errors.Is(err, models.ErrInvalidDescriptor):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}
