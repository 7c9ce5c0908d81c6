package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pvolkov-dev/skyfare/internal/domain"
)

// fail maps a workflow error onto the HTTP taxonomy: missing entities are
// 404, business conflicts 409, transient conflicts 503 (caller may retry),
// validation 400, anything else 500.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrFlightNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrPaymentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNoSeats),
		errors.Is(err, domain.ErrAlreadyCancelled):
		status = http.StatusConflict
	case domain.Retryable(err):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
