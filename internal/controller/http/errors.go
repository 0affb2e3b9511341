package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smilecare/clinic-scheduler/internal/service"
)

// respondError translates service errors into HTTP responses. Conflicts are
// final answers for the submitted parameters; infrastructure failures are
// logged and reported generically.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrAppointmentNotFound),
		errors.Is(err, service.ErrPatientNotFound),
		errors.Is(err, service.ErrDentistNotFound),
		errors.Is(err, service.ErrTreatmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrTreatmentNotOffered),
		errors.Is(err, service.ErrDiagnosisTooShort),
		errors.Is(err, service.ErrStartInPast),
		errors.Is(err, service.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case service.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case service.IsStateError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	default:
		logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
