package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smilecare/clinic-scheduler/internal/service"
)

// Handler bundles the services behind the HTTP API.
type Handler struct {
	booking      *service.BookingService
	availability *service.AvailabilityService
	schedule     *service.ScheduleService
	appointments *service.AppointmentService
	treatments   service.TreatmentStore
	logger       *zap.Logger
}

func NewHandler(
	booking *service.BookingService,
	availability *service.AvailabilityService,
	schedule *service.ScheduleService,
	appointments *service.AppointmentService,
	treatments service.TreatmentStore,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		booking:      booking,
		availability: availability,
		schedule:     schedule,
		appointments: appointments,
		treatments:   treatments,
		logger:       logger,
	}
}

// NewRouter wires the API routes.
func NewRouter(h *Handler, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	api := router.Group("/api/v1")
	{
		api.POST("/appointments", h.BookAppointment)
		api.GET("/appointments/:id", h.GetAppointment)
		api.POST("/appointments/:id/confirm", h.ConfirmAppointment)
		api.POST("/appointments/:id/cancel", h.CancelAppointment)
		api.POST("/appointments/:id/complete", h.CompleteAppointment)

		api.GET("/availability", h.GetAvailability)
		api.PUT("/dentists/:id/schedule", h.SetSchedule)
		api.GET("/dentists/:id/schedule.png", h.GetScheduleImage)

		api.GET("/patients/:id/appointments", h.ListPatientAppointments)
		api.GET("/treatments", h.ListTreatments)
	}

	return router
}
