package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smilecare/clinic-scheduler/internal/service"
)

type bookAppointmentRequest struct {
	PatientID   int64  `json:"patient_id" binding:"required"`
	DentistID   int64  `json:"dentist_id" binding:"required"`
	TreatmentID int64  `json:"treatment_id" binding:"required"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	Note        string `json:"note"`
	StaffBooked bool   `json:"staff_booked"`
}

// BookAppointment handles POST /api/v1/appointments.
func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	clock, err := parseClock(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_time, expected HH:MM"})
		return
	}

	initiator := service.InitiatorPatient
	if req.StaffBooked {
		initiator = service.InitiatorStaff
	}

	confirmation, err := h.booking.Book(c.Request.Context(), service.BookingRequest{
		PatientID:   req.PatientID,
		DentistID:   req.DentistID,
		TreatmentID: req.TreatmentID,
		Day:         day,
		StartsAt:    day.Add(clock),
		Note:        req.Note,
		Initiator:   initiator,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, confirmation)
}

// GetAvailability handles GET /api/v1/availability.
func (h *Handler) GetAvailability(c *gin.Context) {
	dentistID, err := strconv.ParseInt(c.Query("dentistId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dentistId is required"})
		return
	}

	day, err := parseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	var treatmentID *int64
	if raw := c.Query("treatmentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid treatmentId"})
			return
		}
		treatmentID = &id
	}

	windows, err := h.availability.FreeSlots(c.Request.Context(), dentistID, day, treatmentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"slots": windows})
}

func parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}

func parseClock(raw string) (time.Duration, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("parse clock: %w", err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
