package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smilecare/clinic-scheduler/internal/service"
)

type confirmRequest struct {
	DentistID int64 `json:"dentist_id" binding:"required"`
}

// ConfirmAppointment handles POST /api/v1/appointments/:id/confirm.
func (h *Handler) ConfirmAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appt, err := h.appointments.Confirm(c.Request.Context(), id, req.DentistID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

type cancelRequest struct {
	DentistID int64 `json:"dentist_id"`
	PatientID int64 `json:"patient_id"`
}

// CancelAppointment handles POST /api/v1/appointments/:id/cancel. Either the
// owning patient or the appointment's dentist may cancel.
func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DentistID == 0 && req.PatientID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dentist_id or patient_id is required"})
		return
	}

	appt, err := h.appointments.Cancel(c.Request.Context(), id, service.Actor{
		PatientID: req.PatientID,
		DentistID: req.DentistID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

type completeRequest struct {
	DentistID int64  `json:"dentist_id" binding:"required"`
	Diagnosis string `json:"diagnosis" binding:"required"`
	FollowUp  string `json:"follow_up"`
}

// CompleteAppointment handles POST /api/v1/appointments/:id/complete.
func (h *Handler) CompleteAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appt, err := h.appointments.Complete(c.Request.Context(), id, req.DentistID, req.Diagnosis, req.FollowUp)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

// GetAppointment handles GET /api/v1/appointments/:id.
func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	appt, record, err := h.appointments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointment": appt, "treatment_record": record})
}

// ListPatientAppointments handles GET /api/v1/patients/:id/appointments.
func (h *Handler) ListPatientAppointments(c *gin.Context) {
	patientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}

	appts, err := h.appointments.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// ListTreatments handles GET /api/v1/treatments.
func (h *Handler) ListTreatments(c *gin.Context) {
	treatments, err := h.treatments.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"treatments": treatments})
}
