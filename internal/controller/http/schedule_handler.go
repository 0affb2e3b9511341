package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smilecare/clinic-scheduler/internal/model"
	"github.com/smilecare/clinic-scheduler/internal/render"
	"github.com/smilecare/clinic-scheduler/internal/service"
)

type setScheduleRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Status    string `json:"status" binding:"required"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Note      string `json:"note"`
}

// SetSchedule handles PUT /api/v1/dentists/:id/schedule.
func (h *Handler) SetSchedule(c *gin.Context) {
	dentistID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dentist id"})
		return
	}

	var req setScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := model.ScheduleStatus(req.Status)
	if status != model.ScheduleStatusWorking && status != model.ScheduleStatusDayOff {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be working or dayoff"})
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, expected YYYY-MM-DD"})
		return
	}

	input := service.ScheduleRangeInput{
		DentistID: dentistID,
		StartDate: startDate,
		EndDate:   endDate,
		Status:    status,
		Note:      req.Note,
	}

	if status == model.ScheduleStatusWorking {
		workStart, err := parseClock(req.StartTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_time, expected HH:MM"})
			return
		}
		workEnd, err := parseClock(req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_time, expected HH:MM"})
			return
		}
		input.WorkStart = workStart
		input.WorkEnd = workEnd
	}

	result, err := h.schedule.SetScheduleRange(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetScheduleImage handles GET /api/v1/dentists/:id/schedule.png. The week
// query parameter names the Monday the view starts on.
func (h *Handler) GetScheduleImage(c *gin.Context) {
	dentistID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dentist id"})
		return
	}

	weekStart, err := parseDate(c.Query("week"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week, expected YYYY-MM-DD"})
		return
	}

	slots, err := h.schedule.Slots(c.Request.Context(), dentistID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	png, err := render.WeekImage(weekStart, slots)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
