package handlers

import (
	"net/http"

	"clinq/services/breaks"

	"github.com/gin-gonic/gin"
)

// AddBreak records a doctor break, blocks its slots and shifts the affected
// queue. Patients in the session are notified after the write commits.
func (h *HandlerBundle) AddBreak(c *gin.Context) {
	var req breaks.AddBreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req.DoctorID = c.Param("id")

	period, err := h.Breaks.AddBreak(c.Request.Context(), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	h.Dispatcher.BreakUpdated(c.Request.Context(), req.ClinicID, req.DoctorID, req.Date, period.SessionIndex, period.DurationMinutes)
	c.JSON(http.StatusOK, period)
}

// RemoveBreak deletes a break and frees its slots.
func (h *HandlerBundle) RemoveBreak(c *gin.Context) {
	doctorID := c.Param("id")
	breakID := c.Param("breakId")
	clinicID := c.Query("clinicId")
	date := c.Query("date")
	if clinicID == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clinicId and date are required"})
		return
	}

	if err := h.Breaks.RemoveBreak(c.Request.Context(), clinicID, doctorID, date, breakID); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed", "breakId": breakID})
}
