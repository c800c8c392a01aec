package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetQueue returns the live queue view for one doctor session. The staff app
// polls this endpoint.
func (h *HandlerBundle) GetQueue(c *gin.Context) {
	clinicID := c.Query("clinicId")
	doctorID := c.Query("doctorId")
	date := c.Query("date")
	if clinicID == "" || doctorID == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clinicId, doctorId and date are required"})
		return
	}
	sessionIndex, err := strconv.Atoi(c.DefaultQuery("session", "0"))
	if err != nil || sessionIndex < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session index"})
		return
	}

	state, err := h.Queue.Project(c.Request.Context(), clinicID, doctorID, date, sessionIndex)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetDoctorDelay returns how many minutes the doctor is running behind in the
// current session.
func (h *HandlerBundle) GetDoctorDelay(c *gin.Context) {
	doctorID := c.Param("id")
	clinicID := c.Query("clinicId")
	date := c.Query("date")
	if clinicID == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clinicId and date are required"})
		return
	}
	sessionIndex, err := strconv.Atoi(c.DefaultQuery("session", "0"))
	if err != nil || sessionIndex < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session index"})
		return
	}

	delay, err := h.Queue.DoctorDelay(c.Request.Context(), clinicID, doctorID, date, sessionIndex)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctorId": doctorID, "delayMinutes": delay})
}
