package handlers

import (
	"net/http"

	"clinq/models"

	"github.com/gin-gonic/gin"
)

// UpdateAppointmentStatus applies one staff-side lifecycle action to an
// appointment. Every action is transactional in the booking engine.
func (h *HandlerBundle) UpdateAppointmentStatus(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Action string `json:"action" binding:"required"` // arrive, buffer, skip, complete, no-show, cancel
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch req.Action {
	case "arrive":
		err = h.Booking.ConfirmArrival(ctx, id)
	case "buffer":
		err = h.Booking.MoveToBuffer(ctx, id)
	case "skip":
		err = h.Booking.Skip(ctx, id)
	case "complete":
		err = h.Booking.Complete(ctx, id)
	case "no-show":
		err = h.Booking.MarkNoShow(ctx, id)
	case "cancel":
		err = h.Booking.Cancel(ctx, id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action: " + req.Action})
		return
	}
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointmentId": id, "action": req.Action})
}

// SetConsultationStatus toggles the doctor between In and Out. Flipping to In
// triggers the consultation-started fan-out.
func (h *HandlerBundle) SetConsultationStatus(c *gin.Context) {
	doctorID := c.Param("id")
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if req.Status != models.ConsultationIn && req.Status != models.ConsultationOut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be In or Out"})
		return
	}

	if err := h.Booking.SetConsultationStatus(c.Request.Context(), doctorID, req.Status); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctorId": doctorID, "status": req.Status})
}
