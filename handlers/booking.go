package handlers

import (
	"net/http"

	"clinq/models"
	"clinq/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondBookingError maps the engine's error taxonomy onto HTTP. Unknown
// kinds log at error level; expected rejections stay at debug.
func respondBookingError(c *gin.Context, err error) {
	status := booking.HTTPStatus(err)
	kind := booking.KindOf(err)
	logger := getLogger(c)
	if status >= http.StatusInternalServerError {
		logger.Error("booking request failed", zap.String("kind", string(kind)), zap.Error(err))
	} else {
		logger.Debug("booking request rejected", zap.String("kind", string(kind)), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}

// BookAdvance books a slot on a future (or same) day, optionally near a
// preferred slot.
func (h *HandlerBundle) BookAdvance(c *gin.Context) {
	var req models.BookAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	result, err := h.Booking.BookAdvance(c.Request.Context(), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BookWalkIn issues a same-day token into the active session. Staff clients
// may force-book outside the active window.
func (h *HandlerBundle) BookWalkIn(c *gin.Context) {
	var req models.BookWalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if _, staff := c.Get("staffID"); !staff {
		req.ForceBook = false
		req.TargetSessionIndex = nil
		req.BookedByStaff = false
	}
	result, err := h.Booking.BookWalkIn(c.Request.Context(), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PreviewWalkIn computes where a walk-in would land without reserving
// anything; the placement is cached briefly for the confirmation screen.
func (h *HandlerBundle) PreviewWalkIn(c *gin.Context) {
	var req models.BookWalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	placement, err := h.Booking.PreviewWalkIn(c.Request.Context(), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, placement)
}

// RebalanceWalkIns tightens the day's walk-in placements after cancellations
// or no-shows free earlier slots.
func (h *HandlerBundle) RebalanceWalkIns(c *gin.Context) {
	var req struct {
		ClinicID string `json:"clinicId" binding:"required"`
		DoctorID string `json:"doctorId" binding:"required"`
		Date     string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	result, err := h.Booking.RebalanceWalkIns(c.Request.Context(), req.ClinicID, req.DoctorID, req.Date)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
