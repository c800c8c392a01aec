package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WhatsAppWebhook receives inbound messages from the WhatsApp gateway. Each
// one reopens the sender's 24-hour conversation window.
func (h *HandlerBundle) WhatsAppWebhook(c *gin.Context) {
	var req struct {
		From string `json:"from" binding:"required"`
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Dispatcher.RecordInboundWhatsApp(c.Request.Context(), req.From, req.Body); err != nil {
		getLogger(c).Error("inbound whatsapp record failed", zap.String("from", req.From), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
