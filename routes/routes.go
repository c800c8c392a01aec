package routes

import (
	"net/http"
	"time"

	"clinq/handlers"
	"clinq/middleware"
	"clinq/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the booking endpoints. Advance and walk-in
// preview are patient-facing; force-book and rebalance are staff-only.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/booking")
	{
		api.POST("/advance", hb.BookAdvance)
		api.POST("/walkin/preview", hb.PreviewWalkIn)
		api.POST("/walkin", hb.BookWalkIn)

		staff := api.Group("")
		staff.Use(middleware.JWTAuthStaffMiddleware())
		staff.POST("/rebalance", hb.RebalanceWalkIns)
	}
}

// RegisterQueueRoutes registers the live queue view and the delay readout.
func RegisterQueueRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/queue", middleware.JWTAuthStaffMiddleware(), hb.GetQueue)
	r.GET("/api/doctors/:id/delay", hb.GetDoctorDelay)
}

// RegisterDoctorRoutes registers the staff-side doctor controls.
func RegisterDoctorRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/doctors")
	api.Use(middleware.JWTAuthStaffMiddleware())
	{
		api.POST("/:id/breaks", hb.AddBreak)
		api.DELETE("/:id/breaks/:breakId", hb.RemoveBreak)
		api.PATCH("/:id/consultation-status", hb.SetConsultationStatus)
	}
}

// RegisterAppointmentRoutes registers the staff lifecycle transitions.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	api.Use(middleware.JWTAuthStaffMiddleware())
	{
		api.PATCH("/:id/status", hb.UpdateAppointmentStatus)
	}
}

// RegisterWebhookRoutes registers inbound gateway callbacks.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/webhooks/whatsapp", hb.WhatsAppWebhook)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterBookingRoutes(r, hb)
	RegisterQueueRoutes(r, hb)
	RegisterDoctorRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
	RegisterHealthRoute(r)
}
