package routes

import (
	"net/http"
	"time"

	"clinicore/handlers"
	"clinicore/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSchedulingRoutes registers slot search and conflict endpoints.
func RegisterSchedulingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/scheduling")
	{
		api.POST("/slots", hb.SearchSlots)
		api.POST("/slots/bulk", hb.BulkSearchSlots)
		api.POST("/conflicts/check", hb.CheckConflicts)
		api.GET("/optimize/:doctorID", hb.OptimizeDay)
	}
}

// RegisterAppointmentRoutes registers booking lifecycle endpoints.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.POST("", hb.BookAppointment)
		api.GET("/:id", hb.GetAppointment)
		api.POST("/:id/cancel", hb.CancelAppointment)
		api.POST("/:id/reschedule", hb.RescheduleAppointment)
		api.POST("/:id/confirm", hb.ConfirmAppointment)
		api.POST("/:id/start", hb.StartAppointment)
		api.POST("/:id/complete", hb.CompleteAppointment)
		api.POST("/:id/no-show", hb.MarkNoShow)
	}
}

// RegisterReservationRoutes registers soft-hold endpoints.
func RegisterReservationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/reservations")
	{
		api.POST("", hb.ReserveSlot)
		api.DELETE("/:slotID", hb.ReleaseReservation)
	}
}

// RegisterQueueRoutes registers waitlist endpoints.
func RegisterQueueRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/queue")
	{
		api.POST("", hb.EnqueueWaitlist)
		api.GET("", hb.ListWaitlist)
		api.GET("/:id", hb.GetWaitlistEntry)
		api.DELETE("/:id", hb.WithdrawWaitlist)
	}
}

// RegisterEmergencyRoutes registers the triage endpoint.
func RegisterEmergencyRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/emergency", hb.HandleEmergency)
}

// RegisterInsightRoutes registers advisory endpoints.
func RegisterInsightRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/recommendations", hb.OperationalRecommendations)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterSchedulingRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterReservationRoutes(r, hb)
	RegisterQueueRoutes(r, hb)
	RegisterEmergencyRoutes(r, hb)
	RegisterInsightRoutes(r, hb)
	RegisterHealthRoute(r)
}
