package handlers

import (
	"errors"
	"net/http"
	"time"

	appointmentRepo "clinicore/database/repository/appointment"
	"clinicore/services/appointment"
	"clinicore/services/availability"
	"clinicore/services/emergency"
	"clinicore/services/intelligence"
	"clinicore/services/queue"
	"clinicore/services/scheduling"

	"github.com/gin-gonic/gin"
)

// HandlerBundle aggregates the services the HTTP layer exposes. Built once
// in the composition root and shared by every route.
type HandlerBundle struct {
	Scheduling   scheduling.SchedulingEngine
	Availability availability.AvailabilityService
	Appointments appointment.AppointmentService
	Queue        queue.QueueService
	Emergency    emergency.EmergencyService
	Insights     intelligence.InsightService

	ReservationTTL time.Duration
}

// respondServiceError maps domain errors onto HTTP statuses. Validation
// failures carry the full violation list so clients can render them.
func respondServiceError(c *gin.Context, err error) {
	var vErr *appointment.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "rejected by business rules",
			"validation": vErr.Result,
		})
		return
	}
	var cErr *appointment.CancellationError
	if errors.As(err, &cErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": cErr.Error(),
			"quote": cErr.Quote,
		})
		return
	}
	switch {
	case errors.Is(err, availability.ErrSlotHeld):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, appointmentRepo.ErrOverlap):
		c.JSON(http.StatusConflict, gin.H{"error": "slot was booked by another request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
