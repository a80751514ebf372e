package handlers

import (
	"net/http"
	"time"

	"clinicore/models"

	"github.com/gin-gonic/gin"
)

// SearchSlots finds and ranks candidate slots for the given criteria.
func (hb *HandlerBundle) SearchSlots(c *gin.Context) {
	var criteria models.SchedulingCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	slots, err := hb.Availability.GetAvailability(c.Request.Context(), criteria)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	slots = hb.Insights.RankSlots(c.Request.Context(), criteria, slots)

	c.JSON(http.StatusOK, gin.H{
		"slots": slots,
		"count": len(slots),
	})
}

// BulkSearchSlots fans out several criteria in one call.
func (hb *HandlerBundle) BulkSearchSlots(c *gin.Context) {
	var input struct {
		Criteria []models.SchedulingCriteria `json:"criteria" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	results := hb.Availability.GetBulkAvailability(c.Request.Context(), input.Criteria)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// CheckConflicts evaluates a candidate appointment against the schedule.
func (hb *HandlerBundle) CheckConflicts(c *gin.Context) {
	var candidate models.Appointment
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	conflicts, err := hb.Scheduling.CheckConflicts(c.Request.Context(), candidate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conflicts": conflicts,
		"clean":     len(conflicts) == 0,
	})
}

// OptimizeDay proposes an advisory rearrangement of a doctor's day.
func (hb *HandlerBundle) OptimizeDay(c *gin.Context) {
	doctorID := c.Param("doctorID")
	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	opt, err := hb.Scheduling.OptimizeSchedule(c.Request.Context(), doctorID, day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, opt)
}
