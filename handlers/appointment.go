package handlers

import (
	"net/http"

	"clinicore/models"

	"github.com/gin-gonic/gin"
)

// BookAppointment books a chosen slot through the full validated pipeline.
func (hb *HandlerBundle) BookAppointment(c *gin.Context) {
	var input struct {
		Criteria models.SchedulingCriteria `json:"criteria" binding:"required"`
		Slot     models.AvailableSlot      `json:"slot" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := hb.Appointments.BookAppointment(c.Request.Context(), input.Criteria, input.Slot)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"appointment": appt})
}

// GetAppointment fetches one appointment.
func (hb *HandlerBundle) GetAppointment(c *gin.Context) {
	appt, err := hb.Appointments.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

// CancelAppointment cancels with the fee policy applied.
func (hb *HandlerBundle) CancelAppointment(c *gin.Context) {
	var input struct {
		CancelledBy string `json:"cancelledBy" binding:"required"`
		Reason      string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, quote, err := hb.Appointments.CancelAppointment(c.Request.Context(), c.Param("id"), input.CancelledBy, input.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt, "quote": quote})
}

// RescheduleAppointment moves an appointment to a new slot.
func (hb *HandlerBundle) RescheduleAppointment(c *gin.Context) {
	var input struct {
		Slot models.AvailableSlot `json:"slot" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	replacement, err := hb.Appointments.RescheduleAppointment(c.Request.Context(), c.Param("id"), input.Slot)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": replacement})
}

// ConfirmAppointment marks a scheduled appointment as confirmed.
func (hb *HandlerBundle) ConfirmAppointment(c *gin.Context) {
	if err := hb.Appointments.ConfirmAppointment(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// StartAppointment begins the visit.
func (hb *HandlerBundle) StartAppointment(c *gin.Context) {
	var input struct {
		DoctorID string `json:"doctorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := hb.Appointments.StartAppointment(c.Request.Context(), c.Param("id"), input.DoctorID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "in_progress"})
}

// CompleteAppointment closes the visit with its clinical outcome.
func (hb *HandlerBundle) CompleteAppointment(c *gin.Context) {
	var input struct {
		DoctorID     string `json:"doctorId" binding:"required"`
		Diagnosis    string `json:"diagnosis"`
		Prescription string `json:"prescription"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := hb.Appointments.CompleteAppointment(c.Request.Context(), c.Param("id"), input.DoctorID, input.Diagnosis, input.Prescription); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// MarkNoShow records a missed appointment.
func (hb *HandlerBundle) MarkNoShow(c *gin.Context) {
	if err := hb.Appointments.MarkNoShow(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "no_show"})
}
