package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReserveSlot places a short-lived hold on a slot while the patient decides.
func (hb *HandlerBundle) ReserveSlot(c *gin.Context) {
	var input struct {
		SlotID    string `json:"slotId" binding:"required"`
		PatientID string `json:"patientId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := hb.Availability.ReserveSlotTemporarily(c.Request.Context(), input.SlotID, input.PatientID, hb.ReservationTTL); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"slotId":     input.SlotID,
		"expiresInS": int(hb.ReservationTTL.Seconds()),
	})
}

// ReleaseReservation drops a hold before it expires. Only the holder's
// patient ID can release it.
func (hb *HandlerBundle) ReleaseReservation(c *gin.Context) {
	patientID := c.Query("patientId")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patientId is required"})
		return
	}

	if err := hb.Availability.ReleaseTemporaryReservation(c.Request.Context(), c.Param("slotID"), patientID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "released"})
}
