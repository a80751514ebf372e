package handlers

import (
	"net/http"

	"clinicore/models"

	"github.com/gin-gonic/gin"
)

// EnqueueWaitlist parks a request on the waitlist.
func (hb *HandlerBundle) EnqueueWaitlist(c *gin.Context) {
	var entry models.QueueEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if entry.PatientID == "" || entry.SpecialtyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patientId and specialtyId are required"})
		return
	}

	created, err := hb.Queue.Enqueue(c.Request.Context(), entry)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": created})
}

// WithdrawWaitlist removes an entry at the patient's request.
func (hb *HandlerBundle) WithdrawWaitlist(c *gin.Context) {
	if err := hb.Queue.Withdraw(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "waitlist entry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "withdrawn"})
}

// GetWaitlistEntry returns an entry and its current queue position.
func (hb *HandlerBundle) GetWaitlistEntry(c *gin.Context) {
	entry, rank, err := hb.Queue.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "waitlist entry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "position": rank})
}

// ListWaitlist returns a scope's entries, highest priority first.
func (hb *HandlerBundle) ListWaitlist(c *gin.Context) {
	specialtyID := c.Query("specialtyId")
	if specialtyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "specialtyId is required"})
		return
	}

	entries, err := hb.Queue.ListByPriority(c.Request.Context(), specialtyID, c.Query("doctorId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}
