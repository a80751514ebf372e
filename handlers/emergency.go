package handlers

import (
	"net/http"

	"clinicore/models"

	"github.com/gin-gonic/gin"
)

// HandleEmergency triages an urgent request and escalates until a slot is
// secured. A failed placement is still a 200: the result carries the
// estimated wait and alternatives instead of an error.
func (hb *HandlerBundle) HandleEmergency(c *gin.Context) {
	var req models.EmergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, err := hb.Emergency.HandleEmergency(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusOK
	if result.Success {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}
