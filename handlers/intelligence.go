package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// OperationalRecommendations surfaces utilization-derived advisory findings
// for one specialty and day.
func (hb *HandlerBundle) OperationalRecommendations(c *gin.Context) {
	specialtyID := c.Query("specialtyId")
	if specialtyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "specialtyId is required"})
		return
	}
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	recs, err := hb.Insights.OperationalRecommendations(c.Request.Context(), specialtyID, day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs, "count": len(recs)})
}
