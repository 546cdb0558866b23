package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetHistory returns the monitoring passes within a window
// Query params: duration=1h|24h|168h (default: 24h)
func (h *Handlers) GetHistory(c *gin.Context) {
	durationStr := c.DefaultQuery("duration", "24h")

	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration format"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"duration": durationStr,
		"data":     h.monitor.History().Window(duration),
	})
}
