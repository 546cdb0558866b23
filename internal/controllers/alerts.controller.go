package controllers

import (
	"net/http"

	"serverbot/internal/middleware"
	"serverbot/internal/models"
	"serverbot/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunCheck runs one monitoring pass on demand.
// Query params: dry_run=true returns the warning message without posting it
func (h *Handlers) RunCheck(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Query("dry_run") == "true" {
		message, err := h.monitor.CheckMessage(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message})
		return
	}

	destination := h.monitor.Destination()
	if destination == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "disk monitoring is disabled"})
		return
	}

	requestedBy := ""
	if claims, ok := c.Get(middleware.ClaimsKey); ok {
		if cc, ok := claims.(*services.CustomClaims); ok {
			requestedBy = cc.ClientName
		}
	}
	h.logger.Info("Manual disk check requested",
		zap.String("client", requestedBy),
		zap.String("destination", string(destination)))

	record, err := h.monitor.RunCheck(ctx, destination, models.TriggerManual)
	if err != nil {
		h.logger.Error("Manual disk check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "record": record})
		return
	}
	c.JSON(http.StatusOK, record)
}
