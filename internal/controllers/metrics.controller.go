package controllers

import (
	"context"
	"net/http"
	"time"

	"serverbot/internal/models"
	"serverbot/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoadProvider returns the current host load
type LoadProvider interface {
	Load(ctx context.Context) (*models.HostLoad, error)
}

// Handlers serves the HTTP status surface
type Handlers struct {
	monitor   *services.DiskMonitor
	hostStats LoadProvider
	auth      *services.AuthService
	hub       *services.WebSocketHub
	logger    *zap.Logger
}

// NewHandlers creates the handlers. hub may be nil when streaming is disabled.
func NewHandlers(monitor *services.DiskMonitor, hostStats LoadProvider, auth *services.AuthService, hub *services.WebSocketHub, logger *zap.Logger) *Handlers {
	return &Handlers{
		monitor:   monitor,
		hostStats: hostStats,
		auth:      auth,
		hub:       hub,
		logger:    logger,
	}
}

// GetHealth reports liveness and whether scheduled monitoring is active
func (h *Handlers) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"monitoring": h.monitor.Destination() != "",
		"last_check": h.monitor.History().Latest(),
		"timestamp":  time.Now(),
	})
}

// GetHostLoad returns CPU, memory and top processes
func (h *Handlers) GetHostLoad(c *gin.Context) {
	hostLoad, err := h.hostStats.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, hostLoad)
}

// GetDisk returns the current usage of every monitored mount point
func (h *Handlers) GetDisk(c *gin.Context) {
	disks, err := h.monitor.Inspect(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"disks":     disks,
		"timestamp": time.Now(),
	})
}
