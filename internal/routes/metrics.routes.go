package routes

import (
	"serverbot/internal/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterMonitorRoutes registers the read-only status routes
func RegisterMonitorRoutes(r *gin.Engine, h *controllers.Handlers, gatherer prometheus.Gatherer) {
	r.GET("/health", h.GetHealth)
	r.GET("/history", h.GetHistory)

	metrics := r.Group("/metrics")
	{
		metrics.GET("/", h.GetHostLoad)
		metrics.GET("/disk", h.GetDisk)
	}

	if gatherer != nil {
		r.GET("/prometheus", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
