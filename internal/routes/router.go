package routes

import (
	"serverbot/internal/controllers"
	"serverbot/internal/middleware"
	"serverbot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewRouter builds the gin engine with middleware and every route group
func NewRouter(h *controllers.Handlers, auth *services.AuthService, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(rate.Limit(10), 20), logger))

	RegisterMonitorRoutes(r, h, gatherer)
	RegisterAuthRoutes(r, h, auth, logger)
	return r
}
