package routes

import (
	"serverbot/internal/controllers"
	"serverbot/internal/middleware"
	"serverbot/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterAuthRoutes registers the token-protected routes.
// Tokens are issued by the CLI only (no HTTP endpoint).
func RegisterAuthRoutes(r *gin.Engine, h *controllers.Handlers, auth *services.AuthService, logger *zap.Logger) {
	// WebSocket clients pass the token as a query parameter
	r.GET("/ws", h.HandleWebSocket)

	alerts := r.Group("/alerts", middleware.BearerAuthMiddleware(auth, logger))
	{
		alerts.POST("/check", h.RunCheck)
	}
}
