package router

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/handler"
	"amravatimarket/internal/adapter/api/middleware"
)

// Setup registers every route. limiter may be nil to disable per-IP
// throttling.
func Setup(e *echo.Echo, h *handler.Handlers, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware, limiter middleware.Limiter) {
	v1 := e.Group("/v1")
	if limiter != nil {
		v1.Use(middleware.RateLimit(limiter))
	}

	SetupConversationRouter(v1, h.Conversation, h.Message, authMiddleware)
	SetupNotificationRouter(v1, h.Notification, authMiddleware)
	SetupUserRouter(v1, h.User, h.Notification, authMiddleware)
	SetupAdminRouter(v1, h.Admin, authMiddleware, adminMiddleware)
	SetupWebSocketRouter(v1, h.WebSocket, authMiddleware)
	SetupHealthRouter(e, h.Health)
}
