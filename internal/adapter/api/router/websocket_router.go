package router

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/handler"
	"amravatimarket/internal/adapter/api/middleware"
)

// SetupWebSocketRouter registers the live streams. They accept ?token= in
// place of the Authorization header.
func SetupWebSocketRouter(v1 *echo.Group, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	streams := v1.Group("/ws", authMiddleware.AuthenticateStream)

	streams.GET("/inbox", wsHandler.Inbox)
	streams.GET("/conversations/:id/messages", wsHandler.Thread)
	streams.GET("/notifications", wsHandler.Notifications)
}
