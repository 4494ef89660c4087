package router

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/handler"
	"amravatimarket/internal/adapter/api/middleware"
)

func SetupNotificationRouter(v1 *echo.Group, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	notifications := v1.Group("/notifications", authMiddleware.Authenticate)
	notifications.GET("", notificationHandler.ListUnread)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)
}
