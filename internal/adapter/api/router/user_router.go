package router

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/handler"
	"amravatimarket/internal/adapter/api/middleware"
)

func SetupUserRouter(v1 *echo.Group, userHandler *handler.UserHandler, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	me := v1.Group("/me", authMiddleware.Authenticate)

	me.GET("", userHandler.GetProfile)
	me.PATCH("", userHandler.UpdateProfile)
	me.PUT("/device-token", notificationHandler.SaveDeviceToken)
}
