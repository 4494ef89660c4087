package router

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/handler"
	"amravatimarket/internal/adapter/api/middleware"
)

func SetupAdminRouter(v1 *echo.Group, adminHandler *handler.AdminHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.PUT("/conversations/:id/block", adminHandler.SetBlocked)
	admin.POST("/products/:id/approve", adminHandler.ApproveProduct)
}
