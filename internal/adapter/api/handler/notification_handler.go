package handler

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/middleware"
	"amravatimarket/internal/usecase"
	"amravatimarket/pkg/response"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
	deviceTokenUseCase  *usecase.DeviceTokenUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase, deviceTokenUseCase *usecase.DeviceTokenUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
		deviceTokenUseCase:  deviceTokenUseCase,
	}
}

type deviceTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *NotificationHandler) ListUnread(c echo.Context) error {
	notifications, err := h.notificationUseCase.ListUnread(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, notifications)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	if err := h.notificationUseCase.MarkRead(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "read"})
}

// SaveDeviceToken registers the caller's push token.
func (h *NotificationHandler) SaveDeviceToken(c echo.Context) error {
	var req deviceTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.deviceTokenUseCase.Save(c.Request().Context(), middleware.UserID(c), req.Token); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "saved"})
}
