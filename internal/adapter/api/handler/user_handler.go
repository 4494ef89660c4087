package handler

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/middleware"
	"amravatimarket/internal/usecase"
	"amravatimarket/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type updateProfileRequest struct {
	Name                *string   `json:"name" validate:"omitempty,max=80"`
	PreferredLocations  *[]string `json:"preferred_locations" validate:"omitempty,max=20"`
	PreferredCategories *[]string `json:"preferred_categories" validate:"omitempty,max=20"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userUseCase.GetProfile(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), middleware.UserID(c), usecase.UpdateProfileInput{
		Name:                req.Name,
		PreferredLocations:  req.PreferredLocations,
		PreferredCategories: req.PreferredCategories,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}
