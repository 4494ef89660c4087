package handler

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/middleware"
	"amravatimarket/internal/usecase"
	"amravatimarket/pkg/response"
)

type AdminHandler struct {
	conversationUseCase *usecase.ConversationUseCase
	approvalUseCase     *usecase.ProductApprovalUseCase
}

func NewAdminHandler(conversationUseCase *usecase.ConversationUseCase, approvalUseCase *usecase.ProductApprovalUseCase) *AdminHandler {
	return &AdminHandler{
		conversationUseCase: conversationUseCase,
		approvalUseCase:     approvalUseCase,
	}
}

type blockRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

func (h *AdminHandler) SetBlocked(c echo.Context) error {
	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.conversationUseCase.SetBlocked(c.Request().Context(), c.Param("id"), *req.Blocked); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"blocked": *req.Blocked})
}

// ApproveProduct approves a listing; matching users are notified only the
// first time.
func (h *AdminHandler) ApproveProduct(c echo.Context) error {
	result, err := h.approvalUseCase.Approve(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}
