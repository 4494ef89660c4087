package handler

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/middleware"
	"amravatimarket/internal/usecase"
	"amravatimarket/pkg/response"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
	presenceUseCase     *usecase.PresenceUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase, presenceUseCase *usecase.PresenceUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
		presenceUseCase:     presenceUseCase,
	}
}

type contactSellerRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type typingRequest struct {
	Typing *bool `json:"typing" validate:"required"`
}

// ContactSeller opens (or reopens) the caller's conversation about a product.
func (h *ConversationHandler) ContactSeller(c echo.Context) error {
	var req contactSellerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.conversationUseCase.ContactSeller(c.Request().Context(), middleware.UserID(c), req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}
	if result.Created {
		return response.Created(c, result)
	}
	return response.Success(c, result)
}

func (h *ConversationHandler) ListInbox(c echo.Context) error {
	entries, err := h.conversationUseCase.ListInbox(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, entries)
}

func (h *ConversationHandler) GetConversation(c echo.Context) error {
	conversation, err := h.conversationUseCase.Get(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversation)
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	if err := h.conversationUseCase.MarkRead(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "read"})
}

func (h *ConversationHandler) SetTyping(c echo.Context) error {
	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.presenceUseCase.SetTyping(c.Request().Context(), c.Param("id"), middleware.UserID(c), *req.Typing); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"typing": *req.Typing})
}
