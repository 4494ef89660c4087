package handler

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/middleware"
	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/usecase"
	"amravatimarket/pkg/response"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

// Text is not validated here so that blank text reaches the use case and
// is reported as EMPTY_MESSAGE.
type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage returns 201 once the message is stored, even when counter or
// notification bookkeeping failed; those steps are listed under "degraded".
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.messageUseCase.Send(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.Text)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, result)
}

func (h *MessageHandler) ListMessages(c echo.Context) error {
	messages, err := h.messageUseCase.List(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, messages)
}

func (h *MessageHandler) GetMessage(c echo.Context) error {
	rendered, err := h.messageUseCase.Get(c.Request().Context(), c.Param("id"), c.Param("messageId"), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, rendered)
}

// DeleteMessage soft-deletes with ?for=me (default) or ?for=everyone.
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	scope := entity.DeletionScope(c.QueryParam("for"))
	if scope == "" {
		scope = entity.DeletedForMe
	}

	rendered, err := h.messageUseCase.Delete(c.Request().Context(), c.Param("id"), c.Param("messageId"), middleware.UserID(c), scope)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, rendered)
}
